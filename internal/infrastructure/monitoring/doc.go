/*
Package monitoring provides Prometheus metrics for the daemon.

# Overview

Metrics cover the HTTP API, the bridge's traffic with the host (commands
sent, messages received, messages buffered before the constants handshake),
feed activity (polls, updates, notifications) and live stream clients.

# Usage

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

Tests pass a fresh prometheus.NewRegistry() so collectors never collide.
*/
package monitoring
