// Package main is the entry point for the net-internals daemon.
//
// The daemon connects to a browser host over a websocket, keeps the network
// diagnostics it reports (proxy settings, DNS cache, socket pools, SPDY
// sessions, log events, ...) and serves them to dashboards and tools.
//
// Architecture:
//
//	Host (browser) ⇄ host link → Bridge → feeds, topics, event store
//	                                    → REST API, live stream, NATS mirror
//
// Configuration:
//   - Defaults for development
//   - Optional YAML or TOML file (-config)
//   - Environment variables (12-factor)
//   - CLI flags (override everything)
//
// Usage:
//
//	# Production mode
//	./server -config netinternals.yaml
//
//	# Development mode (colored logs, debug level)
//	./server -dev -host ws://127.0.0.1:9222/net-internals
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
