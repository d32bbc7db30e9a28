// Package server assembles the daemon: configuration, logging, metrics, the
// host link with its bridge, views and event store, the optional NATS
// mirror and the HTTP API.
//
// Lifecycle:
//
//	srv, err := server.NewServer(cfg)
//	err = srv.Run(ctx) // blocks until ctx is done
//	srv.Close()
package server
