// Package http provides the REST API over the bridge, its views and the
// captured events.
//
// Endpoints:
//   - Health: / and /health, /status, /constants
//   - Feeds: /feeds, /feeds/:name, /feeds/refresh, /poll-interval
//   - Commands: /commands/:command
//   - Views: /views, /views/:id, /views/select, /privacy, /capture/stop
//   - Events: /events, /events/load
//   - Dumps: /snapshot
//   - Metrics: /metrics (Prometheus), /metrics/json
//
// Errors are reported as {"success": false, "error": "..."} with 404 for
// unknown names, 400 for malformed requests and 409 when the constants
// handshake has not happened yet.
//
// Example Usage:
//
//	handlers := http.NewHandlers(http.Deps{Bridge: b, Views: mv, Tracker: t, ...})
//	handlers.Register(router)
package http
