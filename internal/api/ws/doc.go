// Package ws serves the live stream: feed values, pushed host events and
// log entries delivered to WebSocket clients as they arrive.
//
// Message Types (Client → Server):
//   - subscribe: observe feeds; subscribed feeds are polled while connected
//   - unsubscribe: stop observing feeds, all of them when none are named
//   - command: forward a command to the host
//   - events: turn log entry streaming on or off
//   - ping: keep-alive ping
//
// Message Types (Server → Client):
//   - system: welcome with the client ID and bridge status
//   - feed: a feed value
//   - topic: a pushed host event (constants, connection tests, HSTS, ...)
//   - events / events_cleared: log entries
//   - ack, pong, error
//
// Example Usage:
//
//	handler := ws.NewHandler(bridge, tracker, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
