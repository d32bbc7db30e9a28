// Package bridge is the gateway between the diagnostics daemon and the host
// browser process.
//
// Every request to the host goes out through Bridge.Send and every message
// from the host comes in through Bridge.Dispatch. Inbound traffic is held
// back until the host's constants handshake has been validated, then
// replayed in arrival order.
//
// Host state that is not streamed (proxy settings, socket pools, SPDY
// sessions, ...) is modelled as a Feed: the bridge asks for a fresh value
// with a poll, the host answers with a separate message, and the feed
// decides which observers hear about it.
//
// Message Types (host → daemon) are the closed set of Kind constants;
// commands (daemon → host) are the closed set of Command constants, each
// with a fixed argument count.
//
// Example Usage:
//
//	b := bridge.New(hostClient, bridge.Options{Logger: logger})
//	subID, _ := b.Observe(bridge.FeedProxySettings, view, true)
//	b.SendReady()
//	...
//	b.Disable() // permanent
package bridge
