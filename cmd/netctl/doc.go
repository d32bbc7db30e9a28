// Command netctl drives a running net-internals daemon over its REST API.
//
// Usage:
//
//	netctl status
//	netctl send hstsQuery example.com
//	netctl -compression zstd dump capture.json.zst
//	netctl load capture.json.zst
//
// The daemon address comes from -addr or NETCTL_ADDR.
package main
