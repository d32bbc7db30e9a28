// Package middleware provides the HTTP middleware stack for the daemon's API.
//
// Middleware runs in this order on every router:
//   - RequestLog: assigns X-Request-ID and writes the access log
//   - CORS: cross-origin rules for browser dashboards
//   - RateLimit: per-client token buckets; health, metrics and the live
//     stream are exempt
package middleware
