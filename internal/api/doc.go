// Package api implements the feeder's local HTTP API and WebSocket bus monitor.
//
// This package provides:
//   - Health and metrics endpoints
//   - Discovery bridge status and the auto-discovery switch
//   - A WebSocket monitor that streams bus traffic matching client patterns
//   - Optional HS256 bearer-token auth with ticket-based WebSocket auth
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Endpoints
//
//	GET  /api/v1/health           liveness, no auth
//	GET  /api/v1/metrics          runtime, bus, relay and database counters
//	GET  /api/v1/network          last network sample
//	GET  /api/v1/hass/status      discovery bridge snapshot
//	PUT  /api/v1/hass/discovery   {"enabled": true, "persist": false}
//	POST /api/v1/bus/publish      {"topic": "...", "payload": "..."}
//	POST /api/v1/auth/ws-ticket   single-use WebSocket ticket
//	GET  /api/v1/ws               WebSocket bus monitor
//
// The discovery switch publishes the same hass/cmnd/enable|disable command a
// remote controller would, so the bridge sees one code path for both.
//
// # Security
//
// With security.jwt.secret unset the API is open, which is the normal setup
// on a trusted LAN. Once set, every route except health requires a bearer
// token signed with the secret (see IssueToken and "feeder token").
package api
