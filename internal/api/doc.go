// Package api implements the HTTP REST API and WebSocket server for Showcue Core.
//
// This package provides:
//   - REST endpoints for stream registration, inspection, and removal
//   - WebSocket hub for real-time stream state broadcasts
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// The API server sits between control surfaces (operator dashboards, overlay
// renderers) and the stream manager + MQTT bus. Scheduling commands flow over
// MQTT and are handled by the stream router; the HTTP surface is read-mostly,
// covering stream lifecycle and state snapshots. State updates reach WebSocket
// clients either directly, through a hub wired into the stream manager's
// sinks, or via an MQTT relay when the hub is not injected.
//
// # Graceful Degradation
//
// The server operates without MQTT — reads and WebSocket connections work,
// only the bus relay fallback is disabled. This enables testing and partial
// operation.
package api
