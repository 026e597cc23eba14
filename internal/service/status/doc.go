// Package status is the read-only presentation surface of the monitor.
//
// The Board holds the last summary published by the poll loop and renders the
// always-visible title. The Refresher fetches the room listing on its own
// interval for the detail view and pushes every result to WebSocket clients.
// Server exposes both over HTTP, and Health reports the loop state over the
// standard gRPC health protocol. Nothing here mutates poll-loop state.
package status
