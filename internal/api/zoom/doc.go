// Package zoom is the room snapshot provider: a small client for the Zoom
// Rooms REST API (room listing with pagination, per-room devices) and the
// server-to-server OAuth token exchange.
//
// Every non-2xx answer is returned as a *StatusError, never as an empty list.
package zoom
