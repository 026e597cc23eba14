// Package detector turns successive room snapshots into RoomDown, RoomUp and
// RoomLost transitions.
//
// The Detector owns the duration tracker and the per-room miss counters; the
// tracked set is passed in and returned explicitly so the caller decides what
// to persist between cycles.
package detector
