// Package version exposes build metadata for room-monitor.
//
// Version, Commit and BuildTime are injected with -ldflags at build time.
package version
