// Package state implements persistence for the monitor State.
//
// The FileRepository stores and loads the tracked rooms and their open offline
// episodes as JSON on disk, so a restart neither re-announces rooms that are
// already known to be down nor loses their offline start times.
package state
