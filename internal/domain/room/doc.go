// Package room contains the core domain types of the monitor.
//
// It defines Room and Device as reported by the room API, the Snapshot of one
// poll, the TrackedSet of rooms in an open offline episode, the OfflineEpisode
// itself, the TransitionEvent handed to notification and logging, and the
// aggregate Summary shown on the status surface.
package room
