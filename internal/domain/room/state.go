package room

import "time"

// State is what the monitor keeps across restarts.
type State struct {
	// Tracked holds the ids of rooms believed to be offline.
	Tracked TrackedSet
	// Episodes are the open offline episodes.
	Episodes []*OfflineEpisode
	// SavedAt is when the state was written.
	SavedAt time.Time
}
