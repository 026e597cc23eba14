package room

import "time"

// OfflineEpisode is the interval during which a room was continuously offline.
type OfflineEpisode struct {
	// RoomID identifies the room.
	RoomID string `json:"room_id"`
	// RoomName is the room name at the moment the episode started.
	RoomName string `json:"room_name"`
	// Start is when the room was first seen offline.
	Start time.Time `json:"start"`
	// Stop is set once the episode is closed.
	Stop *time.Time `json:"stop,omitempty"`
	// ElapsedSeconds is ceil(Stop - Start), set on close.
	ElapsedSeconds *int64 `json:"elapsed_seconds,omitempty"`
	// Lost marks an episode closed because the room vanished from the listing.
	Lost bool `json:"lost,omitempty"`
}

// Open reports whether the episode has not been closed yet.
func (e *OfflineEpisode) Open() bool {
	return e != nil && e.Stop == nil
}

// Clone returns a deep copy of the episode.
func (e *OfflineEpisode) Clone() *OfflineEpisode {
	if e == nil {
		return nil
	}

	cloned := *e

	if e.Stop != nil {
		stop := *e.Stop
		cloned.Stop = &stop
	}

	if e.ElapsedSeconds != nil {
		elapsed := *e.ElapsedSeconds
		cloned.ElapsedSeconds = &elapsed
	}

	return &cloned
}
