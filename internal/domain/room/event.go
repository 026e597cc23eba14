package room

import "time"

// TransitionKind names what happened to a room.
type TransitionKind string

const (
	// RoomDown is emitted when an untracked room is seen Offline.
	RoomDown TransitionKind = "Room Down"
	// RoomUp is emitted when a tracked room is back with every device Online.
	RoomUp TransitionKind = "Room Up"
	// RoomLost is emitted when a tracked room stayed missing from the listing too long.
	RoomLost TransitionKind = "Room Lost"
)

// TransitionEvent is the unit handed to the dispatcher and the event log.
type TransitionEvent struct {
	// Kind is the transition type.
	Kind TransitionKind
	// Room is the room as seen in the snapshot that produced the event.
	Room Room
	// Devices is the device list fetched while detecting the transition.
	Devices []Device
	// ElapsedSeconds is the closed episode duration, nil when unknown or not applicable.
	ElapsedSeconds *int64
	// At is the snapshot time the transition was detected at.
	At time.Time
}
