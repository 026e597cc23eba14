package room

import (
	"slices"
	"strings"
	"time"
)

// Status is the availability string reported by the room API.
type Status string

const (
	// StatusOffline marks a room or device as unreachable.
	StatusOffline Status = "Offline"
	// StatusOnline marks a device as reachable.
	StatusOnline Status = "Online"
)

// IsOffline reports whether the status is "Offline", ignoring case.
func (s Status) IsOffline() bool {
	return strings.EqualFold(string(s), string(StatusOffline))
}

// IsOnline reports whether the status is exactly "Online". Any other spelling
// keeps a room's recovery gate closed.
func (s Status) IsOnline() bool {
	return s == StatusOnline
}

// Room is a monitored space with an aggregate status.
type Room struct {
	// ID is the provider's room identifier and the only identity key.
	ID string
	// Name is the human-readable room name.
	Name string
	// Status is the aggregate room status ("Offline", "Available", "InMeeting", ...).
	Status Status
}

// Device is a piece of equipment inside a room.
type Device struct {
	// Type is the device kind, e.g. "Zoom Rooms Computer" or "Controller".
	Type string
	// Status is the device status ("Online" or "Offline").
	Status Status
}

// Online reports whether the device is Online.
func (d Device) Online() bool {
	return d.Status.IsOnline()
}

// AllOnline reports whether every device is Online. An empty list counts as online.
func AllOnline(devices []Device) bool {
	for _, d := range devices {
		if !d.Online() {
			return false
		}
	}

	return true
}

// Snapshot is the room list returned by one poll.
type Snapshot struct {
	// Rooms holds the rooms in provider order.
	Rooms []Room
	// TakenAt is when the listing completed.
	TakenAt time.Time
}

// Find returns the room with the given id.
func (s *Snapshot) Find(id string) (Room, bool) {
	if s == nil {
		return Room{}, false
	}

	idx := slices.IndexFunc(s.Rooms, func(r Room) bool { return r.ID == id })
	if idx < 0 {
		return Room{}, false
	}

	return s.Rooms[idx], true
}

// Summary counts rooms in the snapshot.
func (s *Snapshot) Summary() Summary {
	if s == nil {
		return Summary{}
	}

	return Summarize(s.Rooms, s.TakenAt)
}
