package detector

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/room-monitor/internal/domain/room"
	"github.com/oshokin/room-monitor/internal/logger"
	"github.com/oshokin/room-monitor/internal/service/tracker"
)

// DeviceLister fetches the current devices of a room.
type DeviceLister interface {
	ListDevices(ctx context.Context, roomID string) ([]room.Device, error)
}

// DefaultLostAfterCycles is how many consecutive listings a tracked room may be
// missing from before its episode is force-closed.
const DefaultLostAfterCycles = 12

// errNoSnapshot is returned when Detect is called without a snapshot.
var errNoSnapshot = errors.New("snapshot is required")

// Detector is the transition state machine. It is owned by one poll loop.
type Detector struct {
	// devices is used to check the all-devices-online recovery gate.
	devices DeviceLister
	// tracker records episode start and stop times.
	tracker *tracker.Tracker
	// lostAfter is the missed-listing limit; zero keeps missing rooms forever.
	lostAfter int
	// missed counts consecutive listings a tracked room was absent from.
	missed map[string]int
}

// Option configures a Detector.
type Option func(*Detector)

// WithTracker supplies a pre-built tracker, e.g. one restored from disk or using a fake clock.
func WithTracker(t *tracker.Tracker) Option {
	return func(d *Detector) {
		if t != nil {
			d.tracker = t
		}
	}
}

// WithLostAfterCycles sets the missed-listing limit. Zero disables force-closing.
func WithLostAfterCycles(cycles int) Option {
	return func(d *Detector) {
		if cycles >= 0 {
			d.lostAfter = cycles
		}
	}
}

// New creates a detector that checks devices through the given lister.
func New(devices DeviceLister, opts ...Option) *Detector {
	d := &Detector{
		devices:   devices,
		tracker:   tracker.New(),
		lostAfter: DefaultLostAfterCycles,
		missed:    make(map[string]int),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Tracker exposes the episode tracker for persistence and history.
func (d *Detector) Tracker() *tracker.Tracker {
	return d.tracker
}

// Detect compares the snapshot against the previously tracked rooms.
// Offline rooms are handled before recoveries. The previous set is not modified.
//
//nolint:cyclop // Down, up and lost passes read best side by side.
func (d *Detector) Detect(
	ctx context.Context,
	previous room.TrackedSet,
	snapshot *room.Snapshot,
) (room.TrackedSet, []room.TransitionEvent, error) {
	if snapshot == nil {
		return nil, nil, errNoSnapshot
	}

	var (
		next   = previous.Clone()
		events []room.TransitionEvent
		byID   = make(map[string]room.Room, len(snapshot.Rooms))
	)

	for _, r := range snapshot.Rooms {
		byID[r.ID] = r
	}

	for _, r := range snapshot.Rooms {
		if !r.Status.IsOffline() || next.Contains(r.ID) {
			continue
		}

		devices, err := d.devices.ListDevices(ctx, r.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("list devices of offline room %q: %w", r.ID, err)
		}

		d.tracker.Start(r.ID, r.Name)
		next.Add(r.ID)

		logger.InfoKV(ctx, "Room went offline", "room_id", r.ID, "room_name", r.Name)

		events = append(events, room.TransitionEvent{
			Kind:    room.RoomDown,
			Room:    r,
			Devices: devices,
			At:      snapshot.TakenAt,
		})
	}

	for _, id := range next.IDs() {
		r, found := byID[id]
		if !found {
			if event, lost := d.miss(ctx, id, snapshot); lost {
				next.Remove(id)
				events = append(events, event)
			}

			continue
		}

		delete(d.missed, id)

		if r.Status.IsOffline() {
			continue
		}

		devices, err := d.devices.ListDevices(ctx, id)
		if err != nil {
			return nil, nil, fmt.Errorf("list devices of recovering room %q: %w", id, err)
		}

		if !room.AllOnline(devices) {
			logger.DebugKV(ctx, "Room is back but some devices are still offline", "room_id", id, "room_name", r.Name)
			continue
		}

		event := room.TransitionEvent{
			Kind:    room.RoomUp,
			Room:    r,
			Devices: devices,
			At:      snapshot.TakenAt,
		}

		if elapsed, ok := d.tracker.Stop(id); ok {
			event.ElapsedSeconds = &elapsed
		} else {
			logger.WarnKV(ctx, "Recovered room had no open offline episode", "room_id", id)
		}

		next.Remove(id)

		logger.InfoKV(ctx, "Room is back online", "room_id", id, "room_name", r.Name)

		events = append(events, event)
	}

	return next, events, nil
}

// miss counts a listing the tracked room was absent from and force-closes its
// episode once the limit is reached.
func (d *Detector) miss(ctx context.Context, id string, snapshot *room.Snapshot) (room.TransitionEvent, bool) {
	d.missed[id]++

	logger.DebugKV(ctx, "Tracked room missing from listing", "room_id", id, "missed", d.missed[id])

	if d.lostAfter == 0 || d.missed[id] < d.lostAfter {
		return room.TransitionEvent{}, false
	}

	delete(d.missed, id)

	event := room.TransitionEvent{
		Kind: room.RoomLost,
		Room: room.Room{ID: id},
		At:   snapshot.TakenAt,
	}

	if episode, ok := d.tracker.Episode(id); ok {
		event.Room.Name = episode.RoomName
	}

	if elapsed, ok := d.tracker.Lose(id); ok {
		event.ElapsedSeconds = &elapsed
	}

	logger.WarnKV(ctx, "Tracked room vanished from listing, closing its episode", "room_id", id)

	return event, true
}
