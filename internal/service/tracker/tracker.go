package tracker

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/oshokin/room-monitor/internal/domain/room"
)

// Tracker keeps at most one episode per room. It is owned by the poll loop
// and is not safe for concurrent use.
type Tracker struct {
	// episodes holds the latest episode per room id, open or closed.
	episodes map[string]*room.OfflineEpisode
	// now returns the current wall-clock time.
	now func() time.Time
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// New creates an empty tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{
		episodes: make(map[string]*room.OfflineEpisode),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// Start opens a new episode for the room, replacing whatever was recorded before.
func (t *Tracker) Start(roomID, roomName string) *room.OfflineEpisode {
	episode := &room.OfflineEpisode{
		RoomID:   roomID,
		RoomName: roomName,
		Start:    t.now(),
	}

	t.episodes[roomID] = episode

	return episode.Clone()
}

// Stop closes the open episode of the room and returns ceil(stop - start) in seconds.
// The second result is false when the room has no open episode.
func (t *Tracker) Stop(roomID string) (int64, bool) {
	episode, ok := t.close(roomID)
	if !ok {
		return 0, false
	}

	return *episode.ElapsedSeconds, true
}

// Lose closes the open episode of the room with the Lost marker.
func (t *Tracker) Lose(roomID string) (int64, bool) {
	episode, ok := t.close(roomID)
	if !ok {
		return 0, false
	}

	episode.Lost = true

	return *episode.ElapsedSeconds, true
}

// Episode returns a copy of the latest episode recorded for the room.
func (t *Tracker) Episode(roomID string) (*room.OfflineEpisode, bool) {
	episode, ok := t.episodes[roomID]
	if !ok {
		return nil, false
	}

	return episode.Clone(), true
}

// Open returns copies of all open episodes ordered by start time.
func (t *Tracker) Open() []*room.OfflineEpisode {
	result := make([]*room.OfflineEpisode, 0, len(t.episodes))

	for _, episode := range t.episodes {
		if episode.Open() {
			result = append(result, episode.Clone())
		}
	}

	slices.SortFunc(result, func(a, b *room.OfflineEpisode) int {
		return cmp.Or(a.Start.Compare(b.Start), cmp.Compare(a.RoomID, b.RoomID))
	})

	return result
}

// Restore loads previously persisted open episodes. Closed episodes are ignored.
func (t *Tracker) Restore(episodes []*room.OfflineEpisode) {
	for _, episode := range episodes {
		if !episode.Open() {
			continue
		}

		t.episodes[episode.RoomID] = episode.Clone()
	}
}

func (t *Tracker) close(roomID string) (*room.OfflineEpisode, bool) {
	episode, ok := t.episodes[roomID]
	if !ok || !episode.Open() {
		return nil, false
	}

	stop := t.now()
	elapsed := int64(math.Ceil(stop.Sub(episode.Start).Seconds()))

	episode.Stop = &stop
	episode.ElapsedSeconds = &elapsed

	return episode, true
}
