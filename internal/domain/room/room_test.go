package room

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestStatus verifies offline matching ignores case while online must match exactly.
func TestStatus(t *testing.T) {
	t.Parallel()

	require.True(t, Status("Offline").IsOffline())
	require.True(t, Status("offline").IsOffline())
	require.False(t, Status("Available").IsOffline())
	require.False(t, Status("InMeeting").IsOnline())
	require.True(t, Status("Online").IsOnline())
	require.False(t, Status("ONLINE").IsOnline())
	require.False(t, Status("online").IsOnline())
	require.False(t, AllOnline([]Device{{Type: "Controller", Status: "online"}}))
}

// TestAllOnline checks the recovery gate over device lists.
func TestAllOnline(t *testing.T) {
	t.Parallel()

	require.True(t, AllOnline(nil))
	require.True(t, AllOnline([]Device{{Type: "Controller", Status: StatusOnline}}))
	require.False(t, AllOnline([]Device{
		{Type: "Controller", Status: StatusOnline},
		{Type: "Zoom Rooms Computer", Status: StatusOffline},
	}))
	require.False(t, AllOnline([]Device{{Type: "Scheduling Display", Status: "Unknown"}}))
}

// TestSnapshot_FindAndSummary verifies lookups by id and the counts behind the title.
func TestSnapshot_FindAndSummary(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	snapshot := &Snapshot{
		Rooms: []Room{
			{ID: "a", Name: "Lab-A", Status: StatusOffline},
			{ID: "b", Name: "Lab-B", Status: "Available"},
			{ID: "c", Name: "Lab-C", Status: "InMeeting"},
		},
		TakenAt: at,
	}

	r, ok := snapshot.Find("b")
	require.True(t, ok)
	require.Equal(t, "Lab-B", r.Name)

	_, ok = snapshot.Find("missing")
	require.False(t, ok)

	summary := snapshot.Summary()
	require.Equal(t, Summary{Online: 2, Offline: 1, Total: 3, UpdatedAt: at}, summary)
	require.Equal(t, "2 - 3 Rooms Online 🟢\n1 Rooms Offline 🔴", summary.Title())

	var empty *Snapshot
	require.Equal(t, Summary{}, empty.Summary())
}

// TestTrackedSet covers set operations and that Clone does not alias.
func TestTrackedSet(t *testing.T) {
	t.Parallel()

	set := NewTrackedSet("b", "a")
	require.True(t, set.Contains("a"))
	require.Equal(t, []string{"a", "b"}, set.IDs())

	cloned := set.Clone()
	cloned.Remove("a")
	cloned.Add("c")

	require.True(t, set.Contains("a"))
	require.False(t, set.Contains("c"))
	require.Equal(t, 2, cloned.Len())

	var nilSet TrackedSet
	require.False(t, nilSet.Contains("a"))
	require.Equal(t, 0, nilSet.Clone().Len())
}

// TestOfflineEpisodeClone verifies Clone deep-copies the optional fields.
func TestOfflineEpisodeClone(t *testing.T) {
	t.Parallel()

	require.Nil(t, (*OfflineEpisode)(nil).Clone())

	stop := time.Now()
	elapsed := int64(42)
	e := &OfflineEpisode{
		RoomID:         "a",
		RoomName:       "Lab-A",
		Start:          stop.Add(-42 * time.Second),
		Stop:           &stop,
		ElapsedSeconds: &elapsed,
	}

	c := e.Clone()
	require.Equal(t, e, c)
	require.NotSame(t, e.Stop, c.Stop)
	require.NotSame(t, e.ElapsedSeconds, c.ElapsedSeconds)
	require.False(t, c.Open())
	require.True(t, (&OfflineEpisode{}).Open())
}

// TestDeviceSummary verifies device counting treats anything but Online as offline.
func TestDeviceSummary(t *testing.T) {
	t.Parallel()

	var s DeviceSummary

	s.Add([]Device{{Type: "Controller", Status: "Online"}, {Type: "Display", Status: "Offline"}})
	s.Add([]Device{{Type: "Camera", Status: "Unknown"}})
	s.Add(nil)

	require.Equal(t, DeviceSummary{Online: 1, Offline: 2, Total: 3}, s)
	require.Equal(t, "1 - 3 Devices Online 🟢\n2 Devices Offline 🔴", s.Title())
}
