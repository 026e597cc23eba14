package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/oshokin/room-monitor/internal/config"
	"github.com/oshokin/room-monitor/internal/domain/room"
)

var (
	errTestListing  = errors.New("listing failed")
	errTestEpisodes = errors.New("database locked")
)

// fakeProvider returns a fixed snapshot or error.
type fakeProvider struct {
	// snapshot is returned on success.
	snapshot *room.Snapshot
	// err is returned when set.
	err error
}

// Snapshot implements SnapshotProvider.
func (p *fakeProvider) Snapshot(context.Context) (*room.Snapshot, error) {
	return p.snapshot, p.err
}

// fakeEpisodes returns fixed episodes and records the limit.
type fakeEpisodes struct {
	// episodes is returned on success.
	episodes []*room.OfflineEpisode
	// err is returned when set.
	err error
	// limit is the last requested limit.
	limit int
}

// Recent implements EpisodeLister.
func (e *fakeEpisodes) Recent(_ context.Context, limit int) ([]*room.OfflineEpisode, error) {
	e.limit = limit

	return e.episodes, e.err
}

func testSnapshot(at time.Time) *room.Snapshot {
	return &room.Snapshot{
		Rooms: []room.Room{
			{ID: "1", Name: "LabA", Status: room.StatusOffline},
			{ID: "2", Name: "LabB", Status: room.StatusOnline},
			{ID: "3", Name: "LabC", Status: room.StatusOnline},
		},
		TakenAt: at,
	}
}

// TestBoard verifies the title before and after the first summary.
func TestBoard(t *testing.T) {
	t.Parallel()

	board := NewBoard()
	require.Equal(t, LoadingTitle, board.Title())

	_, ok := board.Summary()
	require.False(t, ok)

	require.NoError(t, board.PublishSummary(context.Background(), room.Summary{Online: 2, Offline: 1, Total: 3}))
	require.Equal(t, "2 - 3 Rooms Online 🟢\n1 Rooms Offline 🔴", board.Title())
	require.Equal(t, "board", board.Name())
}

// TestRefresher_Refresh verifies counts are refreshed and failures keep them.
func TestRefresher_Refresh(t *testing.T) {
	t.Parallel()

	var (
		ctx      = context.Background()
		at       = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
		board    = NewBoard()
		provider = &fakeProvider{snapshot: testSnapshot(at)}
		r        = NewRefresher(provider, board, nil, time.Second)
	)

	detail := r.Refresh(ctx)
	require.Equal(t, Detail{Online: 2, Offline: 1, Total: 3, UpdatedAt: at}, detail)
	require.Equal(t, detail, board.Detail())

	provider.err = errTestListing
	detail = r.Refresh(ctx)
	require.Equal(t, 3, detail.Total)
	require.Equal(t, errTestListing.Error(), detail.LastError)
	require.True(t, detail.UpdatedAt.Equal(at))
}

// TestNewRefresher_DefaultInterval keeps Run usable without a configured interval.
func TestNewRefresher_DefaultInterval(t *testing.T) {
	t.Parallel()

	for _, interval := range []time.Duration{0, -time.Second} {
		r := NewRefresher(&fakeProvider{}, NewBoard(), nil, interval)
		require.Equal(t, config.DefaultRefreshInterval, r.interval)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	board := NewBoard()
	NewRefresher(&fakeProvider{snapshot: testSnapshot(time.Now())}, board, nil, 0).Run(ctx)
	require.Equal(t, 3, board.Detail().Total)
}

// TestRefresher_RunStops verifies Run returns once the context is cancelled.
func TestRefresher_RunStops(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	board := NewBoard()
	r := NewRefresher(&fakeProvider{snapshot: testSnapshot(time.Now())}, board, nil, time.Millisecond)

	done := make(chan struct{})

	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return board.Detail().Total == 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

// TestServer_Routes verifies the JSON endpoints.
func TestServer_Routes(t *testing.T) {
	t.Parallel()

	board := NewBoard()
	require.NoError(t, board.PublishSummary(context.Background(), room.Summary{Online: 1, Total: 1}))
	board.setDetail(Detail{Online: 1, Total: 1})

	episodes := &fakeEpisodes{episodes: []*room.OfflineEpisode{{RoomID: "1", RoomName: "LabA"}}}
	server := httptest.NewServer(NewServer(board, NewHub(board), episodes).Handler())
	t.Cleanup(server.Close)

	var status StatusResponse
	getJSON(t, server.URL+"/status", http.StatusOK, &status)
	require.Equal(t, board.Title(), status.Title)
	require.NotNil(t, status.Summary)
	require.Equal(t, 1, status.Summary.Online)

	var detail Detail
	getJSON(t, server.URL+"/rooms", http.StatusOK, &detail)
	require.Equal(t, 1, detail.Total)

	var got []*room.OfflineEpisode
	getJSON(t, server.URL+"/episodes?limit=5", http.StatusOK, &got)
	require.Len(t, got, 1)
	require.Equal(t, 5, episodes.limit)

	var failure map[string]string
	getJSON(t, server.URL+"/episodes?limit=abc", http.StatusBadRequest, &failure)
	require.Equal(t, errBadLimit.Error(), failure["error"])

	episodes.err = errTestEpisodes
	getJSON(t, server.URL+"/episodes", http.StatusInternalServerError, &failure)
	require.Equal(t, errTestEpisodes.Error(), failure["error"])
}

// TestServer_EpisodesWithoutStore verifies an empty list without a history store.
func TestServer_EpisodesWithoutStore(t *testing.T) {
	t.Parallel()

	board := NewBoard()
	server := httptest.NewServer(NewServer(board, NewHub(board), nil).Handler())
	t.Cleanup(server.Close)

	var got []*room.OfflineEpisode
	getJSON(t, server.URL+"/episodes", http.StatusOK, &got)
	require.Empty(t, got)

	var status StatusResponse
	getJSON(t, server.URL+"/status", http.StatusOK, &status)
	require.Equal(t, LoadingTitle, status.Title)
	require.Nil(t, status.Summary)
}

// TestHub_PushesDetail verifies clients get the current detail on connect and every broadcast.
func TestHub_PushesDetail(t *testing.T) {
	t.Parallel()

	board := NewBoard()
	board.setDetail(Detail{Total: 4, Online: 4})

	hub := NewHub(board)
	server := httptest.NewServer(NewServer(board, hub, nil).Handler())
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	_ = resp.Body.Close()

	t.Cleanup(func() { _ = conn.Close() })

	var detail Detail
	require.NoError(t, conn.ReadJSON(&detail))
	require.Equal(t, 4, detail.Total)

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, time.Millisecond)

	refresher := NewRefresher(&fakeProvider{snapshot: testSnapshot(time.Now())}, board, hub, time.Second)
	refresher.Refresh(context.Background())

	require.NoError(t, conn.ReadJSON(&detail))
	require.Equal(t, 3, detail.Total)
	require.Equal(t, 1, detail.Offline)
}

// TestHealth verifies the serving status follows the loop state.
func TestHealth(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := NewHealth()

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		resp, err := h.server.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		require.NoError(t, err)

		return resp.GetStatus()
	}

	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(ServiceName))

	h.SetRunning(true)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check(ServiceName))
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, check(""))

	h.SetRunning(false)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, check(ServiceName))
}

func getJSON(t *testing.T, url string, wantCode int, out any) {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer func() {
		_ = resp.Body.Close()
	}()

	require.Equal(t, wantCode, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}
