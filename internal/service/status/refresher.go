package status

import (
	"context"
	"time"

	"github.com/oshokin/room-monitor/internal/config"
	"github.com/oshokin/room-monitor/internal/domain/room"
	"github.com/oshokin/room-monitor/internal/logger"
)

// SnapshotProvider lists rooms.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*room.Snapshot, error)
}

// Refresher periodically refreshes the board detail.
type Refresher struct {
	// rooms provides the listing.
	rooms SnapshotProvider
	// board receives the detail.
	board *Board
	// hub receives every refreshed detail, may be nil.
	hub *Hub
	// interval is the time between refreshes.
	interval time.Duration
}

// NewRefresher creates a refresher. hub may be nil; a non-positive interval
// falls back to config.DefaultRefreshInterval.
func NewRefresher(rooms SnapshotProvider, board *Board, hub *Hub, interval time.Duration) *Refresher {
	if interval <= 0 {
		interval = config.DefaultRefreshInterval
	}

	return &Refresher{
		rooms:    rooms,
		board:    board,
		hub:      hub,
		interval: interval,
	}
}

// Run refreshes immediately and then on every tick until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	ctx = logger.WithName(ctx, "status-refresher")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.Refresh(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Refresh performs one listing and publishes the result. A failed listing
// keeps the previous counts and sets LastError.
func (r *Refresher) Refresh(ctx context.Context) Detail {
	detail := r.board.Detail()

	snapshot, err := r.rooms.Snapshot(ctx)
	if err != nil {
		logger.DebugKV(ctx, "Status refresh failed", "error", err)

		detail.LastError = err.Error()
	} else {
		summary := snapshot.Summary()
		detail = Detail{
			Online:    summary.Online,
			Offline:   summary.Offline,
			Total:     summary.Total,
			UpdatedAt: summary.UpdatedAt,
		}
	}

	r.board.setDetail(detail)

	if r.hub != nil {
		r.hub.Broadcast(ctx, detail)
	}

	return detail
}
