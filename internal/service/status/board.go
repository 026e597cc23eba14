package status

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/oshokin/room-monitor/internal/domain/room"
)

// LoadingTitle is shown until the first summary arrives.
const LoadingTitle = "Loading Zoom Rooms..."

// Detail is the on-demand view produced by the refresher.
type Detail struct {
	// Online is the number of rooms not reporting Offline.
	Online int `json:"online"`
	// Offline is the number of rooms reporting Offline.
	Offline int `json:"offline"`
	// Total is the number of listed rooms.
	Total int `json:"total"`
	// UpdatedAt is when the counts were last refreshed successfully.
	UpdatedAt time.Time `json:"updated_at"`
	// LastError is the error of the latest refresh, empty when it succeeded.
	LastError string `json:"last_error,omitempty"`
}

// Board holds the latest summary and detail. It is safe for concurrent use.
type Board struct {
	// summary is written by the poll loop.
	summary atomic.Pointer[room.Summary]
	// detail is written by the refresher.
	detail atomic.Pointer[Detail]
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{}
}

// Name identifies the board among summary publishers.
func (b *Board) Name() string {
	return "board"
}

// PublishSummary stores the summary. It never fails.
func (b *Board) PublishSummary(_ context.Context, summary room.Summary) error {
	b.summary.Store(&summary)

	return nil
}

// Summary returns the latest summary and whether one was published.
func (b *Board) Summary() (room.Summary, bool) {
	summary := b.summary.Load()
	if summary == nil {
		return room.Summary{}, false
	}

	return *summary, true
}

// Title renders the status line from the latest summary.
func (b *Board) Title() string {
	summary, ok := b.Summary()
	if !ok {
		return LoadingTitle
	}

	return summary.Title()
}

// Detail returns the latest detail, zero before the first refresh.
func (b *Board) Detail() Detail {
	detail := b.detail.Load()
	if detail == nil {
		return Detail{}
	}

	return *detail
}

// setDetail replaces the detail.
func (b *Board) setDetail(detail Detail) {
	b.detail.Store(&detail)
}
