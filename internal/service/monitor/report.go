package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/oshokin/room-monitor/internal/api/zoom"
	"github.com/oshokin/room-monitor/internal/config"
	"github.com/oshokin/room-monitor/internal/domain/room"
	"github.com/oshokin/room-monitor/internal/logger"
	"github.com/oshokin/room-monitor/internal/repository/history"
	"github.com/oshokin/room-monitor/internal/service/tracker"
)

// ErrNoHistory is returned when episodes are requested without a history database.
var ErrNoHistory = errors.New("history_db is not configured")

// ReportOptions controls the one-shot report commands.
type ReportOptions struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Devices adds device counts to the summary.
	Devices bool
	// Limit bounds the number of episodes printed.
	Limit int
}

// DeviceLister fetches the current devices of a room.
type DeviceLister interface {
	ListDevices(ctx context.Context, roomID string) ([]room.Device, error)
}

// Summary fetches the room listing once and prints the status title.
func Summary(ctx context.Context, opts *ReportOptions, w io.Writer) error {
	ctx = logger.WithName(ctx, "summary")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	token, err := resolveToken(ctx, cfg)
	if err != nil {
		return err
	}

	client, err := zoom.NewClient(cfg.Zoom.BaseURL, token, zoom.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("create zoom client: %w", err)
	}

	snapshot, err := client.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}

	return WriteSummary(ctx, w, snapshot, client, opts.Devices)
}

// WriteSummary prints the room title and, when devices is set, the device
// title. Rooms whose devices cannot be fetched are skipped.
func WriteSummary(ctx context.Context, w io.Writer, snapshot *room.Snapshot, lister DeviceLister, devices bool) error {
	if _, err := fmt.Fprintln(w, snapshot.Summary().Title()); err != nil {
		return err
	}

	if !devices {
		return nil
	}

	var counts room.DeviceSummary

	for _, r := range snapshot.Rooms {
		roomDevices, err := lister.ListDevices(ctx, r.ID)
		if err != nil {
			logger.WarnKV(ctx, "Skipping room", "room", r.Name, "error", err)

			continue
		}

		counts.Add(roomDevices)
	}

	_, err := fmt.Fprintln(w, counts.Title())

	return err
}

// Episodes prints the most recent offline episodes from the history database.
func Episodes(ctx context.Context, opts *ReportOptions, w io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if cfg.HistoryDB == "" {
		return ErrNoHistory
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}

	defer func() {
		_ = store.Close()
	}()

	episodes, err := store.Recent(ctx, opts.Limit)
	if err != nil {
		return err
	}

	return WriteEpisodes(w, episodes, cfg.EventLog.Location())
}

// WriteEpisodes prints episodes as an aligned table.
func WriteEpisodes(w io.Writer, episodes []*room.OfflineEpisode, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(tw, "ROOM\tSTART\tSTOP\tDURATION")

	for _, episode := range episodes {
		stop := "-"

		switch {
		case episode.Stop != nil && episode.Lost:
			stop = episode.Stop.In(loc).Format(time.DateTime) + " (lost)"
		case episode.Stop != nil:
			stop = episode.Stop.In(loc).Format(time.DateTime)
		}

		duration := "open"
		if episode.ElapsedSeconds != nil {
			duration = tracker.FormatDuration(*episode.ElapsedSeconds)
		}

		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			episode.RoomName,
			episode.Start.In(loc).Format(time.DateTime),
			stop,
			duration,
		)
	}

	return tw.Flush()
}
