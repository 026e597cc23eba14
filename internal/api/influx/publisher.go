package influx

import (
	"context"
	"fmt"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/oshokin/room-monitor/internal/config"
	"github.com/oshokin/room-monitor/internal/domain/room"
)

// Measurement is the point name written for each summary.
const Measurement = "room_summary"

// pointWriter is the part of api.WriteAPIBlocking the publisher uses.
type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Publisher writes summaries to one bucket.
type Publisher struct {
	// client owns the HTTP connections, nil in tests.
	client influxdb2.Client
	// writer performs blocking writes.
	writer pointWriter
}

// New creates a publisher for the configured server and bucket.
func New(cfg config.InfluxConfig) *Publisher {
	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	return &Publisher{
		client: client,
		writer: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
	}
}

// Name identifies the publisher in logs.
func (p *Publisher) Name() string {
	return "influx"
}

// PublishSummary writes one point with online, offline and total fields.
func (p *Publisher) PublishSummary(ctx context.Context, summary room.Summary) error {
	if err := p.writer.WritePoint(ctx, NewPoint(summary)); err != nil {
		return fmt.Errorf("write summary point: %w", err)
	}

	return nil
}

// Close releases the client.
func (p *Publisher) Close(context.Context) error {
	if p.client != nil {
		p.client.Close()
	}

	return nil
}

// NewPoint converts a summary to a point stamped with the listing time.
func NewPoint(summary room.Summary) *write.Point {
	return write.NewPoint(Measurement, nil, map[string]any{
		"online":  summary.Online,
		"offline": summary.Offline,
		"total":   summary.Total,
	}, summary.UpdatedAt)
}
