package influx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/room-monitor/internal/domain/room"
)

var errTestWrite = errors.New("bucket not found")

// fakeWriter records points.
type fakeWriter struct {
	// points are the written points.
	points []*write.Point
	// err is returned from WritePoint.
	err error
}

// WritePoint records the points.
func (w *fakeWriter) WritePoint(_ context.Context, point ...*write.Point) error {
	w.points = append(w.points, point...)

	return w.err
}

// TestNewPoint verifies the measurement, fields and timestamp.
func TestNewPoint(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	point := NewPoint(room.Summary{Online: 7, Offline: 3, Total: 10, UpdatedAt: at})

	require.Equal(t, Measurement, point.Name())
	require.True(t, point.Time().Equal(at))

	fields := map[string]any{}
	for _, field := range point.FieldList() {
		fields[field.Key] = field.Value
	}

	require.Equal(t, map[string]any{"online": int64(7), "offline": int64(3), "total": int64(10)}, fields)
}

// TestPublishSummary verifies the write path and error wrapping.
func TestPublishSummary(t *testing.T) {
	t.Parallel()

	writer := &fakeWriter{}
	p := &Publisher{writer: writer}

	require.NoError(t, p.PublishSummary(context.Background(), room.Summary{Total: 1, Online: 1}))
	require.Len(t, writer.points, 1)
	require.NoError(t, p.Close(context.Background()))
	require.Equal(t, "influx", p.Name())

	writer.err = errTestWrite
	require.ErrorIs(t, p.PublishSummary(context.Background(), room.Summary{}), errTestWrite)
}
