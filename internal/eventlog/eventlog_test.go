package eventlog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/room-monitor/internal/domain/room"
)

var errTestBroker = errors.New("broker unavailable")

// memorySink keeps records in memory.
type memorySink struct {
	// records holds everything written.
	records []Record
	// err is returned from Write when set.
	err error
}

// Write stores the record and returns the configured error.
func (m *memorySink) Write(_ context.Context, record Record) error {
	m.records = append(m.records, record)

	return m.err
}

// fakeKafkaWriter captures messages instead of talking to a broker.
type fakeKafkaWriter struct {
	// messages holds every written message.
	messages []kafka.Message
	// err is returned from WriteMessages when set.
	err error
	// closed records Close calls.
	closed bool
}

// WriteMessages stores the messages.
func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.messages = append(f.messages, msgs...)

	return f.err
}

// Close marks the writer closed.
func (f *fakeKafkaWriter) Close() error {
	f.closed = true

	return nil
}

// stalledKafkaWriter blocks until the caller gives up, like an unreachable broker.
type stalledKafkaWriter struct{}

// WriteMessages waits for the context to end.
func (stalledKafkaWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	<-ctx.Done()

	return ctx.Err()
}

// Close does nothing.
func (stalledKafkaWriter) Close() error { return nil }

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()

	file, err := os.Open(path)
	require.NoError(t, err)

	defer func() {
		_ = file.Close()
	}()

	var lines []map[string]any

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))

		lines = append(lines, line)
	}

	require.NoError(t, scanner.Err())

	return lines
}

func fixedLogger(sink Sink) *Logger {
	loc, _ := time.LoadLocation("America/New_York")
	at := time.Date(2026, 7, 1, 16, 30, 0, 123456000, time.UTC)

	return New(sink,
		WithLocation(loc),
		WithClock(func() time.Time { return at }),
		WithIDGenerator(func() string { return "id-1" }),
	)
}

// TestLogger_RecordShapes checks the fields written for each record type.
func TestLogger_RecordShapes(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.jsonl")

	sink, err := OpenFile(path)
	require.NoError(t, err)

	l := fixedLogger(sink)
	ctx := context.Background()
	elapsed := int64(60)

	require.NoError(t, l.Transition(ctx, room.TransitionEvent{
		Kind: room.RoomUp,
		Room: room.Room{ID: "1", Name: "Lab-A"},
		Devices: []room.Device{
			{Type: "Zoom Rooms Computer", Status: room.StatusOnline},
			{Type: "Controller", Status: room.StatusOnline},
		},
		ElapsedSeconds: &elapsed,
	}))
	require.NoError(t, l.Error(ctx, EventError, "list rooms: connection refused"))
	require.NoError(t, l.Delivery(ctx, EventMessageStatus, StatusMessageFailed))
	require.NoError(t, sink.Close())

	lines := readLines(t, path)
	require.Len(t, lines, 3)

	require.Equal(t, map[string]any{
		"id":              "id-1",
		"timestamp":       "2026-07-01T12:30:00.123456-04:00",
		"event":           "Room Up",
		"room_name":       "Lab-A",
		"room_id":         "1",
		"devices":         "Zoom Rooms Computer - Online, Controller - Online",
		"offline_seconds": float64(60),
	}, lines[0])

	require.Equal(t, map[string]any{
		"id":            "id-1",
		"timestamp":     "2026-07-01T12:30:00.123456-04:00",
		"event":         "Error",
		"error_message": "list rooms: connection refused",
	}, lines[1])

	require.Equal(t, "Message failed to send", lines[2]["message_status"])
	require.NotContains(t, lines[2], "room_id")
}

// TestFileSink_AppendsOnly verifies reopening keeps earlier lines and writes after Close fail.
func TestFileSink_AppendsOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.jsonl")
	ctx := context.Background()

	for range 2 {
		sink, err := OpenFile(path)
		require.NoError(t, err)
		require.Equal(t, path, sink.Path())

		require.NoError(t, New(sink).Error(ctx, EventShutdownRequested, "script was shut off"))
		require.NoError(t, sink.Close())
		require.ErrorIs(t, sink.Write(ctx, &ErrorRecord{}), errSinkClosed)
	}

	lines := readLines(t, path)
	require.Len(t, lines, 2)
	require.NotEqual(t, lines[0]["id"], lines[1]["id"])
}

// TestFileSink_ConcurrentWritersKeepLinesWhole ensures lines never interleave.
func TestFileSink_ConcurrentWritersKeepLinesWhole(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "events.jsonl")

	sink, err := OpenFile(path)
	require.NoError(t, err)

	l := New(sink)

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			_ = l.Delivery(context.Background(), EventMessageStatus, StatusMessageSent)
		})
	}

	wg.Wait()
	require.NoError(t, sink.Close())
	require.Len(t, readLines(t, path), 20)
}

// TestKafkaSink keys messages by event name and wraps broker errors.
func TestKafkaSink(t *testing.T) {
	t.Parallel()

	writer := new(fakeKafkaWriter)
	sink := &KafkaSink{writer: writer}

	require.NoError(t, New(sink).Error(context.Background(), EventError, "boom"))
	require.Len(t, writer.messages, 1)
	require.Equal(t, "Error", string(writer.messages[0].Key))
	require.Contains(t, string(writer.messages[0].Value), `"error_message":"boom"`)

	writer.err = errTestBroker
	require.ErrorIs(t, sink.Write(context.Background(), &ErrorRecord{Event: EventError}), errTestBroker)

	require.NoError(t, sink.Close())
	require.True(t, writer.closed)
}

// TestKafkaSink_UnreachableBrokerIsBounded returns within the write timeout
// even when the caller's context has no deadline.
func TestKafkaSink_UnreachableBrokerIsBounded(t *testing.T) {
	t.Parallel()

	const timeout = 50 * time.Millisecond

	file, err := OpenFile(filepath.Join(t.TempDir(), "events.jsonl"))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = file.Close()
	})

	sink := &KafkaSink{writer: stalledKafkaWriter{}, timeout: timeout}

	started := time.Now()
	err = Multi{file, sink}.Write(context.WithoutCancel(context.Background()), &ErrorRecord{Event: EventError})

	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(started), 20*timeout)
	require.Len(t, readLines(t, file.Path()), 1)
}

// TestMulti writes to every sink even when one fails.
func TestMulti(t *testing.T) {
	t.Parallel()

	failing := &memorySink{err: errTestBroker}
	primary := new(memorySink)

	err := Multi{failing, primary}.Write(context.Background(), &DeliveryRecord{Event: EventMessageStatus})
	require.ErrorIs(t, err, errTestBroker)
	require.Len(t, failing.records, 1)
	require.Len(t, primary.records, 1)

	require.NoError(t, Multi{}.Write(context.Background(), &DeliveryRecord{}))
}

// TestFormatDevices renders the compact device list.
func TestFormatDevices(t *testing.T) {
	t.Parallel()

	require.Empty(t, FormatDevices(nil))
	require.Equal(t, "Controller - Offline", FormatDevices([]room.Device{{Type: "Controller", Status: room.StatusOffline}}))
}
