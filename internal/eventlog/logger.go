package eventlog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/room-monitor/internal/domain/room"
)

// TimestampLayout is ISO-8601 with microseconds and the zone offset.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// Sink stores encoded records.
type Sink interface {
	Write(ctx context.Context, record Record) error
}

// Logger builds records and hands them to a sink.
type Logger struct {
	// sink receives every record.
	sink Sink
	// location is the fixed zone used for timestamps.
	location *time.Location
	// now returns the current time.
	now func() time.Time
	// newID returns a unique record id.
	newID func() string
}

// Option configures a Logger.
type Option func(*Logger)

// WithLocation sets the timestamp zone.
func WithLocation(loc *time.Location) Option {
	return func(l *Logger) {
		if loc != nil {
			l.location = loc
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDGenerator replaces the random record id generator.
func WithIDGenerator(newID func() string) Option {
	return func(l *Logger) {
		if newID != nil {
			l.newID = newID
		}
	}
}

// New creates a logger writing to sink with UTC timestamps by default.
func New(sink Sink, opts ...Option) *Logger {
	l := &Logger{
		sink:     sink,
		location: time.UTC,
		now:      time.Now,
		newID:    uuid.NewString,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Transition records a room transition.
func (l *Logger) Transition(ctx context.Context, event room.TransitionEvent) error {
	return l.sink.Write(ctx, &TransitionRecord{
		ID:             l.newID(),
		Timestamp:      l.timestamp(),
		Event:          string(event.Kind),
		RoomName:       event.Room.Name,
		RoomID:         event.Room.ID,
		Devices:        FormatDevices(event.Devices),
		OfflineSeconds: event.ElapsedSeconds,
	})
}

// Error records a failure or a shutdown request.
func (l *Logger) Error(ctx context.Context, event, message string) error {
	return l.sink.Write(ctx, &ErrorRecord{
		ID:           l.newID(),
		Timestamp:    l.timestamp(),
		Event:        event,
		ErrorMessage: message,
	})
}

// Delivery records a notification outcome.
func (l *Logger) Delivery(ctx context.Context, event, status string) error {
	return l.sink.Write(ctx, &DeliveryRecord{
		ID:            l.newID(),
		Timestamp:     l.timestamp(),
		Event:         event,
		MessageStatus: status,
	})
}

func (l *Logger) timestamp() string {
	return l.now().In(l.location).Format(TimestampLayout)
}
