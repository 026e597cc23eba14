package notifier

import (
	"context"
	"strconv"
	"strings"

	"github.com/oshokin/room-monitor/internal/api/webhook"
	"github.com/oshokin/room-monitor/internal/domain/room"
	"github.com/oshokin/room-monitor/internal/eventlog"
	"github.com/oshokin/room-monitor/internal/logger"
	"github.com/oshokin/room-monitor/internal/service/tracker"
)

// ShutdownText is the headline of the shutdown notice.
const ShutdownText = "⚠ Zoom Room Monitoring System is Offline ⚠"

// Sink delivers one message and reports the HTTP status it got back.
type Sink interface {
	Send(ctx context.Context, msg webhook.Message) (int, error)
}

// DeviceLister fetches the current devices of a room.
type DeviceLister interface {
	ListDevices(ctx context.Context, roomID string) ([]room.Device, error)
}

// Recorder writes delivery outcomes to the event log.
type Recorder interface {
	Error(ctx context.Context, event, message string) error
	Delivery(ctx context.Context, event, status string) error
}

// Outcome describes a single delivery attempt.
type Outcome struct {
	// Sent is true when the sink accepted the message.
	Sent bool
	// StatusCode is the HTTP status received, zero without an answer.
	StatusCode int
	// Err is the delivery error, nil when Sent.
	Err error
}

// Dispatcher sends one message per transition.
type Dispatcher struct {
	// sink receives the messages.
	sink Sink
	// devices refreshes the checklist at send time, may be nil.
	devices DeviceLister
	// recorder receives delivery records.
	recorder Recorder
	// hostname is named in the shutdown notice.
	hostname string
}

// New creates a dispatcher. devices may be nil, in which case the event's
// own device list is used for the checklist.
func New(sink Sink, devices DeviceLister, recorder Recorder, hostname string) *Dispatcher {
	return &Dispatcher{
		sink:     sink,
		devices:  devices,
		recorder: recorder,
		hostname: hostname,
	}
}

// Notify sends the message for the event. Delivery failures are recorded and
// returned in the outcome, they never abort the caller.
func (d *Dispatcher) Notify(ctx context.Context, event room.TransitionEvent) Outcome {
	msg := webhook.Message{
		Devices: Checklist(event.Room.Name, d.checklistDevices(ctx, event)),
	}

	switch event.Kind {
	case room.RoomDown:
		msg.Text = event.Room.Name + " is down\n"
		msg.SendEmail = true
	case room.RoomUp:
		msg.Text = event.Room.Name + " is back online! \n\n" + tracker.FormatElapsed(event.ElapsedSeconds) + "\n"
	case room.RoomLost:
		msg.Text = event.Room.Name + " is no longer reported by the room API\n"
	default:
		msg.Text = event.Room.Name + ": " + string(event.Kind) + "\n"
	}

	return d.deliver(ctx, msg)
}

// Shutdown announces that monitoring stopped. reason only goes to the local log.
func (d *Dispatcher) Shutdown(ctx context.Context, reason string) Outcome {
	logger.InfoKV(ctx, "Sending shutdown notice", "reason", reason)

	return d.deliver(ctx, webhook.Message{
		Text:    ShutdownText,
		Devices: "Please check the program on " + d.hostname,
	})
}

// Checklist renders the device list of a room for the message body.
func Checklist(roomName string, devices []room.Device) string {
	var b strings.Builder

	b.WriteString("The devices in ")
	b.WriteString(roomName)
	b.WriteString(":\n")

	for _, device := range devices {
		mark := "❌"
		if device.Online() {
			mark = "✅"
		}

		b.WriteString("\n\n •")
		b.WriteString(mark)
		b.WriteString(" ")
		b.WriteString(device.Type)
		b.WriteString(" — ")
		b.WriteString(string(device.Status))
	}

	return b.String()
}

func (d *Dispatcher) checklistDevices(ctx context.Context, event room.TransitionEvent) []room.Device {
	// A lost room is absent from the listing, its devices cannot be fetched.
	if d.devices == nil || event.Kind == room.RoomLost {
		return event.Devices
	}

	devices, err := d.devices.ListDevices(ctx, event.Room.ID)
	if err != nil {
		logger.WarnKV(ctx, "Falling back to detected devices",
			"room", event.Room.Name,
			"error", err,
		)

		return event.Devices
	}

	return devices
}

func (d *Dispatcher) deliver(ctx context.Context, msg webhook.Message) Outcome {
	code, err := d.sink.Send(ctx, msg)
	if err != nil {
		logger.ErrorKV(ctx, "Message was not delivered",
			"status_code", code,
			"error", err,
		)

		detail := strconv.Itoa(code)
		if code == 0 {
			detail = err.Error()
		}

		d.record(ctx, d.recorder.Error(ctx, eventlog.EventMessageSendingError, detail))
		d.record(ctx, d.recorder.Delivery(ctx, eventlog.EventMessageStatus, eventlog.StatusMessageFailed))

		return Outcome{StatusCode: code, Err: err}
	}

	logger.DebugKV(ctx, "Message delivered", "status_code", code)
	d.record(ctx, d.recorder.Delivery(ctx, eventlog.EventMessageStatus, eventlog.StatusMessageSent))

	return Outcome{Sent: true, StatusCode: code}
}

func (d *Dispatcher) record(ctx context.Context, err error) {
	if err != nil {
		logger.WarnKV(ctx, "Failed to write delivery record", "error", err)
	}
}
