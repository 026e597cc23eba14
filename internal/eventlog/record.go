package eventlog

import (
	"strings"

	"github.com/oshokin/room-monitor/internal/domain/room"
)

// Event names written to the log.
const (
	// EventError is written for a failed poll cycle.
	EventError = "Error"
	// EventShutdownRequested is written when the operator stops the monitor.
	EventShutdownRequested = "shutdown_requested"
	// EventMessageStatus is written after every notification attempt.
	EventMessageStatus = "Message Status"
	// EventMessageSendingError is written when the sink rejected a notification.
	EventMessageSendingError = "Message Sending Error"
)

// Delivery statuses written with EventMessageStatus.
const (
	// StatusMessageSent means the sink accepted the notification.
	StatusMessageSent = "Message Sent"
	// StatusMessageFailed means the notification was not accepted.
	StatusMessageFailed = "Message failed to send"
)

// Record is one line of the event log.
type Record interface {
	// EventName is the value of the "event" field.
	EventName() string
}

// TransitionRecord is written for RoomDown, RoomUp and RoomLost.
type TransitionRecord struct {
	// ID is a random record identifier.
	ID string `json:"id"`
	// Timestamp is the local time in the configured zone.
	Timestamp string `json:"timestamp"`
	// Event is "Room Down", "Room Up" or "Room Lost".
	Event string `json:"event"`
	// RoomName is the human-readable room name.
	RoomName string `json:"room_name"`
	// RoomID is the provider's room identifier.
	RoomID string `json:"room_id"`
	// Devices is the compact list from FormatDevices.
	Devices string `json:"devices"`
	// OfflineSeconds is set when an episode closes.
	OfflineSeconds *int64 `json:"offline_seconds,omitempty"`
}

// EventName implements Record.
func (r *TransitionRecord) EventName() string { return r.Event }

// ErrorRecord is written for failures and shutdown requests.
type ErrorRecord struct {
	// ID is a random record identifier.
	ID string `json:"id"`
	// Timestamp is the local time in the configured zone.
	Timestamp string `json:"timestamp"`
	// Event is EventError, EventShutdownRequested or EventMessageSendingError.
	Event string `json:"event"`
	// ErrorMessage describes the failure.
	ErrorMessage string `json:"error_message"`
}

// EventName implements Record.
func (r *ErrorRecord) EventName() string { return r.Event }

// DeliveryRecord is written after a notification attempt.
type DeliveryRecord struct {
	// ID is a random record identifier.
	ID string `json:"id"`
	// Timestamp is the local time in the configured zone.
	Timestamp string `json:"timestamp"`
	// Event is EventMessageStatus.
	Event string `json:"event"`
	// MessageStatus is StatusMessageSent or StatusMessageFailed.
	MessageStatus string `json:"message_status"`
}

// EventName implements Record.
func (r *DeliveryRecord) EventName() string { return r.Event }

// FormatDevices renders devices as "type - status, type - status".
func FormatDevices(devices []room.Device) string {
	parts := make([]string, 0, len(devices))
	for _, d := range devices {
		parts = append(parts, d.Type+" - "+string(d.Status))
	}

	return strings.Join(parts, ", ")
}
