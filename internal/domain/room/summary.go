package room

import (
	"fmt"
	"time"
)

// Summary is the aggregate online/offline room count.
type Summary struct {
	// Online is the number of rooms not reporting Offline.
	Online int `json:"online"`
	// Offline is the number of rooms reporting Offline.
	Offline int `json:"offline"`
	// Total is the number of listed rooms.
	Total int `json:"total"`
	// UpdatedAt is when the counted listing was taken.
	UpdatedAt time.Time `json:"updated_at"`
}

// Summarize counts rooms by status.
func Summarize(rooms []Room, at time.Time) Summary {
	summary := Summary{
		Total:     len(rooms),
		UpdatedAt: at,
	}

	for _, r := range rooms {
		if r.Status.IsOffline() {
			summary.Offline++
		}
	}

	summary.Online = summary.Total - summary.Offline

	return summary
}

// Title renders the always-visible status line.
func (s Summary) Title() string {
	return fmt.Sprintf("%d - %d Rooms Online 🟢\n%d Rooms Offline 🔴", s.Online, s.Total, s.Offline)
}

// DeviceSummary is the aggregate device count across rooms.
type DeviceSummary struct {
	// Online is the number of devices reporting Online.
	Online int `json:"online"`
	// Offline is the number of other devices.
	Offline int `json:"offline"`
	// Total is the number of devices counted.
	Total int `json:"total"`
}

// Add counts the devices of one room.
func (s *DeviceSummary) Add(devices []Device) {
	for _, d := range devices {
		s.Total++

		if d.Online() {
			s.Online++
		} else {
			s.Offline++
		}
	}
}

// Title renders the device status line.
func (s DeviceSummary) Title() string {
	return fmt.Sprintf("%d - %d Devices Online 🟢\n%d Devices Offline 🔴", s.Online, s.Total, s.Offline)
}
