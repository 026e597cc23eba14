package integration

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/room-monitor/internal/api/webhook"
)

// fakeZoom serves the rooms, devices and token endpoints from mutable state.
type fakeZoom struct {
	// mu guards the fields below.
	mu sync.Mutex
	// status is the reported status of room "1".
	status string
	// deviceStatus is the status of every device of room "1".
	deviceStatus string
	// roomsCode overrides the rooms answer when non-zero.
	roomsCode int
	// tokenCode overrides the token answer when non-zero.
	tokenCode int
	// listings counts room listings.
	listings int
}

// set changes the room and device status.
func (z *fakeZoom) set(status, deviceStatus string) {
	z.mu.Lock()
	defer z.mu.Unlock()

	z.status = status
	z.deviceStatus = deviceStatus
}

// failToken makes the token endpoint answer code.
func (z *fakeZoom) failToken(code int) {
	z.mu.Lock()
	defer z.mu.Unlock()

	z.tokenCode = code
}

// failRooms makes the rooms endpoint answer code.
func (z *fakeZoom) failRooms(code int) {
	z.mu.Lock()
	defer z.mu.Unlock()

	z.roomsCode = code
}

// listingCount returns the number of room listings served.
func (z *fakeZoom) listingCount() int {
	z.mu.Lock()
	defer z.mu.Unlock()

	return z.listings
}

// ServeHTTP implements http.Handler.
func (z *fakeZoom) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	z.mu.Lock()
	defer z.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/oauth/token":
		if z.tokenCode != 0 {
			w.WriteHeader(z.tokenCode)

			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "test-token", "expires_in": 3600})
	case r.URL.Path == "/v2/rooms":
		z.listings++

		if z.roomsCode != 0 {
			w.WriteHeader(z.roomsCode)

			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"rooms": []map[string]string{
				{"room_id": "1", "name": "Lab-A", "status": z.status},
				{"room_id": "2", "name": "Lab-B", "status": "Available"},
			},
		})
	case strings.HasPrefix(r.URL.Path, "/v2/rooms/") && strings.HasSuffix(r.URL.Path, "/devices"):
		deviceStatus := "Online"
		if strings.Contains(r.URL.Path, "/rooms/1/") {
			deviceStatus = z.deviceStatus
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"devices": []map[string]string{
				{"device_type": "Zoom Rooms Computer", "status": deviceStatus},
				{"device_type": "Controller", "status": "Online"},
			},
		})
	default:
		http.NotFound(w, r)
	}
}

// fakeWebhook records posted messages and answers 202.
type fakeWebhook struct {
	// t reports decode failures.
	t *testing.T
	// mu guards messages.
	mu sync.Mutex
	// messages are the received messages.
	messages []webhook.Message
}

// ServeHTTP implements http.Handler.
func (h *fakeWebhook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var msg webhook.Message
	assert.NoError(h.t, json.NewDecoder(r.Body).Decode(&msg))

	h.mu.Lock()
	h.messages = append(h.messages, msg)
	h.mu.Unlock()

	w.WriteHeader(http.StatusAccepted)
}

// texts returns the headlines received so far.
func (h *fakeWebhook) texts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	texts := make([]string, 0, len(h.messages))
	for _, msg := range h.messages {
		texts = append(texts, msg.Text)
	}

	return texts
}

// startFakes starts the Zoom and webhook servers.
func startFakes(t *testing.T) (*fakeZoom, *httptest.Server, *fakeWebhook, *httptest.Server) {
	t.Helper()

	zoom := &fakeZoom{status: "Available", deviceStatus: "Online"}
	zoomServer := httptest.NewServer(zoom)
	t.Cleanup(zoomServer.Close)

	hook := &fakeWebhook{t: t}
	hookServer := httptest.NewServer(hook)
	t.Cleanup(hookServer.Close)

	return zoom, zoomServer, hook, hookServer
}

// reservePort returns address on a free TCP port and closes it.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// readEvents returns the event names of the JSONL log.
func readEvents(t *testing.T, contents []byte) []string {
	t.Helper()

	var events []string

	for line := range strings.SplitSeq(strings.TrimSpace(string(contents)), "\n") {
		if line == "" {
			continue
		}

		var record map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &record))

		event, _ := record["event"].(string)
		events = append(events, event)
	}

	return events
}
