package zoom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oshokin/room-monitor/internal/domain/room"
	"github.com/oshokin/room-monitor/internal/httpkit"
)

const (
	// DefaultPageSize is the largest page the rooms endpoint accepts.
	DefaultPageSize = 300

	// defaultCallTimeout bounds a single API call when no option overrides it.
	defaultCallTimeout = 15 * time.Second

	// maxErrorBody limits how much of an error body is kept.
	maxErrorBody = 1 << 10

	// maxPages stops runaway pagination on a misbehaving API.
	maxPages = 100
)

var (
	// errBaseURLRequired is returned when the API root is missing.
	errBaseURLRequired = errors.New("base url must be provided")
	// errTokenRequired is returned when no access token is supplied.
	errTokenRequired = errors.New("access token must be provided")
	// errRoomIDRequired is returned when devices are requested without a room id.
	errRoomIDRequired = errors.New("room id must be provided")
	// errTooManyPages is returned when pagination does not terminate.
	errTooManyPages = errors.New("too many pages in room listing")
)

// Client wraps the Zoom Rooms REST API.
type Client struct {
	// baseURL is the API root without a trailing slash.
	baseURL string
	// token is the bearer access token.
	token string
	// httpClient performs the requests.
	httpClient *http.Client
	// callTimeout is the default timeout for individual API calls.
	callTimeout time.Duration
	// pageSize is the rooms page size.
	pageSize int
	// now stamps snapshots.
	now func() time.Time
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for API calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithHTTPClient replaces the shared HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithPageSize sets the rooms page size.
func WithPageSize(size int) Option {
	return func(c *Client) {
		if size > 0 {
			c.pageSize = size
		}
	}
}

// WithClock replaces time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL, token string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errBaseURLRequired
	}

	if token == "" {
		return nil, errTokenRequired
	}

	c := &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		httpClient:  httpkit.NewClient(0),
		callTimeout: defaultCallTimeout,
		pageSize:    DefaultPageSize,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// roomsResponse is one page of GET /rooms.
type roomsResponse struct {
	Rooms []struct {
		ID     string `json:"id"`
		RoomID string `json:"room_id"`
		Name   string `json:"name"`
		Status string `json:"status"`
	} `json:"rooms"`
	NextPageToken string `json:"next_page_token"`
}

// devicesResponse is GET /rooms/{roomId}/devices.
type devicesResponse struct {
	Devices []struct {
		DeviceType string `json:"device_type"`
		Status     string `json:"status"`
	} `json:"devices"`
}

// Snapshot lists every room and stamps the result.
func (c *Client) Snapshot(ctx context.Context) (*room.Snapshot, error) {
	rooms, err := c.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	return &room.Snapshot{
		Rooms:   rooms,
		TakenAt: c.now(),
	}, nil
}

// ListRooms returns every room, following next_page_token.
func (c *Client) ListRooms(ctx context.Context) ([]room.Room, error) {
	var (
		rooms     []room.Room
		pageToken string
	)

	for range maxPages {
		query := url.Values{}
		query.Set("page_size", strconv.Itoa(c.pageSize))

		if pageToken != "" {
			query.Set("next_page_token", pageToken)
		}

		var page roomsResponse
		if err := c.get(ctx, "list rooms", "/rooms?"+query.Encode(), &page); err != nil {
			return nil, err
		}

		for _, r := range page.Rooms {
			id := r.RoomID
			if id == "" {
				id = r.ID
			}

			rooms = append(rooms, room.Room{
				ID:     id,
				Name:   r.Name,
				Status: room.Status(r.Status),
			})
		}

		if page.NextPageToken == "" {
			return rooms, nil
		}

		pageToken = page.NextPageToken
	}

	return nil, errTooManyPages
}

// ListDevices returns the devices of a room.
func (c *Client) ListDevices(ctx context.Context, roomID string) ([]room.Device, error) {
	if roomID == "" {
		return nil, errRoomIDRequired
	}

	var resp devicesResponse
	if err := c.get(ctx, "list devices", "/rooms/"+url.PathEscape(roomID)+"/devices", &resp); err != nil {
		return nil, err
	}

	devices := make([]room.Device, 0, len(resp.Devices))
	for _, d := range resp.Devices {
		devices = append(devices, room.Device{
			Type:   d.DeviceType,
			Status: room.Status(d.Status),
		})
	}

	return devices, nil
}

func (c *Client) get(ctx context.Context, op, path string, out any) error {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return newStatusError(op, resp, ErrProvider)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	return nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}

func newStatusError(op string, resp *http.Response, kind error) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
		kind:       kind,
	}
}
