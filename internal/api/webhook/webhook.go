// Package webhook posts chat notifications to a Power Automate HTTP trigger.
//
// The flow behind the trigger answers 202 Accepted when it took the message;
// every other status is a delivery failure. Nothing is retried here.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oshokin/room-monitor/internal/httpkit"
)

// payloadStatus is the constant status field the flow expects.
const payloadStatus = "OK"

// maxErrorBody limits how much of an error body is kept.
const maxErrorBody = 1 << 10

var (
	// ErrDelivery marks a message the sink did not accept.
	ErrDelivery = errors.New("message delivery failed")
	// errURLRequired is returned when the sink URL is missing.
	errURLRequired = errors.New("webhook url must be provided")
)

// Message is one notification.
type Message struct {
	// Text is the headline, e.g. "Lab-A is down".
	Text string `json:"msg"`
	// Devices is the rendered device checklist or extra detail.
	Devices string `json:"devices"`
	// SendEmail asks the flow to e-mail the message as well.
	SendEmail bool `json:"send_email"`
	// Status is always "OK".
	Status string `json:"status"`
}

// DeliveryError carries the status code of a rejected message.
type DeliveryError struct {
	// StatusCode is the HTTP status returned by the sink.
	StatusCode int
	// Body is the beginning of the response body.
	Body string
}

// Error implements error.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("sink answered %d: %s", e.StatusCode, e.Body)
}

// Unwrap lets errors.Is match ErrDelivery.
func (e *DeliveryError) Unwrap() error {
	return ErrDelivery
}

// Client posts messages to one sink URL.
type Client struct {
	// url is the HTTP trigger.
	url string
	// httpClient performs the request.
	httpClient *http.Client
}

// NewClient creates a client for the sink URL; timeout bounds each POST.
func NewClient(url string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errURLRequired
	}

	return &Client{
		url:        url,
		httpClient: httpkit.NewClient(timeout),
	}, nil
}

// Send posts the message once. It returns the HTTP status code received
// (zero when no answer arrived) and an error unless the answer was 202.
func (c *Client) Send(ctx context.Context, msg Message) (int, error) {
	msg.Status = payloadStatus

	body, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("post message: %w: %w", ErrDelivery, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusAccepted {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		return resp.StatusCode, &DeliveryError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(respBody)),
		}
	}

	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}
