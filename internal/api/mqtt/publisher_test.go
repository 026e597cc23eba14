package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/eclipse/paho.golang/paho"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/room-monitor/internal/config"
	"github.com/oshokin/room-monitor/internal/domain/room"
)

var errTestBroker = errors.New("broker gone")

// fakeConnection records publishes.
type fakeConnection struct {
	// published are the messages sent.
	published []*paho.Publish
	// err is returned from Publish.
	err error
	// disconnected is set by Disconnect.
	disconnected bool
}

// Publish records the message.
func (c *fakeConnection) Publish(_ context.Context, publish *paho.Publish) (*paho.PublishResponse, error) {
	c.published = append(c.published, publish)

	return &paho.PublishResponse{}, c.err
}

// Disconnect marks the connection closed.
func (c *fakeConnection) Disconnect(context.Context) error {
	c.disconnected = true

	return nil
}

// TestPublishSummary verifies the retained QoS 1 JSON payload.
func TestPublishSummary(t *testing.T) {
	t.Parallel()

	conn := &fakeConnection{}
	p := newPublisher(conn, "")
	summary := room.Summary{Online: 9, Offline: 1, Total: 10, UpdatedAt: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)}

	require.NoError(t, p.PublishSummary(context.Background(), summary))
	require.Len(t, conn.published, 1)

	msg := conn.published[0]
	require.Equal(t, config.DefaultMQTTTopic, msg.Topic)
	require.Equal(t, byte(1), msg.QoS)
	require.True(t, msg.Retain)

	var got room.Summary
	require.NoError(t, json.Unmarshal(msg.Payload, &got))
	require.Equal(t, summary, got)

	require.NoError(t, p.Close(context.Background()))
	require.True(t, conn.disconnected)
	require.Equal(t, "mqtt", p.Name())
}

// TestPublishSummary_Error verifies broker errors are wrapped.
func TestPublishSummary_Error(t *testing.T) {
	t.Parallel()

	p := newPublisher(&fakeConnection{err: errTestBroker}, "rooms")
	require.ErrorIs(t, p.PublishSummary(context.Background(), room.Summary{}), errTestBroker)
}
