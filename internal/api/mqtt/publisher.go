package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"

	"github.com/oshokin/room-monitor/internal/config"
	"github.com/oshokin/room-monitor/internal/domain/room"
	"github.com/oshokin/room-monitor/internal/logger"
)

const (
	// keepAlive is the MQTT keep-alive in seconds.
	keepAlive = 30
	// connectTimeout bounds the wait for the first connection.
	connectTimeout = 10 * time.Second
)

// connection is the part of autopaho.ConnectionManager the publisher uses.
type connection interface {
	Publish(ctx context.Context, publish *paho.Publish) (*paho.PublishResponse, error)
	Disconnect(ctx context.Context) error
}

// Publisher sends summaries to one topic.
type Publisher struct {
	// conn is the broker connection.
	conn connection
	// topic receives the summary.
	topic string
}

// Connect dials the broker and returns once connected or after a short
// timeout; autopaho keeps retrying in the background either way.
func Connect(ctx context.Context, cfg config.MQTTConfig) (*Publisher, error) {
	brokerURL, err := url.Parse(cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("parse mqtt broker url: %w", err)
	}

	ctx = logger.WithName(ctx, "mqtt")

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = fmt.Sprintf("room-monitor-%d", time.Now().UnixNano())
	}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       keepAlive,
		ConnectUsername: cfg.Username,
		ConnectPassword: []byte(cfg.Password),
		OnConnectionUp: func(*autopaho.ConnectionManager, *paho.Connack) {
			logger.InfoKV(ctx, "Connected to broker", "broker", cfg.Broker)
		},
		OnConnectError: func(err error) {
			logger.WarnKV(ctx, "Broker connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: clientID,
		},
	}

	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		pahoCfg.TlsCfg = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err = cm.AwaitConnection(connCtx); err != nil {
		logger.WarnKV(ctx, "Initial broker connection timed out, retrying in background", "error", err)
	}

	return newPublisher(cm, cfg.Topic), nil
}

func newPublisher(conn connection, topic string) *Publisher {
	if topic == "" {
		topic = config.DefaultMQTTTopic
	}

	return &Publisher{
		conn:  conn,
		topic: topic,
	}
}

// Name identifies the publisher in logs.
func (p *Publisher) Name() string {
	return "mqtt"
}

// PublishSummary publishes the summary as retained JSON with QoS 1.
func (p *Publisher) PublishSummary(ctx context.Context, summary room.Summary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	if _, err = p.conn.Publish(ctx, &paho.Publish{
		Topic:   p.topic,
		Payload: payload,
		QoS:     1,
		Retain:  true,
	}); err != nil {
		return fmt.Errorf("publish summary: %w", err)
	}

	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close(ctx context.Context) error {
	return p.conn.Disconnect(ctx)
}
