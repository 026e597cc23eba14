package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	// Embed the zone database so event timestamps work on hosts without tzdata.
	_ "time/tzdata"
)

// Config holds every setting of the room monitor.
type Config struct {
	// Zoom configures the room API.
	Zoom ZoomConfig `yaml:"zoom"`
	// Webhook configures the chat notification sink.
	Webhook WebhookConfig `yaml:"webhook"`
	// EventLog configures the append-only event log.
	EventLog EventLogConfig `yaml:"event_log"`
	// Monitor configures the poll loop.
	Monitor MonitorConfig `yaml:"monitor"`
	// Status configures the optional status surface.
	Status StatusConfig `yaml:"status"`
	// MQTT configures the optional MQTT summary publisher.
	MQTT MQTTConfig `yaml:"mqtt"`
	// Influx configures the optional InfluxDB summary publisher.
	Influx InfluxConfig `yaml:"influx"`
	// StateFile is the JSON file keeping tracked rooms across restarts. Empty disables it.
	StateFile string `yaml:"state_file"`
	// HistoryDB is the SQLite file recording offline episodes. Empty disables it.
	HistoryDB string `yaml:"history_db"`
	// Timeout bounds every outbound HTTP call.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the console log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// ZoomConfig holds the room API endpoints and credentials.
type ZoomConfig struct {
	// BaseURL is the REST API root, e.g. https://api.zoom.us/v2.
	BaseURL string `yaml:"base_url"`
	// OAuthURL is the server-to-server token endpoint.
	OAuthURL string `yaml:"oauth_url"`
	// AccountID is the Zoom account id for the account_credentials grant.
	AccountID string `yaml:"account_id"`
	// ClientID is the OAuth client id.
	ClientID string `yaml:"client_id"`
	// ClientSecret is the OAuth client secret.
	ClientSecret string `yaml:"client_secret"`
	// AccessToken skips the OAuth exchange when set.
	AccessToken string `yaml:"access_token"`
}

// WebhookConfig holds the notification sink endpoint.
type WebhookConfig struct {
	// URL is the Power Automate HTTP trigger.
	URL string `yaml:"url"`
}

// EventLogConfig holds the event log settings.
type EventLogConfig struct {
	// Path is the JSONL file appended to.
	Path string `yaml:"path"`
	// Timezone is the IANA zone used for record timestamps.
	Timezone string `yaml:"timezone"`
	// KafkaBrokers optionally mirrors every record to Kafka.
	KafkaBrokers []string `yaml:"kafka_brokers"`
	// KafkaTopic is the mirror topic.
	KafkaTopic string `yaml:"kafka_topic"`
}

// MonitorConfig holds the poll loop settings.
type MonitorConfig struct {
	// PollInterval is the fixed sleep between cycles.
	PollInterval time.Duration `yaml:"poll_interval"`
	// SummaryEvery publishes the room summary every N cycles.
	SummaryEvery int `yaml:"summary_every"`
	// LostAfterCycles force-closes episodes of rooms missing this many cycles.
	// Zero means the default, a negative value keeps them open forever.
	LostAfterCycles int `yaml:"lost_after_cycles"`
}

// StatusConfig holds the status surface settings.
type StatusConfig struct {
	// ListenAddress serves HTTP status and WebSocket updates. Empty disables it.
	ListenAddress string `yaml:"listen_address"`
	// GRPCAddress serves the gRPC health service. Empty disables it.
	GRPCAddress string `yaml:"grpc_address"`
	// RefreshInterval is how often the status surface refetches rooms.
	RefreshInterval time.Duration `yaml:"refresh_interval"`
}

// MQTTConfig holds the MQTT publisher settings.
type MQTTConfig struct {
	// Broker is the broker URL (mqtt://, mqtts://). Empty disables MQTT.
	Broker string `yaml:"broker"`
	// Topic receives the retained summary.
	Topic string `yaml:"topic"`
	// ClientID identifies this monitor to the broker.
	ClientID string `yaml:"client_id"`
	// Username is optional.
	Username string `yaml:"username"`
	// Password is optional.
	Password string `yaml:"password"`
}

// InfluxConfig holds the InfluxDB publisher settings.
type InfluxConfig struct {
	// URL is the InfluxDB server. Empty disables it.
	URL string `yaml:"url"`
	// Token authenticates writes.
	Token string `yaml:"token"`
	// Org is the organisation name.
	Org string `yaml:"org"`
	// Bucket receives the points.
	Bucket string `yaml:"bucket"`
}

const (
	// DefaultConfigFilename is the default settings filename.
	DefaultConfigFilename = "room-monitor-settings.yaml"

	// DefaultEventLogFilename is where events are appended by default.
	DefaultEventLogFilename = "zoom_room_events.jsonl"

	// DefaultTimezone stamps event log records.
	DefaultTimezone = "America/New_York"

	// DefaultZoomBaseURL is the public Zoom REST root.
	DefaultZoomBaseURL = "https://api.zoom.us/v2"

	// DefaultZoomOAuthURL is the public Zoom token endpoint.
	DefaultZoomOAuthURL = "https://zoom.us/oauth/token"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 15 * time.Second

	// DefaultPollInterval is the fixed sleep between poll cycles.
	DefaultPollInterval = 5 * time.Second

	// DefaultSummaryEvery publishes the summary roughly once a minute.
	DefaultSummaryEvery = 12

	// DefaultLostAfterCycles matches one minute of polling.
	DefaultLostAfterCycles = 12

	// DefaultRefreshInterval is the status surface refresh period.
	DefaultRefreshInterval = 5 * time.Second

	// DefaultMQTTTopic receives the summary.
	DefaultMQTTTopic = "room-monitor/summary"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errWebhookRequired is returned when the notification URL is missing.
	errWebhookRequired = errors.New("webhook url must be provided")
	// errCredentialsRequired is returned when neither a token nor OAuth credentials are set.
	errCredentialsRequired = errors.New("zoom access token or account id, client id and client secret must be provided")
	// errKafkaTopicRequired is returned when Kafka brokers are set without a topic.
	errKafkaTopicRequired = errors.New("kafka topic must be provided with kafka brokers")
	// errInfluxIncomplete is returned when the InfluxDB URL is set without org or bucket.
	errInfluxIncomplete = errors.New("influx org and bucket must be provided with influx url")
)

// Load reads configuration from the provided path, applies environment
// overrides and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	ApplyEnv(&cfg, os.Getenv)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions, the file may hold secrets.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// ApplyEnv overrides secrets from the environment when the variables are set.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	overrides := map[string]*string{
		"ZOOM_ACCOUNT_ID":      &cfg.Zoom.AccountID,
		"ZOOM_CLIENT_ID":       &cfg.Zoom.ClientID,
		"ZOOM_CLIENT_SECRET":   &cfg.Zoom.ClientSecret,
		"ZOOM_ACCESS_TOKEN":    &cfg.Zoom.AccessToken,
		"MSPOWERAUTOMATE_LINK": &cfg.Webhook.URL,
	}

	for name, target := range overrides {
		if value := getenv(name); value != "" {
			*target = value
		}
	}
}

// Validate checks required fields, fills defaults and normalises values.
//
//nolint:cyclop,funlen // A flat list of checks is easier to follow than helpers.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	// Values pasted from cmd.exe often keep the ^ escape character.
	cfg.Webhook.URL = strings.ReplaceAll(strings.TrimSpace(cfg.Webhook.URL), "^", "")
	if cfg.Webhook.URL == "" {
		return errWebhookRequired
	}

	if err := validateURL("webhook url", cfg.Webhook.URL); err != nil {
		return err
	}

	if cfg.Zoom.AccessToken == "" &&
		(cfg.Zoom.AccountID == "" || cfg.Zoom.ClientID == "" || cfg.Zoom.ClientSecret == "") {
		return errCredentialsRequired
	}

	if cfg.Zoom.BaseURL == "" {
		cfg.Zoom.BaseURL = DefaultZoomBaseURL
	}

	if err := validateURL("zoom base url", cfg.Zoom.BaseURL); err != nil {
		return err
	}

	if cfg.Zoom.OAuthURL == "" {
		cfg.Zoom.OAuthURL = DefaultZoomOAuthURL
	}

	if err := validateURL("zoom oauth url", cfg.Zoom.OAuthURL); err != nil {
		return err
	}

	if cfg.EventLog.Path == "" {
		cfg.EventLog.Path = DefaultEventLogFilename
	}

	if cfg.EventLog.Timezone == "" {
		cfg.EventLog.Timezone = DefaultTimezone
	}

	if _, err := time.LoadLocation(cfg.EventLog.Timezone); err != nil {
		return fmt.Errorf("invalid event log timezone: %w", err)
	}

	if len(cfg.EventLog.KafkaBrokers) > 0 && cfg.EventLog.KafkaTopic == "" {
		return errKafkaTopicRequired
	}

	// Set defaults for the poll loop.
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.Monitor.PollInterval <= 0 {
		cfg.Monitor.PollInterval = DefaultPollInterval
	}

	if cfg.Monitor.SummaryEvery <= 0 {
		cfg.Monitor.SummaryEvery = DefaultSummaryEvery
	}

	if cfg.Monitor.LostAfterCycles == 0 {
		cfg.Monitor.LostAfterCycles = DefaultLostAfterCycles
	}

	if cfg.Status.RefreshInterval <= 0 {
		cfg.Status.RefreshInterval = DefaultRefreshInterval
	}

	if cfg.MQTT.Broker != "" {
		if err := validateURL("mqtt broker", cfg.MQTT.Broker); err != nil {
			return err
		}

		if cfg.MQTT.Topic == "" {
			cfg.MQTT.Topic = DefaultMQTTTopic
		}
	}

	if cfg.Influx.URL != "" {
		if err := validateURL("influx url", cfg.Influx.URL); err != nil {
			return err
		}

		if cfg.Influx.Org == "" || cfg.Influx.Bucket == "" {
			return errInfluxIncomplete
		}
	}

	return nil
}

// EffectiveLostAfterCycles returns the effective missed-listing limit, zero meaning never.
func (m MonitorConfig) EffectiveLostAfterCycles() int {
	if m.LostAfterCycles < 0 {
		return 0
	}

	return m.LostAfterCycles
}

// Location returns the event log timezone, falling back to UTC.
func (e EventLogConfig) Location() *time.Location {
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}

	return loc
}

func validateURL(name, raw string) error {
	if _, err := url.ParseRequestURI(raw); err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}

	return nil
}
