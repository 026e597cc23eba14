package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/oshokin/room-monitor/internal/api/influx"
	"github.com/oshokin/room-monitor/internal/api/mqtt"
	"github.com/oshokin/room-monitor/internal/api/webhook"
	"github.com/oshokin/room-monitor/internal/api/zoom"
	"github.com/oshokin/room-monitor/internal/config"
	"github.com/oshokin/room-monitor/internal/eventlog"
	"github.com/oshokin/room-monitor/internal/httpkit"
	"github.com/oshokin/room-monitor/internal/logger"
	"github.com/oshokin/room-monitor/internal/repository/history"
	"github.com/oshokin/room-monitor/internal/repository/state"
	"github.com/oshokin/room-monitor/internal/service/common"
	"github.com/oshokin/room-monitor/internal/service/detector"
	"github.com/oshokin/room-monitor/internal/service/notifier"
	"github.com/oshokin/room-monitor/internal/service/status"
	"github.com/oshokin/room-monitor/internal/service/tracker"
)

// Options controls the room-monitor process.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// Force skips the single-instance guard.
	Force bool
	// LogLevel overrides the configured log level when set.
	LogLevel string
}

// errInvalidLogLevel is returned for an unknown log level name.
var errInvalidLogLevel = errors.New("invalid log level")

// closer releases a resource on shutdown.
type closer func(ctx context.Context) error

// Run loads the configuration, wires every collaborator and polls until ctx
// is cancelled or the loop fails.
//
//nolint:cyclop,funlen // Wiring reads best top to bottom.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "room-monitor")

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err = applyLogLevel(opts.LogLevel, cfg.LogLevel); err != nil {
		return err
	}

	if !opts.Force {
		if err = common.EnsureSingleInstance(""); err != nil {
			return err
		}
	}

	host, err := common.DetectHost()
	if err != nil {
		return fmt.Errorf("detect host: %w", err)
	}

	var closers []closer

	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)
		for i := len(closers) - 1; i >= 0; i-- {
			if closeErr := closers[i](shutdownCtx); closeErr != nil {
				logger.WarnKV(ctx, "Close failed", "error", closeErr)
			}
		}
	}()

	sink, sinkClosers, err := openEventLog(cfg.EventLog)
	if err != nil {
		return err
	}

	closers = append(closers, sinkClosers...)
	events := eventlog.New(sink, eventlog.WithLocation(cfg.EventLog.Location()))

	webhookClient, err := webhook.NewClient(cfg.Webhook.URL, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("create webhook client: %w", err)
	}

	token, err := resolveToken(ctx, cfg)
	if err != nil {
		startupFailed(ctx, events, notifier.New(webhookClient, nil, events, host.Hostname), err)

		return err
	}

	zoomClient, err := zoom.NewClient(cfg.Zoom.BaseURL, token, zoom.WithCallTimeout(cfg.Timeout))
	if err != nil {
		return fmt.Errorf("create zoom client: %w", err)
	}

	dispatcher := notifier.New(webhookClient, zoomClient, events, host.Hostname)
	episodes := tracker.New()
	schedulerOpts := []Option{
		WithInterval(cfg.Monitor.PollInterval),
		WithSummaryEvery(cfg.Monitor.SummaryEvery),
	}

	if cfg.StateFile != "" {
		repo := state.NewFileRepository(cfg.StateFile)

		restored, loadErr := repo.Load(ctx)

		switch {
		case loadErr == nil:
			episodes.Restore(restored.Episodes)
			schedulerOpts = append(schedulerOpts, WithTracked(restored.Tracked))
			logger.InfoKV(ctx, "Restored state", "tracked", restored.Tracked.Len(), "state_file", repo.Path())
		case errors.Is(loadErr, state.ErrNotFound):
		default:
			logger.WarnKV(ctx, "Ignoring unreadable state file", "state_file", repo.Path(), "error", loadErr)
		}

		schedulerOpts = append(schedulerOpts, WithStateStore(repo))
	}

	var episodeLister status.EpisodeLister

	if cfg.HistoryDB != "" {
		store, openErr := history.Open(cfg.HistoryDB)
		if openErr != nil {
			return fmt.Errorf("open history: %w", openErr)
		}

		closers = append(closers, func(context.Context) error { return store.Close() })
		schedulerOpts = append(schedulerOpts, WithHistory(store))
		episodeLister = store
	}

	board := status.NewBoard()
	publishers := []SummaryPublisher{board}

	if cfg.MQTT.Broker != "" {
		publisher, connectErr := mqtt.Connect(ctx, cfg.MQTT)
		if connectErr != nil {
			return fmt.Errorf("connect mqtt: %w", connectErr)
		}

		closers = append(closers, publisher.Close)
		publishers = append(publishers, publisher)
	}

	if cfg.Influx.URL != "" {
		publisher := influx.New(cfg.Influx)
		closers = append(closers, publisher.Close)
		publishers = append(publishers, publisher)
	}

	health := status.NewHealth()

	schedulerOpts = append(schedulerOpts,
		WithPublishers(publishers...),
		WithStateObserver(func(s State) { health.SetRunning(s == StateRunning) }),
	)

	det := detector.New(zoomClient,
		detector.WithTracker(episodes),
		detector.WithLostAfterCycles(cfg.Monitor.EffectiveLostAfterCycles()),
	)

	scheduler, err := NewScheduler(Deps{
		Rooms:    zoomClient,
		Detector: det,
		Episodes: episodes,
		Notifier: dispatcher,
		Events:   events,
	}, schedulerOpts...)
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	surfaceCtx, stopSurfaces := context.WithCancel(ctx)

	var wg sync.WaitGroup

	startSurfaces(surfaceCtx, &wg, cfg.Status, zoomClient, board, episodeLister, health)

	logger.InfoKV(ctx, "Room monitor started",
		"host", host.String(),
		"event_log", cfg.EventLog.Path,
		"status_address", cfg.Status.ListenAddress,
	)

	err = scheduler.Run(ctx)

	stopSurfaces()
	wg.Wait()

	return err
}

// applyLogLevel sets the global level from the override or the configured value.
func applyLogLevel(override, configured string) error {
	name := override
	if name == "" {
		name = configured
	}

	if name == "" {
		return nil
	}

	level, ok := logger.ParseLogLevel(name)
	if !ok {
		return fmt.Errorf("%w: %q", errInvalidLogLevel, name)
	}

	logger.SetLevel(level)

	return nil
}

// resolveToken returns the configured static token or exchanges the OAuth credentials.
func resolveToken(ctx context.Context, cfg *config.Config) (string, error) {
	if cfg.Zoom.AccessToken != "" {
		return cfg.Zoom.AccessToken, nil
	}

	token, err := zoom.FetchAccessToken(ctx, httpkit.NewClient(cfg.Timeout), cfg.Zoom.OAuthURL, zoom.Credentials{
		AccountID:    cfg.Zoom.AccountID,
		ClientID:     cfg.Zoom.ClientID,
		ClientSecret: cfg.Zoom.ClientSecret,
	})
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}

	return token, nil
}

// openEventLog opens the file sink and the optional Kafka mirror.
func openEventLog(cfg config.EventLogConfig) (eventlog.Sink, []closer, error) {
	file, err := eventlog.OpenFile(cfg.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}

	closers := []closer{closeWith(file)}

	if len(cfg.KafkaBrokers) == 0 {
		return file, closers, nil
	}

	kafkaSink := eventlog.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
	closers = append(closers, closeWith(kafkaSink))

	return eventlog.Multi{file, kafkaSink}, closers, nil
}

// startSurfaces launches the optional status HTTP and gRPC health servers.
func startSurfaces(
	ctx context.Context,
	wg *sync.WaitGroup,
	cfg config.StatusConfig,
	rooms status.SnapshotProvider,
	board *status.Board,
	episodes status.EpisodeLister,
	health *status.Health,
) {
	if cfg.ListenAddress != "" {
		hub := status.NewHub(board)
		refresher := status.NewRefresher(rooms, board, hub, cfg.RefreshInterval)
		server := status.NewServer(board, hub, episodes)

		wg.Go(func() { refresher.Run(ctx) })
		wg.Go(func() {
			if err := server.Serve(ctx, cfg.ListenAddress); err != nil {
				logger.ErrorKV(ctx, "Status server failed", "error", err)
			}
		})
	}

	if cfg.GRPCAddress != "" {
		wg.Go(func() {
			if err := health.Serve(ctx, cfg.GRPCAddress); err != nil {
				logger.ErrorKV(ctx, "Health server failed", "error", err)
			}
		})
	}
}

// startupFailed records a fatal startup error and announces the shutdown.
func startupFailed(ctx context.Context, events *eventlog.Logger, dispatcher *notifier.Dispatcher, cause error) {
	logger.ErrorKV(ctx, "Startup failed", "error", cause)

	if err := events.Error(ctx, eventlog.EventError, cause.Error()); err != nil {
		logger.ErrorKV(ctx, "Failed to record error", "error", err)
	}

	dispatcher.Shutdown(ctx, cause.Error())
}

func closeWith(c io.Closer) closer {
	return func(context.Context) error {
		return c.Close()
	}
}
