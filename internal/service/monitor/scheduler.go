package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/oshokin/room-monitor/internal/config"
	"github.com/oshokin/room-monitor/internal/domain/room"
	"github.com/oshokin/room-monitor/internal/eventlog"
	"github.com/oshokin/room-monitor/internal/logger"
	"github.com/oshokin/room-monitor/internal/service/notifier"
)

// ShutdownRequestedMessage is recorded when the operator stops the monitor.
const ShutdownRequestedMessage = "script was shut off"

// publishTimeout bounds a single summary publish.
const publishTimeout = 10 * time.Second

// errMissingDependency is returned when a required collaborator is nil.
var errMissingDependency = errors.New("scheduler dependency is missing")

// State is the lifecycle state of the poll loop.
type State int32

const (
	// StateStopped means the loop is not running.
	StateStopped State = iota
	// StateRunning means the loop is polling.
	StateRunning
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == StateRunning {
		return "running"
	}

	return "stopped"
}

// SnapshotProvider lists rooms.
type SnapshotProvider interface {
	Snapshot(ctx context.Context) (*room.Snapshot, error)
}

// Detector computes transitions between the tracked set and a snapshot.
type Detector interface {
	Detect(ctx context.Context, previous room.TrackedSet, snapshot *room.Snapshot) (room.TrackedSet, []room.TransitionEvent, error)
}

// EpisodeSource exposes the episodes kept by the detector's tracker.
type EpisodeSource interface {
	Episode(roomID string) (*room.OfflineEpisode, bool)
	Open() []*room.OfflineEpisode
}

// Notifier announces transitions and the shutdown of the monitor.
type Notifier interface {
	Notify(ctx context.Context, event room.TransitionEvent) notifier.Outcome
	Shutdown(ctx context.Context, reason string) notifier.Outcome
}

// EventRecorder writes transition and error records.
type EventRecorder interface {
	Transition(ctx context.Context, event room.TransitionEvent) error
	Error(ctx context.Context, event, message string) error
}

// SummaryPublisher receives the periodic room summary.
type SummaryPublisher interface {
	Name() string
	PublishSummary(ctx context.Context, summary room.Summary) error
}

// StateStore persists the tracked rooms and open episodes.
type StateStore interface {
	Save(ctx context.Context, state *room.State) error
}

// EpisodeStore records episodes as they open and close.
type EpisodeStore interface {
	Record(ctx context.Context, episode *room.OfflineEpisode) error
}

// Deps are the collaborators every scheduler needs.
type Deps struct {
	// Rooms lists rooms each cycle.
	Rooms SnapshotProvider
	// Detector computes transitions.
	Detector Detector
	// Episodes exposes episodes for persistence.
	Episodes EpisodeSource
	// Notifier announces transitions.
	Notifier Notifier
	// Events writes the event log.
	Events EventRecorder
}

// Scheduler is the poll loop. Run must not be called concurrently.
type Scheduler struct {
	// deps are the required collaborators.
	deps Deps
	// publishers receive the summary.
	publishers []SummaryPublisher
	// stateStore persists tracked rooms, may be nil.
	stateStore StateStore
	// history records episodes, may be nil.
	history EpisodeStore
	// interval is the fixed sleep after every cycle.
	interval time.Duration
	// summaryEvery publishes the summary every N cycles.
	summaryEvery int
	// tracked is the set of rooms believed offline.
	tracked room.TrackedSet
	// cycles counts completed cycles.
	cycles int
	// state is the lifecycle state.
	state atomic.Int32
	// onState observes lifecycle changes, may be nil.
	onState func(State)
	// now returns the current wall-clock time.
	now func() time.Time
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the sleep between cycles.
func WithInterval(interval time.Duration) Option {
	return func(s *Scheduler) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithSummaryEvery sets how many cycles pass between summaries.
func WithSummaryEvery(cycles int) Option {
	return func(s *Scheduler) {
		if cycles > 0 {
			s.summaryEvery = cycles
		}
	}
}

// WithPublishers adds summary publishers.
func WithPublishers(publishers ...SummaryPublisher) Option {
	return func(s *Scheduler) {
		s.publishers = append(s.publishers, publishers...)
	}
}

// WithStateStore persists the tracked rooms after every cycle with transitions.
func WithStateStore(store StateStore) Option {
	return func(s *Scheduler) {
		s.stateStore = store
	}
}

// WithHistory records every episode change.
func WithHistory(store EpisodeStore) Option {
	return func(s *Scheduler) {
		s.history = store
	}
}

// WithTracked seeds the tracked set, e.g. from a restored state.
func WithTracked(tracked room.TrackedSet) Option {
	return func(s *Scheduler) {
		s.tracked = tracked.Clone()
	}
}

// WithStateObserver is called on every lifecycle change.
func WithStateObserver(observer func(State)) Option {
	return func(s *Scheduler) {
		s.onState = observer
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(deps Deps, opts ...Option) (*Scheduler, error) {
	if deps.Rooms == nil || deps.Detector == nil || deps.Episodes == nil ||
		deps.Notifier == nil || deps.Events == nil {
		return nil, errMissingDependency
	}

	s := &Scheduler{
		deps:         deps,
		interval:     config.DefaultPollInterval,
		summaryEvery: config.DefaultSummaryEvery,
		tracked:      room.NewTrackedSet(),
		now:          time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// State reports the lifecycle state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Tracked returns a copy of the tracked set.
func (s *Scheduler) Tracked() room.TrackedSet {
	return s.tracked.Clone()
}

// Run polls until ctx is cancelled (returns nil) or a cycle fails (returns
// the error). A cycle in flight always completes before Run returns.
func (s *Scheduler) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "scheduler")

	s.setState(StateRunning)
	defer s.setState(StateStopped)

	logger.InfoKV(ctx, "Polling rooms",
		"interval", s.interval.String(),
		"summary_every", s.summaryEvery,
		"tracked", s.tracked.Len(),
	)

	s.publishInitialSummary(ctx)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return s.quit(ctx)
		}

		if err := s.cycle(context.WithoutCancel(ctx)); err != nil {
			return s.fail(ctx, err)
		}

		timer.Reset(s.interval)

		select {
		case <-ctx.Done():
			return s.quit(ctx)
		case <-timer.C:
		}
	}
}

// cycle performs one poll: list, detect, record, notify, persist.
func (s *Scheduler) cycle(ctx context.Context) error {
	snapshot, err := s.deps.Rooms.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("list rooms: %w", err)
	}

	next, events, err := s.deps.Detector.Detect(ctx, s.tracked, snapshot)
	if err != nil {
		return fmt.Errorf("detect transitions: %w", err)
	}

	s.tracked = next

	for _, event := range events {
		s.handle(ctx, event)
	}

	if len(events) > 0 {
		s.saveState(ctx)
	}

	s.cycles++

	if s.cycles%s.summaryEvery == 0 {
		s.publishSummary(ctx, snapshot.Summary())
	}

	return nil
}

func (s *Scheduler) handle(ctx context.Context, event room.TransitionEvent) {
	logger.InfoKV(ctx, "Room transition",
		"event", string(event.Kind),
		"room", event.Room.Name,
		"room_id", event.Room.ID,
	)

	if err := s.deps.Events.Transition(ctx, event); err != nil {
		logger.ErrorKV(ctx, "Failed to record transition", "room", event.Room.Name, "error", err)
	}

	outcome := s.deps.Notifier.Notify(ctx, event)
	if !outcome.Sent {
		logger.WarnKV(ctx, "Transition was not announced",
			"room", event.Room.Name,
			"status_code", outcome.StatusCode,
		)
	}

	if s.history == nil {
		return
	}

	episode, ok := s.deps.Episodes.Episode(event.Room.ID)
	if !ok {
		return
	}

	if err := s.history.Record(ctx, episode); err != nil {
		logger.WarnKV(ctx, "Failed to record episode history", "room", event.Room.Name, "error", err)
	}
}

func (s *Scheduler) saveState(ctx context.Context) {
	if s.stateStore == nil {
		return
	}

	err := s.stateStore.Save(ctx, &room.State{
		Tracked:  s.tracked.Clone(),
		Episodes: s.deps.Episodes.Open(),
		SavedAt:  s.now(),
	})
	if err != nil {
		logger.WarnKV(ctx, "Failed to save state", "error", err)
	}
}

func (s *Scheduler) publishInitialSummary(ctx context.Context) {
	if len(s.publishers) == 0 {
		return
	}

	snapshot, err := s.deps.Rooms.Snapshot(context.WithoutCancel(ctx))
	if err != nil {
		logger.DebugKV(ctx, "Initial summary skipped", "error", err)

		return
	}

	s.publishSummary(ctx, snapshot.Summary())
}

// publishSummary hands the summary to every publisher. Failures are only logged.
func (s *Scheduler) publishSummary(ctx context.Context, summary room.Summary) {
	for _, publisher := range s.publishers {
		publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		err := publisher.PublishSummary(publishCtx, summary)

		cancel()

		if err != nil {
			logger.DebugKV(ctx, "Summary publish failed", "publisher", publisher.Name(), "error", err)
		}
	}
}

func (s *Scheduler) quit(ctx context.Context) error {
	ctx = context.WithoutCancel(ctx)

	logger.Info(ctx, "Shutdown requested, stopping")

	if err := s.deps.Events.Error(ctx, eventlog.EventShutdownRequested, ShutdownRequestedMessage); err != nil {
		logger.ErrorKV(ctx, "Failed to record shutdown", "error", err)
	}

	s.deps.Notifier.Shutdown(ctx, ShutdownRequestedMessage)

	return nil
}

func (s *Scheduler) fail(ctx context.Context, cause error) error {
	ctx = context.WithoutCancel(ctx)

	logger.ErrorKV(ctx, "Poll cycle failed, stopping", "error", cause)

	if err := s.deps.Events.Error(ctx, eventlog.EventError, cause.Error()); err != nil {
		logger.ErrorKV(ctx, "Failed to record error", "error", err)
	}

	s.deps.Notifier.Shutdown(ctx, cause.Error())

	return cause
}

func (s *Scheduler) setState(state State) {
	s.state.Store(int32(state))

	if s.onState != nil {
		s.onState(state)
	}
}
