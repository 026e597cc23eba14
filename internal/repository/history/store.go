package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Registers the "sqlite" driver.

	"github.com/oshokin/room-monitor/internal/domain/room"
)

// DefaultLimit bounds Recent when no positive limit is given.
const DefaultLimit = 50

// timeLayout has a fixed width so stored times sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// errNilEpisode is returned when Record receives no episode.
var errNilEpisode = errors.New("episode must not be nil")

// Store is a SQLite store for offline episodes. All public methods are
// safe for concurrent use.
type Store struct {
	// db is the database handle.
	db *sql.DB
	// owned is true when Close must close db.
	owned bool
}

// Open opens (or creates) the database file and prepares the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err = db.Exec(pragma); err != nil {
			_ = db.Close()

			return nil, fmt.Errorf("configure history database: %w", err)
		}
	}

	store, err := NewStore(db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	store.owned = true

	return store, nil
}

// NewStore wraps an already opened database and prepares the schema.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate history schema: %w", err)
	}

	return s, nil
}

// Close closes the database when the store opened it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}

	return s.db.Close()
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS offline_episodes (
		id              TEXT PRIMARY KEY,
		room_id         TEXT NOT NULL,
		room_name       TEXT NOT NULL,
		start           TEXT NOT NULL,
		stop            TEXT,
		elapsed_seconds INTEGER,
		lost            INTEGER NOT NULL DEFAULT 0,
		UNIQUE (room_id, start)
	);
	CREATE INDEX IF NOT EXISTS idx_offline_episodes_start ON offline_episodes(start);
	`

	_, err := s.db.Exec(schema)

	return err
}

// Record inserts the episode or updates the row with the same room and start.
func (s *Store) Record(ctx context.Context, episode *room.OfflineEpisode) error {
	if episode == nil {
		return errNilEpisode
	}

	var (
		stop    sql.NullString
		elapsed sql.NullInt64
	)

	if episode.Stop != nil {
		stop = sql.NullString{String: episode.Stop.UTC().Format(timeLayout), Valid: true}
	}

	if episode.ElapsedSeconds != nil {
		elapsed = sql.NullInt64{Int64: *episode.ElapsedSeconds, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO offline_episodes (id, room_id, room_name, start, stop, elapsed_seconds, lost)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (room_id, start) DO UPDATE SET
			room_name = excluded.room_name,
			stop = excluded.stop,
			elapsed_seconds = excluded.elapsed_seconds,
			lost = excluded.lost`,
		uuid.NewString(),
		episode.RoomID,
		episode.RoomName,
		episode.Start.UTC().Format(timeLayout),
		stop,
		elapsed,
		episode.Lost,
	)
	if err != nil {
		return fmt.Errorf("upsert episode: %w", err)
	}

	return nil
}

// Recent returns up to limit episodes, newest start first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*room.OfflineEpisode, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT room_id, room_name, start, stop, elapsed_seconds, lost
		 FROM offline_episodes
		 ORDER BY start DESC, room_id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query episodes: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var episodes []*room.OfflineEpisode

	for rows.Next() {
		episode, scanErr := scanEpisode(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		episodes = append(episodes, episode)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}

	return episodes, nil
}

func scanEpisode(rows *sql.Rows) (*room.OfflineEpisode, error) {
	var (
		episode room.OfflineEpisode
		start   string
		stop    sql.NullString
		elapsed sql.NullInt64
	)

	if err := rows.Scan(&episode.RoomID, &episode.RoomName, &start, &stop, &elapsed, &episode.Lost); err != nil {
		return nil, fmt.Errorf("scan episode: %w", err)
	}

	parsed, err := time.Parse(timeLayout, start)
	if err != nil {
		return nil, fmt.Errorf("parse episode start: %w", err)
	}

	episode.Start = parsed

	if stop.Valid {
		parsedStop, parseErr := time.Parse(timeLayout, stop.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse episode stop: %w", parseErr)
		}

		episode.Stop = &parsedStop
	}

	if elapsed.Valid {
		value := elapsed.Int64
		episode.ElapsedSeconds = &value
	}

	return &episode, nil
}
