package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oshokin/room-monitor/internal/config"
	"github.com/oshokin/room-monitor/internal/domain/room"
)

// Repository defines persistence operations for the monitor state.
type Repository interface {
	Load(ctx context.Context) (*room.State, error)
	Save(ctx context.Context, state *room.State) error
}

// FileRepository persists the monitor state to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("state not found")

// fileState is the on-disk layout.
type fileState struct {
	Tracked  []string               `json:"tracked"`
	Episodes []*room.OfflineEpisode `json:"episodes"`
	SavedAt  time.Time              `json:"saved_at"`
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the state file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the state from disk. Closed episodes are dropped.
func (r *FileRepository) Load(_ context.Context) (*room.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var stored fileState
	if err = json.Unmarshal(contents, &stored); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	episodes := make([]*room.OfflineEpisode, 0, len(stored.Episodes))
	for _, episode := range stored.Episodes {
		if episode.Open() {
			episodes = append(episodes, episode)
		}
	}

	return &room.State{
		Tracked:  room.NewTrackedSet(stored.Tracked...),
		Episodes: episodes,
		SavedAt:  stored.SavedAt,
	}, nil
}

// Save writes the state to a temporary file and renames it over the previous one.
func (r *FileRepository) Save(_ context.Context, state *room.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := fileState{
		Tracked:  state.Tracked.IDs(),
		Episodes: state.Episodes,
		SavedAt:  state.SavedAt,
	}

	if stored.Episodes == nil {
		stored.Episodes = []*room.OfflineEpisode{}
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := r.path + ".tmp"
	if err = os.WriteFile(tmp, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err = os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)

		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
