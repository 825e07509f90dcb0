package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"flickrvault/pkg/logger"
)

// State is the durable record of per-album completion
type State struct {
	// CompletedAlbums holds album IDs in completion order
	CompletedAlbums []string `json:"completed_albums"`
	// CurrentAlbum is the album being processed, empty between albums
	CurrentAlbum string    `json:"current_album,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`

	completed map[string]bool
}

// NewState creates an empty progress state
func NewState() *State {
	return &State{
		CompletedAlbums: make([]string, 0),
		Version:         1,
		completed:       make(map[string]bool),
	}
}

// IsComplete reports whether an album has been fully processed
func (s *State) IsComplete(albumID string) bool {
	return s.completed[albumID]
}

// MarkComplete records an album as fully processed. Idempotent.
func (s *State) MarkComplete(albumID string) {
	if s.completed[albumID] {
		return
	}
	s.completed[albumID] = true
	s.CompletedAlbums = append(s.CompletedAlbums, albumID)
	if s.CurrentAlbum == albumID {
		s.CurrentAlbum = ""
	}
}

// SetCurrent records the album now in progress
func (s *State) SetCurrent(albumID string) {
	s.CurrentAlbum = albumID
}

// CompletedCount returns the number of completed albums
func (s *State) CompletedCount() int {
	return len(s.CompletedAlbums)
}

// reindex rebuilds the lookup set after JSON decoding
func (s *State) reindex() {
	s.completed = make(map[string]bool, len(s.CompletedAlbums))
	for _, id := range s.CompletedAlbums {
		s.completed[id] = true
	}
}

// Ledger persists progress state to a JSON file
type Ledger struct {
	path   string
	logger logger.Logger
}

// New creates a ledger backed by the given file path
func New(path string, log logger.Logger) *Ledger {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Ledger{path: path, logger: log}
}

// Path returns the backing file path
func (l *Ledger) Path() string {
	return l.path
}

// Exists checks if a ledger file exists
func (l *Ledger) Exists() bool {
	_, err := os.Stat(l.path)
	return err == nil
}

// Load reads the persisted state. A missing or corrupt file yields a
// fresh state so an interrupted run can always restart.
func (l *Ledger) Load() *State {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.WithError(err).Warn("failed to read progress file, starting fresh")
		}
		return NewState()
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		l.logger.WithError(err).Warn("corrupt progress file, starting fresh")
		return NewState()
	}
	if state.Version == 0 {
		state.Version = 1
	}
	state.reindex()

	l.logger.InfoWithFields("progress loaded", map[string]interface{}{
		"completed_albums": len(state.CompletedAlbums),
		"current_album":    state.CurrentAlbum,
		"updated_at":       state.UpdatedAt,
	})

	return &state
}

// Save writes the state to disk atomically
func (l *Ledger) Save(state *State) error {
	state.UpdatedAt = time.Now()

	if dir := filepath.Dir(l.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create progress directory: %w", err)
		}
	}

	tempPath := l.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary progress file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(state); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync progress file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close progress file: %w", err)
	}

	if err := os.Rename(tempPath, l.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace progress file: %w", err)
	}

	l.logger.DebugWithFields("progress saved", map[string]interface{}{
		"completed_albums": len(state.CompletedAlbums),
		"current_album":    state.CurrentAlbum,
	})

	return nil
}

// Delete removes the ledger file
func (l *Ledger) Delete() error {
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete progress file: %w", err)
	}
	return nil
}
