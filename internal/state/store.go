// Package state persists the sync watermark between runs.
package state

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"

	"github.com/karou9/leetsync/pkg/models"
)

// Store holds the sync state for one run and persists it atomically. It is
// not safe for concurrent use; runs are strictly sequential and callers
// provide external mutual exclusion across processes.
type Store struct {
	path   string
	window int
	logger *slog.Logger

	st   models.SyncState
	seen map[string]struct{}
}

// NewStore creates a store backed by the file at path. window caps the
// processed-ID set to the most recent entries.
func NewStore(path string, window int, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		window: window,
		logger: logger,
		seen:   make(map[string]struct{}),
	}
}

// Load reads prior state from disk. A missing file yields zero-value state
// (the orchestrator bootstraps the watermark on first run). A corrupt file
// is treated the same way rather than aborting: the worst case is a bounded
// rescan that the archive writer absorbs as unchanged writes.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read sync state: %w", err)
	}

	var st models.SyncState
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("Sync state file is corrupt, starting fresh", "path", s.path, "error", err)
		return nil
	}

	s.st = st
	s.seen = make(map[string]struct{}, len(st.ProcessedIDs))
	for _, id := range st.ProcessedIDs {
		s.seen[id] = struct{}{}
	}

	s.logger.Debug("Sync state loaded",
		"path", s.path,
		"watermark", st.Watermark,
		"processed_ids", len(st.ProcessedIDs))
	return nil
}

// Save writes the state atomically (temp file then rename) so a crash
// mid-write cannot corrupt the record.
func (s *Store) Save() error {
	s.st.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(&s.st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sync state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}

	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp sync state: %w", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		return fmt.Errorf("failed to rename sync state: %w", err)
	}

	s.logger.Debug("Sync state saved", "path", s.path, "watermark", s.st.Watermark)
	return nil
}

// Watermark returns the last-processed timestamp boundary.
func (s *Store) Watermark() int64 {
	return s.st.Watermark
}

// Bootstrapped reports whether a watermark has ever been established.
func (s *Store) Bootstrapped() bool {
	return s.st.Watermark > 0
}

// Advance raises the watermark to ts. The watermark never regresses, so a
// run that saw nothing newer leaves it untouched.
func (s *Store) Advance(ts int64) {
	if ts > s.st.Watermark {
		s.st.Watermark = ts
	}
}

// Seen reports whether a submission id was already processed.
func (s *Store) Seen(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// MarkProcessed records a handled submission id, evicting the oldest
// entries beyond the window.
func (s *Store) MarkProcessed(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.st.ProcessedIDs = append(s.st.ProcessedIDs, id)

	if s.window > 0 && len(s.st.ProcessedIDs) > s.window {
		evicted := s.st.ProcessedIDs[:len(s.st.ProcessedIDs)-s.window]
		for _, old := range evicted {
			delete(s.seen, old)
		}
		s.st.ProcessedIDs = append([]string(nil), s.st.ProcessedIDs[len(s.st.ProcessedIDs)-s.window:]...)
	}
}

// State returns a copy of the current record, for inspection commands.
func (s *Store) State() models.SyncState {
	st := s.st
	st.ProcessedIDs = append([]string(nil), s.st.ProcessedIDs...)
	return st
}
