package archive

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Outcome reports what a write did to the archive.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeCreated
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Entry is one classified submission ready to be archived.
type Entry struct {
	Segments  []string
	ProblemID int
	Title     string
	Ext       string
	Code      string
}

// Writer owns all mutations under the archive root. It enforces the
// one-current-file-per-problem invariant and never rewrites identical
// content.
type Writer struct {
	root     string
	fallback string
	logger   *slog.Logger
}

// NewWriter creates a writer rooted at dir. Category segments that sanitize
// to nothing land under fallbackCategory; empty means the built-in default.
func NewWriter(root, fallbackCategory string, logger *slog.Logger) *Writer {
	if fallbackCategory == "" {
		fallbackCategory = fallbackSegment
	}
	return &Writer{root: root, fallback: fallbackCategory, logger: logger}
}

// Write archives one entry. It returns the outcome and the path relative to
// the archive root. Stale sibling files for the same problem id are removed
// regardless of outcome, so a rename in the header repairs older layouts.
func (w *Writer) Write(e Entry) (Outcome, string, error) {
	rel := buildPath(e.Segments, e.ProblemID, e.Title, e.Ext, w.fallback)
	target, err := w.securePath(rel)
	if err != nil {
		return OutcomeUnchanged, rel, err
	}

	code := normalizeNewlines(e.Code)
	dir := filepath.Dir(target)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return OutcomeUnchanged, rel, fmt.Errorf("failed to create category directory: %w", err)
	}

	w.removeStaleSiblings(dir, e.ProblemID, filepath.Base(target))

	existing, err := os.ReadFile(target)
	switch {
	case err == nil:
		if bytes.Equal(existing, []byte(code)) {
			return OutcomeUnchanged, rel, nil
		}
		if err := writeAtomic(target, []byte(code)); err != nil {
			return OutcomeUnchanged, rel, fmt.Errorf("failed to update %s: %w", rel, err)
		}
		w.logger.Info("Updated archive entry", "path", rel)
		return OutcomeUpdated, rel, nil
	case errors.Is(err, os.ErrNotExist):
		if err := writeAtomic(target, []byte(code)); err != nil {
			return OutcomeUnchanged, rel, fmt.Errorf("failed to write %s: %w", rel, err)
		}
		w.logger.Info("Archived new entry", "path", rel)
		return OutcomeCreated, rel, nil
	default:
		return OutcomeUnchanged, rel, fmt.Errorf("failed to read existing %s: %w", rel, err)
	}
}

// writeAtomic writes via a temp file and rename so an interrupted run never
// leaves a half-written solution. A leftover temp file carries the same
// "<id>." prefix as its target and gets swept as a stale sibling later.
func writeAtomic(target string, data []byte) error {
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// removeStaleSiblings deletes any other file in dir named with the same
// "<id>." prefix, keeping at most one current file per problem id.
func (w *Writer) removeStaleSiblings(dir string, problemID int, keep string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	prefix := strconv.Itoa(problemID) + "."
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == keep || !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			w.logger.Warn("Failed to remove stale sibling", "path", name, "error", err)
			continue
		}
		w.logger.Info("Removed stale sibling", "path", name, "problem_id", problemID)
	}
}

// securePath resolves rel under the root and rejects anything that would
// escape it.
func (w *Writer) securePath(rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("archive path must be relative: %s", rel)
	}
	clean := filepath.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("archive path escapes root: %s", rel)
	}
	return filepath.Join(w.root, clean), nil
}

func normalizeNewlines(code string) string {
	code = strings.ReplaceAll(code, "\r\n", "\n")
	return strings.ReplaceAll(code, "\r", "\n")
}
