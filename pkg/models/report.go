package models

import (
	"fmt"
	"time"
)

// ArchivedItem describes one file the run created or replaced.
type ArchivedItem struct {
	SubmissionID int64  `json:"submission_id"`
	ProblemID    int    `json:"problem_id"`
	Title        string `json:"title"`
	Path         string `json:"path"`
	Outcome      string `json:"outcome"`
}

// RunReport is the per-run change report consumed by downstream tooling
// (commit automation, README regeneration) and printed as a summary line.
type RunReport struct {
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Bootstrapped bool      `json:"bootstrapped"`
	RateLimited  bool      `json:"rate_limited"`

	Scanned            int `json:"scanned"`
	Accepted           int `json:"accepted"`
	Written            int `json:"written"`
	Unchanged          int `json:"unchanged"`
	SkippedNoHeader    int `json:"skipped_no_header"`
	SkippedNotAccepted int `json:"skipped_not_accepted"`
	Failed             int `json:"failed"`

	NewItems []ArchivedItem `json:"new_items,omitempty"`
}

// Changed reports whether the run modified the archive at all. Callers use
// this to decide whether there is anything worth committing.
func (r *RunReport) Changed() bool {
	return r.Written > 0
}

// Summary renders the one-line human-readable run summary.
func (r *RunReport) Summary() string {
	if r.Bootstrapped {
		return fmt.Sprintf("bootstrapped watermark from %d submissions, nothing archived", r.Scanned)
	}
	return fmt.Sprintf(
		"scanned: %d, accepted: %d, written: %d, unchanged: %d, skipped (no header): %d, skipped (not accepted): %d, failed: %d",
		r.Scanned, r.Accepted, r.Written, r.Unchanged, r.SkippedNoHeader, r.SkippedNotAccepted, r.Failed)
}
