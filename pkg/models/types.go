package models

import "strings"

// Submission is one row of the remote submission list. Fields mirror the
// judge's wire format; the struct is read-only to the rest of the system.
type Submission struct {
	ID            int64  `json:"id"`
	StatusDisplay string `json:"status_display"`
	Lang          string `json:"lang"`
	Timestamp     int64  `json:"timestamp"`
	Title         string `json:"title"`
	TitleSlug     string `json:"title_slug"`
}

// Accepted reports whether the submission passed all tests. The judge
// localizes the status string, so a few spellings are recognized.
func (s Submission) Accepted() bool {
	switch strings.ToLower(strings.TrimSpace(s.StatusDisplay)) {
	case "accepted", "ac", "通过":
		return true
	}
	return false
}

// SubmissionDetail carries the full source code of one submission. It is
// fetched lazily because the detail endpoint is the rate-limited one.
type SubmissionDetail struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Lang string `json:"lang"`
}
