package leetcode

import "github.com/karou9/leetsync/pkg/models"

// PageRequest addresses one page of the submission list. The backend pages
// by offset/limit plus an opaque last-key cursor; both are carried so either
// scheme works.
type PageRequest struct {
	Offset  int
	Limit   int
	LastKey string
}

// SubmissionPage is one page of the submission list as the judge returns
// it.
type SubmissionPage struct {
	Submissions []models.Submission `json:"submissions_dump"`
	HasNext     bool                `json:"has_next"`
	LastKey     string              `json:"last_key"`
}

// errorEnvelope is the in-band error payload some endpoints return with a
// 200 status.
type errorEnvelope struct {
	Error string `json:"error"`
}
