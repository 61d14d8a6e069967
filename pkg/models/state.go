package models

import "time"

// SyncState is the persisted watermark record that makes runs incremental.
// ProcessedIDs covers submissions handled since (or at) the watermark,
// capped to a recent window, because timestamp resolution is coarser than
// submission uniqueness.
type SyncState struct {
	Watermark    int64     `json:"last_timestamp"`
	ProcessedIDs []string  `json:"processed_ids"`
	UpdatedAt    time.Time `json:"updated_at"`
}
