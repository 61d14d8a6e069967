// Package syncer drives the incremental synchronization pipeline: list
// pages, fetch details, parse headers, write the archive, checkpoint state.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/karou9/leetsync/internal/archive"
	"github.com/karou9/leetsync/internal/config"
	"github.com/karou9/leetsync/internal/header"
	"github.com/karou9/leetsync/internal/leetcode"
	"github.com/karou9/leetsync/internal/metrics"
	"github.com/karou9/leetsync/internal/state"
	"github.com/karou9/leetsync/pkg/models"
)

// Source abstracts the remote judge. The concrete implementation is
// *leetcode.Client; tests substitute stubs.
type Source interface {
	ListSubmissions(ctx context.Context, page leetcode.PageRequest) (*leetcode.SubmissionPage, error)
	FetchDetail(ctx context.Context, id int64) (*models.SubmissionDetail, error)
}

// Orchestrator runs one synchronization pass. Processing is strictly
// sequential: one page at a time, one item at a time, no concurrent
// requests against the judge.
type Orchestrator struct {
	cfg       *config.Config
	source    Source
	writer    *archive.Writer
	store     *state.Store
	collector *metrics.Collector
	logger    *slog.Logger
}

// New creates an orchestrator.
func New(
	cfg *config.Config,
	source Source,
	writer *archive.Writer,
	store *state.Store,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		source:    source,
		writer:    writer,
		store:     store,
		collector: collector,
		logger:    logger,
	}
}

// Run executes one synchronization pass and returns its report. Rate
// limiting, parse failures and per-item write failures never surface as
// errors; only configuration/state problems do. Progress made before an
// early stop is always checkpointed.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}

	if err := o.store.Load(); err != nil {
		return report, err
	}

	if !o.store.Bootstrapped() {
		return report, o.bootstrap(ctx, report)
	}

	o.logger.Info("Starting sync run",
		"run_id", report.RunID,
		"watermark", o.store.Watermark())

	var bar *progressbar.ProgressBar
	if o.cfg.Sync.Progress {
		bar = progressbar.Default(-1, "syncing")
	}

	watermark := o.store.Watermark()
	var maxTimestamp int64
	detailFetches := 0
	sinceCheckpoint := 0
	completed := false

	page := leetcode.PageRequest{Limit: o.cfg.Sync.PageSize}

paging:
	for pageNum := 0; pageNum < o.cfg.Sync.MaxPages; pageNum++ {
		if ctx.Err() != nil {
			break
		}

		pg, err := o.source.ListSubmissions(ctx, page)
		if err != nil {
			if leetcode.IsRateLimited(err) {
				report.RateLimited = true
				o.logger.Warn("Rate limited while listing, stopping run early", "page", pageNum)
				break
			}
			o.logger.Error("Failed to list submissions, stopping run early", "page", pageNum, "error", err)
			break
		}
		if len(pg.Submissions) == 0 {
			completed = true
			break
		}

		for _, sub := range pg.Submissions {
			report.Scanned++
			if bar != nil {
				_ = bar.Add(1)
			}
			if sub.Timestamp > maxTimestamp {
				maxTimestamp = sub.Timestamp
			}
			// The list is newest-first, so the first item at or past the
			// watermark means everything further is already archived.
			if sub.Timestamp < watermark {
				completed = true
				break paging
			}

			id := strconv.FormatInt(sub.ID, 10)
			if o.store.Seen(id) {
				continue
			}

			if !sub.Accepted() {
				report.SkippedNotAccepted++
				o.collector.RecordItem("not_accepted")
				o.store.MarkProcessed(id)
				sinceCheckpoint++
				continue
			}
			report.Accepted++

			if detailFetches >= o.cfg.Sync.MaxDetailFetches {
				o.logger.Info("Detail fetch budget reached, stopping run early",
					"budget", o.cfg.Sync.MaxDetailFetches)
				break paging
			}
			detailFetches++

			detail, err := o.source.FetchDetail(ctx, sub.ID)
			if err != nil {
				if leetcode.IsRateLimited(err) {
					report.RateLimited = true
					o.logger.Warn("Rate limited while fetching detail, stopping run early",
						"submission_id", sub.ID)
					break paging
				}
				if ctx.Err() != nil {
					break paging
				}
				report.Failed++
				o.collector.RecordItem("failed")
				o.logger.Error("Failed to fetch submission detail",
					"submission_id", sub.ID, "error", err)
				o.store.MarkProcessed(id)
				sinceCheckpoint++
				continue
			}

			o.handleDetail(sub, detail, report)
			o.store.MarkProcessed(id)
			sinceCheckpoint++

			if sinceCheckpoint >= o.cfg.Sync.CheckpointInterval {
				if err := o.store.Save(); err != nil {
					o.logger.Warn("Failed to checkpoint sync state", "error", err)
				}
				sinceCheckpoint = 0
			}
		}

		if !pg.HasNext {
			completed = true
			break
		}
		page.Offset += page.Limit
		page.LastKey = pg.LastKey
	}

	// The watermark is only promoted after a complete scan. Runs cut short
	// by rate limiting or the detail budget keep the old one and lean on
	// the processed-ID set, so unhandled newer items are never skipped.
	if completed {
		o.store.Advance(maxTimestamp)
	}
	if err := o.store.Save(); err != nil {
		return report, fmt.Errorf("failed to persist sync state: %w", err)
	}

	if bar != nil {
		_ = bar.Finish()
	}
	report.FinishedAt = time.Now()
	o.logger.Info("Sync run finished",
		"run_id", report.RunID,
		"summary", report.Summary(),
		"changed", report.Changed(),
		"rate_limited", report.RateLimited)

	return report, nil
}

// handleDetail classifies one accepted submission and archives it. Parse
// and write failures are counted, never propagated.
func (o *Orchestrator) handleDetail(sub models.Submission, detail *models.SubmissionDetail, report *models.RunReport) {
	parsed, ok := header.Parse(detail.Code)
	if !ok {
		report.SkippedNoHeader++
		o.collector.RecordItem("no_header")
		o.logger.Debug("No classification header", "submission_id", sub.ID, "title", sub.Title)
		return
	}

	outcome, rel, err := o.writer.Write(archive.Entry{
		Segments:  parsed.Segments,
		ProblemID: parsed.ProblemID,
		Title:     parsed.Title,
		Ext:       o.resolveExtension(parsed, sub, detail),
		Code:      detail.Code,
	})
	if err != nil {
		report.Failed++
		o.collector.RecordItem("failed")
		o.logger.Error("Failed to write archive entry",
			"submission_id", sub.ID, "path", rel, "error", err)
		return
	}

	switch outcome {
	case archive.OutcomeCreated, archive.OutcomeUpdated:
		report.Written++
		o.collector.RecordItem("written")
		report.NewItems = append(report.NewItems, models.ArchivedItem{
			SubmissionID: sub.ID,
			ProblemID:    parsed.ProblemID,
			Title:        parsed.Title,
			Path:         rel,
			Outcome:      outcome.String(),
		})
	default:
		report.Unchanged++
		o.collector.RecordItem("unchanged")
	}
}

// resolveExtension picks the file extension. The header's explicit hint
// wins over the detected language tag: the header is user intent, the tag
// is metadata.
func (o *Orchestrator) resolveExtension(parsed header.Parsed, sub models.Submission, detail *models.SubmissionDetail) string {
	if parsed.ExtHint != "" {
		return parsed.ExtHint
	}
	lang := detail.Lang
	if lang == "" {
		lang = sub.Lang
	}
	return archive.ExtensionFor(lang, o.cfg.Languages)
}

// bootstrap establishes the initial watermark from the newest submission so
// a first run does not reprocess the user's entire history.
func (o *Orchestrator) bootstrap(ctx context.Context, report *models.RunReport) error {
	o.logger.Info("No prior sync state, bootstrapping watermark")

	pg, err := o.source.ListSubmissions(ctx, leetcode.PageRequest{Limit: o.cfg.Sync.PageSize})
	if err != nil {
		return fmt.Errorf("failed to bootstrap watermark: %w", err)
	}

	var newest int64
	for _, sub := range pg.Submissions {
		report.Scanned++
		if sub.Timestamp > newest {
			newest = sub.Timestamp
		}
	}
	// Items sharing the newest timestamp are marked processed: the
	// watermark comparison alone cannot tell them apart later.
	for _, sub := range pg.Submissions {
		if sub.Timestamp == newest {
			o.store.MarkProcessed(strconv.FormatInt(sub.ID, 10))
		}
	}

	o.store.Advance(newest)
	if err := o.store.Save(); err != nil {
		return fmt.Errorf("failed to persist bootstrap state: %w", err)
	}

	report.Bootstrapped = true
	report.FinishedAt = time.Now()
	o.logger.Info("Bootstrapped sync state",
		"watermark", newest, "submissions_seen", len(pg.Submissions))
	return nil
}
