// Package engine drives paginated collection: rate-limited fetching, date
// windowing, keyword filtering, dedup, checkpointed resumption.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/qepting91/social-collector/internal/checkpoint"
	"github.com/qepting91/social-collector/internal/collector"
	"github.com/qepting91/social-collector/internal/domain"
)

// Outcome is the terminal state of one task run.
type Outcome string

const (
	// OutcomeCompleted: max_records reached, or a prior run already finished.
	OutcomeCompleted Outcome = "completed"
	// OutcomeExhausted: the source ran out of pages or of in-window data.
	OutcomeExhausted Outcome = "exhausted"
	// OutcomeFailed: fatal error or retry budget exhausted.
	OutcomeFailed Outcome = "failed"
	// OutcomeCanceled: external stop signal; checkpoint left resumable.
	OutcomeCanceled Outcome = "canceled"
)

// Result reports how a task ended, with the final checkpoint snapshot.
// Progress is never silently dropped: every exit path carries one of these.
type Result struct {
	Outcome        Outcome
	Collected      int // emitted by this run
	TotalCollected int // including records counted by resumed runs
	Duplicates     int
	OutOfWindow    int
	NoKeywordHit   int
	TooShort       int
	Malformed      int
	Pages          int
	Checkpoint     *checkpoint.Checkpoint
}

// Engine walks an adapter's pages for one task at a time. Shared safely by
// concurrent tasks; all per-run state lives in Run.
type Engine struct {
	store         checkpoint.Store
	logger        *slog.Logger
	maxAttempts   int
	minTextLength int
}

func New(store checkpoint.Store, logger *slog.Logger, maxAttempts, minTextLength int) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &Engine{
		store:         store,
		logger:        logger,
		maxAttempts:   maxAttempts,
		minTextLength: minTextLength,
	}
}

// Run collects one task through adapter, emitting surviving records on out.
// It resumes from the task's checkpoint when one exists, checkpoints after
// every page, and observes ctx at the top of every iteration so cancellation
// is always resumable. Records are delivered at most once per identifier
// within a run.
func (e *Engine) Run(ctx context.Context, task domain.CollectionTask, adapter collector.SourceAdapter, limiter *Limiter, out chan<- domain.Record) (*Result, error) {
	taskKey := task.Key()
	log := e.logger.With("platform", task.Platform, "target", task.Target)

	prior, err := e.store.Load(taskKey)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if prior != nil && prior.Status == checkpoint.StatusCompleted {
		log.Info("Task already completed, skipping")
		return &Result{Outcome: OutcomeCompleted, TotalCollected: prior.RecordsCollected, Checkpoint: prior}, nil
	}

	cursor := adapter.InitialCursor(task.Target)
	res := &Result{}
	if prior != nil {
		cursor = prior.Cursor
		res.TotalCollected = prior.RecordsCollected
		log.Info("Resuming from checkpoint", "cursor", cursor, "records", prior.RecordsCollected)
	}

	dedup := NewDeduplicator()
	earlyStop := adapter.ReverseChronological()
	attempts := 0

	checkpointAt := func(status checkpoint.Status, records int) *checkpoint.Checkpoint {
		cp := &checkpoint.Checkpoint{
			TaskKey:          taskKey,
			Platform:         string(task.Platform),
			Target:           task.Target,
			Cursor:           cursor,
			RecordsCollected: records,
			Status:           status,
		}
		if err := e.store.Save(cp); err != nil {
			log.Error("Checkpoint save failed", "err", err)
		}
		res.Checkpoint = cp
		return cp
	}
	saveProgress := func(status checkpoint.Status) *checkpoint.Checkpoint {
		return checkpointAt(status, res.TotalCollected)
	}
	failTask := func() {
		saveProgress(checkpoint.StatusInProgress)
		if err := e.store.MarkFailed(taskKey); err != nil {
			log.Error("Checkpoint failure mark failed", "err", err)
		}
		res.Checkpoint.Status = checkpoint.StatusFailed
		res.Outcome = OutcomeFailed
	}

	for {
		select {
		case <-ctx.Done():
			saveProgress(checkpoint.StatusInProgress)
			res.Outcome = OutcomeCanceled
			return res, ctx.Err()
		default:
		}

		if task.MaxRecords > 0 && res.TotalCollected >= task.MaxRecords {
			saveProgress(checkpoint.StatusCompleted)
			res.Outcome = OutcomeCompleted
			return res, nil
		}

		if err := limiter.Acquire(ctx); err != nil {
			saveProgress(checkpoint.StatusInProgress)
			res.Outcome = OutcomeCanceled
			return res, err
		}

		page, err := adapter.FetchPage(ctx, task.Target, cursor, task.Keywords)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				saveProgress(checkpoint.StatusInProgress)
				res.Outcome = OutcomeCanceled
				return res, err
			}
			if !domain.IsTransient(err) {
				// Auth failures and other fatal errors: keep the last good
				// cursor so a later run can resume once fixed.
				failTask()
				return res, err
			}
			attempts++
			if attempts >= e.maxAttempts {
				failTask()
				return res, fmt.Errorf("retry attempts exhausted after %d tries: %w", attempts, err)
			}
			log.Warn("Transient fetch failure, backing off", "attempt", attempts, "err", err)
			limiter.Backoff()
			continue
		}

		if page.RateLimited {
			attempts++
			if attempts >= e.maxAttempts {
				failTask()
				return res, fmt.Errorf("rate limited %d times in a row", attempts)
			}
			log.Warn("Rate limited by source, backing off", "attempt", attempts)
			limiter.Backoff()
			continue
		}

		attempts = 0
		limiter.Reset()
		res.Pages++

		// Count at the page boundary. A cancel while emitting this page's
		// records checkpoints this snapshot: the cursor still points at the
		// page, so the resumed run re-fetches it and nothing emitted from it
		// is counted twice.
		pageStart := res.TotalCollected
		crossed := false
		for _, item := range page.Items {
			rec, err := adapter.Normalize(item)
			if err != nil {
				// One bad record must not abort the task.
				res.Malformed++
				log.Warn("Skipping malformed item", "err", err)
				continue
			}

			if earlyStop && task.Window.CrossesBelow(rec.AuthoredAt) {
				crossed = true
			}
			if !task.Window.Accepts(rec.AuthoredAt) {
				res.OutOfWindow++
				continue
			}
			if e.minTextLength > 0 && len(rec.Text) < e.minTextLength {
				res.TooShort++
				continue
			}
			hits := matchKeywords(rec.Text, task.Keywords)
			if len(task.Keywords) > 0 && len(hits) == 0 {
				res.NoKeywordHit++
				continue
			}
			if len(hits) > 0 {
				if rec.RawExtra == nil {
					rec.RawExtra = map[string]any{}
				}
				rec.RawExtra["keywords_hit"] = hits
			}
			if key := rec.DedupKey(); dedup.Seen(key) {
				res.Duplicates++
				continue
			} else {
				dedup.Mark(key)
			}

			if task.MaxRecords > 0 && res.TotalCollected >= task.MaxRecords {
				break
			}

			select {
			case <-ctx.Done():
				checkpointAt(checkpoint.StatusInProgress, pageStart)
				res.Outcome = OutcomeCanceled
				return res, ctx.Err()
			case out <- rec:
				res.Collected++
				res.TotalCollected++
			}
		}

		cursor = page.NextCursor
		saveProgress(checkpoint.StatusInProgress)

		switch {
		case cursor == "":
			// No more pages: normal exhaustion, not an error.
			e.finish(log, taskKey, res, OutcomeExhausted)
			return res, nil
		case crossed:
			// Everything further is older than the window start; fetching
			// more pages would burn quota for nothing.
			log.Info("Date window exceeded, stopping early", "pages", res.Pages)
			e.finish(log, taskKey, res, OutcomeExhausted)
			return res, nil
		case task.MaxRecords > 0 && res.TotalCollected >= task.MaxRecords:
			e.finish(log, taskKey, res, OutcomeCompleted)
			return res, nil
		}
	}
}

func (e *Engine) finish(log *slog.Logger, taskKey string, res *Result, outcome Outcome) {
	if err := e.store.MarkCompleted(taskKey); err != nil {
		log.Error("Checkpoint completion failed", "err", err)
	}
	if res.Checkpoint != nil {
		res.Checkpoint.Status = checkpoint.StatusCompleted
	}
	res.Outcome = outcome
	log.Info("Task finished", "outcome", outcome, "collected", res.Collected, "total", res.TotalCollected)
}
