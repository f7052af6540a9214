package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arc-self/fetchd/internal/action"
	"github.com/arc-self/fetchd/internal/action/filter"
	"github.com/arc-self/fetchd/internal/ferr"
	"github.com/arc-self/fetchd/internal/msgmap"
	"github.com/arc-self/fetchd/internal/readfilter"
	"github.com/arc-self/fetchd/internal/source"
)

// Task is one runnable unit: a source feeding a pipeline, sharing its
// job's read-filter, optionally owning its own entry-to-msg-map.
type Task struct {
	Name     string
	Tag      string
	Source   source.Source
	Pipeline action.Pipeline
	MsgMap   *msgmap.Map

	// PreFilter runs once per tick, after read-filter de-dup and before
	// Pipeline, shared verbatim across every task of the owning job —
	// a job-wide exclusion rule (e.g. a title blocklist) independent of
	// any one task's own process list.
	PreFilter []filter.Filter

	ReadFilter *readfilter.ReadFilter
	Log        *zap.Logger
}

// Run executes one task's loop: fetch, remove_read, pipeline.run,
// per-entry mark-as-read, sleep — until ctx is cancelled. It returns
// only once cancellation is observed or a fatal (auth/config) failure
// occurs.
func (t *Task) Run(ctx context.Context, refresh Refresh) error {
	log := t.Log.With(zap.String("task", t.Name))
	log.Info("task started")

	for {
		if err := t.tick(ctx, log); err != nil {
			if ferr.IsAuth(err) {
				log.Error("authentication failure, task exiting", zap.Error(err))
				return err
			}
			var cfgErr *ferr.ConfigError
			if errors.As(err, &cfgErr) {
				log.Error("configuration failure, task exiting", zap.Error(err))
				return err
			}
			// tick already logged and swallowed transient failures; any
			// other error is logged here and the loop goes on.
			log.Warn("source failure, retrying next tick", zap.Error(err))
		}

		if ctx.Err() != nil {
			log.Info("task stopping")
			return nil
		}

		next, err := refresh.NextWake(time.Now())
		if err != nil {
			return ferr.NewConfigError("resolve refresh", err)
		}
		sleep := time.Until(next)
		if sleep < 0 {
			sleep = 0
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Info("task stopping")
			return nil
		case <-timer.C:
		}
	}
}

func (t *Task) tick(ctx context.Context, log *zap.Logger) error {
	log = log.With(zap.String("run_id", uuid.NewString()))
	entries, err := t.Source.Fetch(ctx)
	if err != nil {
		if ferr.IsTransient(err) {
			log.Warn("transient source failure, skipping this tick", zap.Error(err))
			return nil
		}
		return err
	}

	entries = t.ReadFilter.RemoveRead(entries)
	if len(entries) == 0 {
		return nil
	}

	for _, f := range t.PreFilter {
		entries = f.Apply(entries)
	}
	if len(entries) == 0 {
		return nil
	}

	entries = t.Pipeline.Run(entries, log)

	for i := range entries {
		e := entries[i]
		if marker, ok := t.Source.(source.ServerSideMarker); ok {
			if err := marker.MarkAsRead(ctx, e.ID); err != nil {
				log.Warn("server-side mark-as-read failed", zap.String("entry_id", e.ID), zap.Error(err))
			}
			continue
		}
		if e.ID != "" {
			if err := t.ReadFilter.MarkAsRead(e.ID); err != nil {
				log.Warn("failed to persist read-filter", zap.String("entry_id", e.ID), zap.Error(err))
			}
		}
	}

	return nil
}
