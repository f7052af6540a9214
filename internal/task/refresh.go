// Package task implements Job/Task scheduling and the per-task runner
// loop. refresh.go resolves a declared TimePoint ({every: duration} or
// {at: "HH:MM"}) into a concrete sleep-until instant; everything else
// that needs "next wake" delegates here instead of re-deriving it.
package task

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresh is the declared TimePoint: exactly one of Every or At is set.
type Refresh struct {
	Every time.Duration
	At    string // "HH:MM", 24h clock
}

// NextWake resolves Refresh into a concrete instant to sleep until,
// relative to now.
func (r Refresh) NextWake(now time.Time) (time.Time, error) {
	if r.Every > 0 {
		return now.Add(r.Every), nil
	}
	if r.At == "" {
		return time.Time{}, fmt.Errorf("refresh: neither every nor at is set")
	}
	// robfig/cron already knows how to compute "next HH:MM" including
	// the midnight wraparound; reuse it instead of hand-rolling the
	// clock arithmetic.
	sched, err := cron.ParseStandard(atToCron(r.At))
	if err != nil {
		return time.Time{}, fmt.Errorf("refresh: parse at=%q: %w", r.At, err)
	}
	return sched.Next(now), nil
}

func atToCron(at string) string {
	var hh, mm int
	fmt.Sscanf(at, "%d:%d", &hh, &mm)
	return fmt.Sprintf("%d %d * * *", mm, hh)
}
