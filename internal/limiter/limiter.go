// Package limiter provides the process-wide gate that throttles the
// aggregate rate of attempt starts across all workers.
package limiter

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter admits at most N attempt starts per rolling second, shared by every
// worker in a run. The zero rate (or any non-positive rate) disables
// throttling entirely.
type Limiter struct {
	rl *rate.Limiter
}

// New creates a limiter admitting perSecond starts per second. With burst 1,
// admissions are spaced evenly instead of arriving in bursts, and Wait's FIFO
// queue keeps admission fair across workers.
func New(perSecond float64) *Limiter {
	if perSecond <= 0 {
		return &Limiter{}
	}
	return &Limiter{rl: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Acquire blocks until the caller may start one attempt, or until the context
// is cancelled. It returns immediately when the limiter is unlimited.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l.rl == nil {
		return nil
	}
	return l.rl.Wait(ctx)
}

// Limited reports whether a rate bound is in effect.
func (l *Limiter) Limited() bool {
	return l.rl != nil
}
