// Package dispatch fans a list of credential records out to a fixed pool of
// workers and collects exactly one outcome per record.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/audittools/smtp-audit/internal/limiter"
	"github.com/audittools/smtp-audit/internal/probe"
	"github.com/audittools/smtp-audit/internal/record"
)

// AttemptFunc runs one connection attempt. It matches (*probe.Prober).Attempt
// and is a function value so tests can substitute fakes.
type AttemptFunc func(ctx context.Context, rec record.Record) probe.Outcome

// Progress is the completed/total counter exposed after every outcome.
type Progress struct {
	Completed int
	Total     int
}

// Pool dispatches records to Workers concurrent attempts. A worker count of 1
// degenerates to sequential processing in input order; with more workers the
// outcome order follows completion, not input.
type Pool struct {
	Attempt AttemptFunc
	Limiter *limiter.Limiter
	Workers int

	// OnProgress, when set, is invoked after each outcome is published.
	// Calls are serialized; the callback must not block for long.
	OnProgress func(Progress)
}

// Run processes all records and returns a channel carrying exactly one
// outcome per record. The channel is closed when every record has been
// processed or the context is cancelled; on cancellation, records whose
// attempt never started produce no outcome.
func (p *Pool) Run(ctx context.Context, records []record.Record) <-chan probe.Outcome {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	lim := p.Limiter
	if lim == nil {
		lim = limiter.New(0)
	}

	jobs := make(chan record.Record)
	results := make(chan probe.Outcome)
	out := make(chan probe.Outcome)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				if err := lim.Acquire(ctx); err != nil {
					// Cancelled while waiting for admission; drop the
					// remaining work.
					return
				}
				results <- p.runOne(ctx, rec)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, rec := range records {
			select {
			case jobs <- rec:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	go func() {
		defer close(out)
		total := len(records)
		completed := 0
		for res := range results {
			out <- res
			completed++
			if p.OnProgress != nil {
				p.OnProgress(Progress{Completed: completed, Total: total})
			}
		}
	}()

	return out
}

// runOne executes a single attempt, converting any panic into an outcome so
// one record's fault can never abort the run or starve the outcome stream.
func (p *Pool) runOne(ctx context.Context, rec record.Record) (out probe.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("attempt panicked",
				"host", rec.Host,
				"username", rec.Username,
				"panic", r,
			)
			out = probe.Outcome{
				Host:     rec.Host,
				Username: rec.Username,
				Kind:     probe.KindInternal,
				Detail:   fmt.Sprintf("unexpected fault: %v", r),
				Raw:      rec.Raw,
			}
		}
	}()
	return p.Attempt(ctx, rec)
}
