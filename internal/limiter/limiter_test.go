package limiter

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAcquire_Unlimited(t *testing.T) {
	t.Parallel()

	l := New(0)
	if l.Limited() {
		t.Error("rate 0 should be unlimited")
	}

	start := time.Now()
	for i := 0; i < 1000; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("unlimited acquires took %v, expected near-instant", elapsed)
	}
}

func TestAcquire_NegativeRateIsUnlimited(t *testing.T) {
	t.Parallel()

	if New(-3).Limited() {
		t.Error("negative rate should be unlimited")
	}
}

func TestAcquire_EnforcesRate(t *testing.T) {
	t.Parallel()

	// 50 admissions per second: 6 sequential acquires need at least 5
	// refill intervals of 20ms each.
	l := New(50)
	start := time.Now()
	for i := 0; i < 6; i++ {
		if err := l.Acquire(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("6 acquires at rate 50/s finished in %v, want >= ~100ms", elapsed)
	}
}

func TestAcquire_ConcurrentCallersRespectBound(t *testing.T) {
	t.Parallel()

	// 8 workers racing for 16 admissions at 100/s must take at least
	// ~150ms in total regardless of interleaving.
	l := New(100)
	var wg sync.WaitGroup
	start := time.Now()
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 2; i++ {
				if err := l.Acquire(context.Background()); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if elapsed := time.Since(start); elapsed < 120*time.Millisecond {
		t.Errorf("16 acquires at rate 100/s finished in %v, want >= ~150ms", elapsed)
	}
}

func TestAcquire_CancelledContext(t *testing.T) {
	t.Parallel()

	l := New(1)
	// Drain the single token so the next acquire has to wait.
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.Acquire(ctx); err == nil {
		t.Error("expected error from cancelled context, got nil")
	}
}
