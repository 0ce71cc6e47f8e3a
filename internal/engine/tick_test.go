package engine

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestEngineRunStepsAndReports(t *testing.T) {
	var mu sync.Mutex
	var tick uint64
	var reports []uint64

	e := NewEngine(func() (uint64, bool) {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return tick, true
	})
	e.Interval = time.Millisecond
	e.ReportEvery = 5
	e.OnReport = func(t uint64) {
		mu.Lock()
		defer mu.Unlock()
		reports = append(reports, t)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	e.Run(ctx)

	mu.Lock()
	defer mu.Unlock()
	if tick < 5 {
		t.Fatalf("only %d ticks in 200ms at 1ms interval", tick)
	}
	for _, r := range reports {
		if r%5 != 0 {
			t.Fatalf("report at tick %d, want multiples of 5", r)
		}
	}
	if len(reports) == 0 {
		t.Fatalf("no reports")
	}
	if e.Running() {
		t.Fatalf("engine still marked running after Run returned")
	}
}

func TestEngineZeroSpeedDoesNotStep(t *testing.T) {
	steps := 0
	e := NewEngine(func() (uint64, bool) {
		steps++
		return uint64(steps), true
	})
	e.Interval = time.Millisecond
	e.SetSpeed(0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	e.Run(ctx)
	if steps != 0 {
		t.Fatalf("paused engine stepped %d times", steps)
	}
}

func TestEngineStop(t *testing.T) {
	e := NewEngine(func() (uint64, bool) { return 0, false })
	e.Interval = time.Millisecond

	done := make(chan struct{})
	go func() {
		e.Run(context.Background())
		close(done)
	}()
	for !e.Running() {
		time.Sleep(time.Millisecond)
	}
	e.Stop()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Stop did not end Run")
	}
}
