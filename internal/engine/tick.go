// Package engine provides the kingdom simulation: the trade planner, carts,
// the tick orchestrator and the real-time pacer that drives it.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Engine paces a simulation in real time. The simulation itself never
// sleeps; Engine decides when Step is called.
type Engine struct {
	Interval    time.Duration // Base tick interval (default 1 second)
	ReportEvery uint64        // Ticks between OnReport calls, 0 = never

	// Step advances one tick. It returns the tick and whether it advanced.
	Step func() (uint64, bool)
	// OnReport runs every ReportEvery advanced ticks.
	OnReport func(tick uint64)

	mu      sync.Mutex
	speed   float64 // Multiplier: 1.0 = real-time, 0 = paused
	running bool
	cancel  context.CancelFunc
}

// NewEngine creates a pacer with default settings.
func NewEngine(step func() (uint64, bool)) *Engine {
	return &Engine{
		Interval: time.Second,
		Step:     step,
		speed:    1.0,
	}
}

// Speed returns the current speed multiplier.
func (e *Engine) Speed() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.speed
}

// SetSpeed changes the multiplier. Zero or negative pauses pacing.
func (e *Engine) SetSpeed(speed float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if speed < 0 {
		speed = 0
	}
	e.speed = speed
}

// Running reports whether Run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// Run drives the simulation until ctx is done or Stop is called.
func (e *Engine) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.running = true
	e.cancel = cancel
	e.mu.Unlock()
	defer func() {
		cancel()
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	slog.Info("simulation engine started", "speed", e.Speed(), "interval", e.Interval)

	var last uint64
	for {
		speed := e.Speed()
		wait := 100 * time.Millisecond // paused: poll
		if speed > 0 {
			start := time.Now()
			if tick, ok := e.Step(); ok {
				last = tick
				if e.ReportEvery > 0 && tick%e.ReportEvery == 0 && e.OnReport != nil {
					e.OnReport(tick)
				}
			}
			// Sleep for the remainder of the tick interval, adjusted for speed.
			wait = time.Duration(float64(e.Interval)/speed) - time.Since(start)
		}

		if wait <= 0 {
			select {
			case <-ctx.Done():
				slog.Info("simulation engine stopped", "tick", last)
				return
			default:
			}
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("simulation engine stopped", "tick", last)
			return
		case <-timer.C:
		}
	}
}

// Stop halts a running loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
}
