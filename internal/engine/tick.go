// Package engine provides the tick-based simulation loop.
package engine

import (
	"context"
	"log/slog"
	"time"
)

// Engine drives a step function forward in real time.
type Engine struct {
	Speed    float64       // Multiplier: 1.0 = real-time, 0 = paused
	Interval time.Duration // Real time between steps at speed 1
	Step     time.Duration // Simulated time handed to each step

	// OnStep advances the world by dt. Populated during setup.
	OnStep func(dt time.Duration)

	steps  uint64
	logger *slog.Logger
}

// NewEngine creates an engine stepping 100ms of simulated time every 100ms.
func NewEngine(onStep func(dt time.Duration), logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Speed:    1.0,
		Interval: 100 * time.Millisecond,
		Step:     100 * time.Millisecond,
		OnStep:   onStep,
		logger:   logger,
	}
}

// Steps returns the number of steps taken so far.
func (e *Engine) Steps() uint64 { return e.steps }

// Run steps the simulation until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("simulation engine started", "step", e.Step, "speed", e.Speed)
	defer func() { e.logger.Info("simulation engine stopped", "steps", e.steps) }()

	for {
		wait := 100 * time.Millisecond // Paused: check again shortly.
		if e.Speed > 0 {
			start := time.Now()
			e.step()
			wait = time.Duration(float64(e.Interval)/e.Speed) - time.Since(start)
		}

		if wait <= 0 {
			if err := ctx.Err(); err != nil {
				return nil
			}
			continue
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// RunFor takes n steps without pacing.
func (e *Engine) RunFor(n int) {
	for i := 0; i < n; i++ {
		e.step()
	}
}

// RunUntil takes steps without pacing until done reports true or max steps
// pass. It reports whether done held.
func (e *Engine) RunUntil(max int, done func() bool) bool {
	for i := 0; i < max; i++ {
		if done() {
			return true
		}
		e.step()
	}
	return done()
}

func (e *Engine) step() {
	e.steps++
	if e.OnStep != nil {
		e.OnStep(e.Step)
	}
}
