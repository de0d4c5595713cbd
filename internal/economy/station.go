package economy

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/der-cain/npc-town/internal/sched"
)

// Scheduler defers callbacks on simulated time.
type Scheduler interface {
	After(d time.Duration, fn func()) *sched.Timer
}

// StationConfig describes a converting station.
type StationConfig struct {
	Name      string
	Input     ItemKind
	Output    ItemKind
	MaxInput  int
	MaxOutput int
	BatchSize int           // Input consumed per conversion
	Duration  time.Duration // Time from batch start to one output unit
	Price     int           // Revenue per unit sold; 0 for stations that do not sell
}

// WineryConfig returns the grape press: 5 grapes make one wine in 5 s.
func WineryConfig() StationConfig {
	return StationConfig{
		Name:      "winery",
		Input:     ItemGrape,
		Output:    ItemWine,
		MaxInput:  30,
		MaxOutput: 5,
		BatchSize: 5,
		Duration:  5 * time.Second,
	}
}

// ShopConfig returns the shop: delivered wine is shelved one bottle at a time.
func ShopConfig() StationConfig {
	return StationConfig{
		Name:      "shop",
		Input:     ItemWine,
		Output:    ItemWine,
		MaxInput:  10,
		MaxOutput: 10,
		BatchSize: 1,
		Duration:  250 * time.Millisecond,
		Price:     12,
	}
}

// Validate checks capacities and batch size.
func (c StationConfig) Validate() error {
	if c.MaxInput <= 0 || c.MaxOutput <= 0 {
		return fmt.Errorf("%s: capacities must be positive", c.Name)
	}
	if c.BatchSize <= 0 || c.BatchSize > c.MaxInput {
		return fmt.Errorf("%s: batch size %d outside 1..%d", c.Name, c.BatchSize, c.MaxInput)
	}
	if c.Duration < 0 {
		return fmt.Errorf("%s: negative duration", c.Name)
	}
	if c.Price < 0 {
		return fmt.Errorf("%s: negative price", c.Name)
	}
	return nil
}

// Station buffers input, converts one batch at a time into a single output
// unit, and holds finished output until collected.
type Station struct {
	cfg    StationConfig
	sched  Scheduler
	logger *slog.Logger

	input      int
	output     int
	converting bool
	timer      *sched.Timer
	closed     bool

	produced int
	spoiled  int
	sold     int
	revenue  int
}

// NewStation creates an empty, idle station.
func NewStation(cfg StationConfig, s Scheduler, logger *slog.Logger) (*Station, error) {
	if s == nil {
		return nil, errors.New("station needs a scheduler")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("station config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Station{
		cfg:    cfg,
		sched:  s,
		logger: logger.With("station", cfg.Name),
	}, nil
}

// Name returns the station name.
func (st *Station) Name() string { return st.cfg.Name }

// Config returns the station configuration.
func (st *Station) Config() StationConfig { return st.cfg }

// InputStock returns buffered input.
func (st *Station) InputStock() int { return st.input }

// OutputStock returns finished output awaiting collection.
func (st *Station) OutputStock() int { return st.output }

// IsConverting reports whether a batch is in progress.
func (st *Station) IsConverting() bool { return st.converting }

// AddInput accepts n units unless that would exceed MaxInput, in which case
// nothing changes and it returns false.
func (st *Station) AddInput(n int) bool {
	if n <= 0 || st.closed || st.input+n > st.cfg.MaxInput {
		return false
	}
	st.input += n
	st.tryStartConversion()
	return true
}

// CollectOutput removes n finished units, or returns false if fewer are
// available. Freed space may let a waiting batch start.
func (st *Station) CollectOutput(n int) bool {
	if n <= 0 || st.output < n {
		return false
	}
	st.output -= n
	st.tryStartConversion()
	return true
}

// Sell collects n units and books them as sales.
func (st *Station) Sell(n int) bool {
	if !st.CollectOutput(n) {
		return false
	}
	st.sold += n
	st.revenue += n * st.cfg.Price
	return true
}

func (st *Station) tryStartConversion() {
	if st.closed || st.converting || st.input < st.cfg.BatchSize || st.output >= st.cfg.MaxOutput {
		return
	}
	st.input -= st.cfg.BatchSize
	st.converting = true
	st.timer = st.sched.After(st.cfg.Duration, st.complete)
	st.logger.Debug("conversion started", "input", st.input, "output", st.output)
}

func (st *Station) complete() {
	st.converting = false
	st.timer = nil
	if st.output < st.cfg.MaxOutput {
		st.output++
		st.produced++
	} else {
		// Unreachable while the start guard holds; never over-count.
		st.spoiled++
		st.logger.Warn("output full, unit lost", "spoiled", st.spoiled)
	}
	st.tryStartConversion()
}

// Close cancels any batch in progress and stops further conversions.
func (st *Station) Close() {
	st.closed = true
	if st.timer != nil {
		st.timer.Cancel()
		st.timer = nil
	}
	st.converting = false
}

// StationSnapshot is a read-only view for display and reporting.
type StationSnapshot struct {
	Name       string `json:"name"`
	Input      int    `json:"input"`
	MaxInput   int    `json:"max_input"`
	Output     int    `json:"output"`
	MaxOutput  int    `json:"max_output"`
	Converting bool   `json:"converting"`
	Produced   int    `json:"produced"`
	Spoiled    int    `json:"spoiled"`
	Sold       int    `json:"sold"`
	Revenue    int    `json:"revenue"`
}

// Snapshot returns the current station state.
func (st *Station) Snapshot() StationSnapshot {
	return StationSnapshot{
		Name:       st.cfg.Name,
		Input:      st.input,
		MaxInput:   st.cfg.MaxInput,
		Output:     st.output,
		MaxOutput:  st.cfg.MaxOutput,
		Converting: st.converting,
		Produced:   st.produced,
		Spoiled:    st.spoiled,
		Sold:       st.sold,
		Revenue:    st.revenue,
	}
}
