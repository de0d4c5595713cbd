package economy

import (
	"errors"
	"fmt"
	"time"

	"github.com/der-cain/npc-town/internal/geom"
	"github.com/der-cain/npc-town/internal/sched"
)

// PlotState is the growth stage of a plot.
type PlotState uint8

const (
	PlotEmpty PlotState = iota
	PlotGrowing
	PlotRipe
)

func (s PlotState) String() string {
	switch s {
	case PlotEmpty:
		return "empty"
	case PlotGrowing:
		return "growing"
	case PlotRipe:
		return "ripe"
	default:
		return "unknown"
	}
}

// Rand is the random source plots draw growth times from.
type Rand interface {
	Float64() float64
}

// PlotConfig holds growth timings.
type PlotConfig struct {
	BaseGrow    time.Duration // Growing -> Ripe takes BaseGrow scaled by a factor in [0.8, 1.2)
	RegrowDelay time.Duration // Empty -> Growing after a harvest
}

// DefaultPlotConfig returns 20 s growth and a 2 s regrow delay.
func DefaultPlotConfig() PlotConfig {
	return PlotConfig{
		BaseGrow:    20 * time.Second,
		RegrowDelay: 2 * time.Second,
	}
}

// Validate checks that timings are positive.
func (c PlotConfig) Validate() error {
	if c.BaseGrow <= 0 {
		return errors.New("plot base grow time must be positive")
	}
	if c.RegrowDelay < 0 {
		return errors.New("plot regrow delay must not be negative")
	}
	return nil
}

// Plot is a vine that ripens, is harvested once, then regrows.
// At most one growth timer is outstanding at any time.
type Plot struct {
	ID       int
	Position geom.Point

	cfg   PlotConfig
	sched Scheduler
	rng   Rand

	state     PlotState
	timer     *sched.Timer
	harvested int
}

// NewPlot creates a plot that starts growing immediately.
func NewPlot(id int, pos geom.Point, cfg PlotConfig, s Scheduler, rng Rand) (*Plot, error) {
	if s == nil || rng == nil {
		return nil, errors.New("plot needs a scheduler and a random source")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("plot %d: %w", id, err)
	}
	p := &Plot{ID: id, Position: pos, cfg: cfg, sched: s, rng: rng}
	p.startGrowing()
	return p, nil
}

// State returns the current growth stage.
func (p *Plot) State() PlotState { return p.state }

// IsRipe reports whether the plot can be harvested.
func (p *Plot) IsRipe() bool { return p.state == PlotRipe }

// Harvested returns the number of successful harvests.
func (p *Plot) Harvested() int { return p.harvested }

// Harvest empties a ripe plot and schedules regrowth. It returns false, with
// no change, unless the plot is ripe.
func (p *Plot) Harvest() bool {
	if p.state != PlotRipe {
		return false
	}
	p.harvested++
	p.setState(PlotEmpty)
	p.timer = p.sched.After(p.cfg.RegrowDelay, p.startGrowing)
	return true
}

// Close cancels any pending growth.
func (p *Plot) Close() {
	p.cancel()
}

func (p *Plot) startGrowing() {
	p.setState(PlotGrowing)
	p.timer = p.sched.After(p.growDuration(), p.ripen)
}

func (p *Plot) ripen() {
	p.setState(PlotRipe)
}

func (p *Plot) growDuration() time.Duration {
	factor := 0.8 + 0.4*p.rng.Float64()
	return time.Duration(float64(p.cfg.BaseGrow) * factor)
}

// setState cancels whatever timer the previous state owned.
func (p *Plot) setState(s PlotState) {
	p.cancel()
	p.state = s
}

func (p *Plot) cancel() {
	if p.timer != nil {
		p.timer.Cancel()
		p.timer = nil
	}
}

// RipePlots returns the plots that are currently ripe, in input order.
func RipePlots(plots []*Plot) []*Plot {
	var ripe []*Plot
	for _, p := range plots {
		if p.IsRipe() {
			ripe = append(ripe, p)
		}
	}
	return ripe
}
