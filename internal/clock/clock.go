// Package clock provides the day/night cycle: a wrapping time of day that
// advances at separate day and night rates and announces each threshold
// crossing exactly once.
package clock

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"
)

// MinRate is the floor applied to day, night and skip rates so time always
// moves forward.
const MinRate = 0.05

// Config holds clock parameters. Times of day are fractions of a full day,
// 0 being midnight.
type Config struct {
	DayLength  time.Duration // Real duration of one full day at rate 1
	Start      float64       // Initial time of day
	DayStart   float64
	GoHome     float64
	NightStart float64
	DayRate    float64
	NightRate  float64
}

// DefaultConfig mirrors the original tuning: a two-minute day starting just
// before dawn, dawn at ~03:36, go-home at ~15:36, night at ~16:48.
func DefaultConfig() Config {
	return Config{
		DayLength:  120 * time.Second,
		Start:      0.05,
		DayStart:   0.15,
		GoHome:     0.65,
		NightStart: 0.70,
		DayRate:    1,
		NightRate:  1,
	}
}

// Validate checks threshold ordering and ranges.
func (c Config) Validate() error {
	if c.DayLength <= 0 {
		return errors.New("day length must be positive")
	}
	if c.Start < 0 || c.Start >= 1 {
		return fmt.Errorf("start %.3f outside [0,1)", c.Start)
	}
	if !(c.DayStart >= 0 && c.DayStart < c.GoHome && c.GoHome < c.NightStart && c.NightStart < 1) {
		return fmt.Errorf("thresholds must satisfy 0 <= day_start < go_home < night_start < 1 (got %.3f, %.3f, %.3f)",
			c.DayStart, c.GoHome, c.NightStart)
	}
	return nil
}

// Clock tracks the time of day. It is driven by Advance from the single
// simulation goroutine and is not safe for concurrent use.
type Clock struct {
	cfg       Config
	t         float64
	day       int
	dayRate   float64
	nightRate float64

	skipping bool
	skipRate float64

	bus    *bus
	logger *slog.Logger
}

// New creates a clock from cfg.
func New(cfg Config, logger *slog.Logger) (*Clock, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("clock config: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Clock{
		cfg:       cfg,
		t:         cfg.Start,
		day:       1,
		dayRate:   floorRate(cfg.DayRate),
		nightRate: floorRate(cfg.NightRate),
		bus:       newBus(),
		logger:    logger,
	}, nil
}

func floorRate(r float64) float64 {
	if math.IsNaN(r) || r < MinRate {
		return MinRate
	}
	return r
}

// TimeOfDay returns the current time of day in [0,1).
func (c *Clock) TimeOfDay() float64 { return c.t }

// Day returns the day counter, starting at 1 and incremented at midnight.
func (c *Clock) Day() int { return c.day }

// Config returns the clock configuration.
func (c *Clock) Config() Config { return c.cfg }

// IsDaytime reports dayStart <= t < nightStart.
func (c *Clock) IsDaytime() bool {
	return c.t >= c.cfg.DayStart && c.t < c.cfg.NightStart
}

// IsGoHomeWindow reports goHome <= t < nightStart.
func (c *Clock) IsGoHomeWindow() bool {
	return c.t >= c.cfg.GoHome && c.t < c.cfg.NightStart
}

// SetDayRate sets the daytime multiplier, floored at MinRate.
func (c *Clock) SetDayRate(r float64) { c.dayRate = floorRate(r) }

// SetNightRate sets the night multiplier, floored at MinRate.
func (c *Clock) SetNightRate(r float64) { c.nightRate = floorRate(r) }

// DayRate returns the daytime multiplier.
func (c *Clock) DayRate() float64 { return c.dayRate }

// NightRate returns the night multiplier.
func (c *Clock) NightRate() float64 { return c.nightRate }

// StartNightSkip accelerates night to at least rate until the next
// DayStarted.
func (c *Clock) StartNightSkip(rate float64) {
	if c.skipping {
		return
	}
	c.skipping = true
	c.skipRate = floorRate(rate)
	c.logger.Info("night skip started", "rate", c.skipRate)
}

// StopNightSkip returns night to its configured rate.
func (c *Clock) StopNightSkip() {
	if !c.skipping {
		return
	}
	c.skipping = false
	c.logger.Info("night skip stopped")
}

// SkippingNight reports whether a night skip is active.
func (c *Clock) SkippingNight() bool { return c.skipping }

// ActiveRate returns the multiplier the next Advance will apply. It is
// chosen from the current period, so a day/night flip on the previous
// advance already takes effect.
func (c *Clock) ActiveRate() float64 {
	if c.IsDaytime() {
		return c.dayRate
	}
	if c.skipping && c.skipRate > c.nightRate {
		return c.skipRate
	}
	return c.nightRate
}

// Subscribe registers fn for events of kind.
func (c *Clock) Subscribe(kind EventKind, fn Handler) *Subscription {
	return c.bus.add(kind, fn)
}

// Subscribers returns how many live subscriptions exist for kind.
func (c *Clock) Subscribers(kind EventKind) int {
	return c.bus.count(kind)
}

type crossing struct {
	kind EventKind
	dist float64
}

// Advance moves time forward by delta scaled by the active rate and emits
// each threshold crossed on the way, at most once per kind, in the order
// they were passed. It returns the scaled delta so timers and motion can
// run on the same time base.
func (c *Clock) Advance(delta time.Duration) time.Duration {
	if delta <= 0 {
		return 0
	}

	scaled := time.Duration(float64(delta) * c.ActiveRate())
	step := float64(scaled) / float64(c.cfg.DayLength)
	prev := c.t

	var crossed []crossing
	for _, th := range []struct {
		kind EventKind
		at   float64
	}{
		{DayStarted, c.cfg.DayStart},
		{GoHomeTime, c.cfg.GoHome},
		{NightStarted, c.cfg.NightStart},
	} {
		// Distance forward along the dial from prev to the threshold, in (0,1].
		d := th.at - prev
		if d <= 0 {
			d++
		}
		if d <= step {
			crossed = append(crossed, crossing{th.kind, d})
		}
	}
	sort.SliceStable(crossed, func(i, j int) bool { return crossed[i].dist < crossed[j].dist })

	next := prev + step
	wraps := int(math.Floor(next))
	c.t = next - float64(wraps)
	c.day += wraps

	for _, x := range crossed {
		if x.kind == DayStarted && c.skipping {
			c.StopNightSkip()
		}
		c.logger.Debug("clock event", "event", x.kind.String(), "day", c.day, "time", c.Format())
		c.bus.emit(Event{Kind: x.kind, Day: c.day, TimeOfDay: c.t})
	}

	return scaled
}

// Format returns the time of day as HH:MM.
func (c *Clock) Format() string {
	total := int(math.Floor(c.t*24*60 + 1e-6))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
