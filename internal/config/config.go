// Package config loads simulation tuning from YAML. Any field left out of
// the file keeps its default.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/der-cain/npc-town/internal/agents"
	"github.com/der-cain/npc-town/internal/clock"
	"github.com/der-cain/npc-town/internal/economy"
	"github.com/der-cain/npc-town/internal/world"
)

// Config is the full tuning set.
type Config struct {
	Seed int64         `yaml:"seed"` // 0 picks a random seed
	Tick time.Duration `yaml:"tick"` // Real time per simulation step

	Clock     Clock     `yaml:"clock"`
	Plots     Plots     `yaml:"plots"`
	Winery    Station   `yaml:"winery"`
	Shop      Station   `yaml:"shop"`
	Agents    Agents    `yaml:"agents"`
	Customers Customers `yaml:"customers"`
	Journal   Journal   `yaml:"journal"`
}

// Clock is the day cycle section.
type Clock struct {
	DayLength  time.Duration `yaml:"day_length"`
	Start      float64       `yaml:"start"`
	DayStart   float64       `yaml:"day_start"`
	GoHome     float64       `yaml:"go_home"`
	NightStart float64       `yaml:"night_start"`
	DayRate    float64       `yaml:"day_rate"`
	NightRate  float64       `yaml:"night_rate"`
}

// Plots places the vineyard grid and times its growth.
type Plots struct {
	Rows        int           `yaml:"rows"`
	Cols        int           `yaml:"cols"`
	Jitter      float64       `yaml:"jitter"`
	BaseGrow    time.Duration `yaml:"base_grow"`
	RegrowDelay time.Duration `yaml:"regrow_delay"`
}

// Station sizes the winery or the shop.
type Station struct {
	MaxInput  int           `yaml:"max_input"`
	MaxOutput int           `yaml:"max_output"`
	BatchSize int           `yaml:"batch_size"`
	Duration  time.Duration `yaml:"duration"`
	Price     int           `yaml:"price"`
}

// Agents tunes worker and customer behaviour.
type Agents struct {
	Speed              float64       `yaml:"speed"`
	ArriveDistance     float64       `yaml:"arrive_distance"`
	HarvestDuration    time.Duration `yaml:"harvest_duration"`
	MaxInventory       int           `yaml:"max_inventory"`
	DeliveryBatch      int           `yaml:"delivery_batch"`
	DeliveryRetryDelay time.Duration `yaml:"delivery_retry_delay"`
	BuyDuration        time.Duration `yaml:"buy_duration"`
	BuyChance          float64       `yaml:"buy_chance"`
}

// Customers schedules shop arrivals.
type Customers struct {
	OpenFrom      float64       `yaml:"open_from"`
	OpenUntil     float64       `yaml:"open_until"`
	Interval      time.Duration `yaml:"interval"`
	Chance        float64       `yaml:"chance"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

// Journal configures the run journal.
type Journal struct {
	Path string `yaml:"path"` // SQLite file; empty disables the run journal
}

// Default returns the stock tuning.
func Default() Config {
	c := clock.DefaultConfig()
	p := economy.DefaultPlotConfig()
	layout := world.DefaultPlotConfig()
	w := economy.WineryConfig()
	s := economy.ShopConfig()
	a := agents.DefaultTuning()
	cu := agents.DefaultCustomerConfig()

	return Config{
		Seed: layout.Seed,
		Tick: 100 * time.Millisecond,
		Clock: Clock{
			DayLength:  c.DayLength,
			Start:      c.Start,
			DayStart:   c.DayStart,
			GoHome:     c.GoHome,
			NightStart: c.NightStart,
			DayRate:    c.DayRate,
			NightRate:  c.NightRate,
		},
		Plots: Plots{
			Rows:        layout.Rows,
			Cols:        layout.Cols,
			Jitter:      layout.Jitter,
			BaseGrow:    p.BaseGrow,
			RegrowDelay: p.RegrowDelay,
		},
		Winery: Station{MaxInput: w.MaxInput, MaxOutput: w.MaxOutput, BatchSize: w.BatchSize, Duration: w.Duration, Price: w.Price},
		Shop:   Station{MaxInput: s.MaxInput, MaxOutput: s.MaxOutput, BatchSize: s.BatchSize, Duration: s.Duration, Price: s.Price},
		Agents: Agents{
			Speed:              a.Speed,
			ArriveDistance:     a.ArriveDistance,
			HarvestDuration:    a.HarvestDuration,
			MaxInventory:       a.MaxInventory,
			DeliveryBatch:      a.DeliveryBatch,
			DeliveryRetryDelay: a.DeliveryRetryDelay,
			BuyDuration:        a.BuyDuration,
			BuyChance:          a.BuyChance,
		},
		Customers: Customers{
			OpenFrom:      cu.OpenFrom,
			OpenUntil:     cu.OpenUntil,
			Interval:      cu.Interval,
			Chance:        cu.Chance,
			MaxConcurrent: cu.MaxConcurrent,
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	if c.Tick <= 0 {
		return errors.New("tick must be positive")
	}
	if err := c.ClockConfig().Validate(); err != nil {
		return fmt.Errorf("clock: %w", err)
	}
	if err := c.PlotConfig().Validate(); err != nil {
		return fmt.Errorf("plots: %w", err)
	}
	if c.Plots.Rows <= 0 || c.Plots.Cols <= 0 {
		return fmt.Errorf("plots: grid %dx%d must be at least 1x1", c.Plots.Rows, c.Plots.Cols)
	}
	if err := c.WineryConfig().Validate(); err != nil {
		return err
	}
	if err := c.ShopConfig().Validate(); err != nil {
		return err
	}
	a := c.Agents
	if a.Speed <= 0 || a.ArriveDistance <= 0 {
		return errors.New("agents: speed and arrive distance must be positive")
	}
	if a.MaxInventory <= 0 || a.DeliveryBatch <= 0 {
		return errors.New("agents: max inventory and delivery batch must be positive")
	}
	if a.DeliveryBatch > c.Winery.MaxOutput {
		return fmt.Errorf("agents: delivery batch %d exceeds winery output %d", a.DeliveryBatch, c.Winery.MaxOutput)
	}
	if a.DeliveryBatch > c.Shop.MaxInput {
		return fmt.Errorf("agents: delivery batch %d exceeds shop input %d", a.DeliveryBatch, c.Shop.MaxInput)
	}
	// Harvesters deliver a full load at once.
	if a.MaxInventory > c.Winery.MaxInput {
		return fmt.Errorf("agents: max inventory %d exceeds winery input %d", a.MaxInventory, c.Winery.MaxInput)
	}
	if a.BuyChance < 0 || a.BuyChance > 1 {
		return fmt.Errorf("agents: buy chance %.2f outside [0,1]", a.BuyChance)
	}
	if a.HarvestDuration < 0 || a.BuyDuration <= 0 || a.DeliveryRetryDelay < 0 {
		return errors.New("agents: durations must not be negative and buy duration must be positive")
	}
	if err := c.CustomerConfig().Validate(); err != nil {
		return fmt.Errorf("customers: %w", err)
	}
	return nil
}

// ClockConfig returns the clock section.
func (c Config) ClockConfig() clock.Config {
	return clock.Config{
		DayLength:  c.Clock.DayLength,
		Start:      c.Clock.Start,
		DayStart:   c.Clock.DayStart,
		GoHome:     c.Clock.GoHome,
		NightStart: c.Clock.NightStart,
		DayRate:    c.Clock.DayRate,
		NightRate:  c.Clock.NightRate,
	}
}

// PlotConfig returns growth timings.
func (c Config) PlotConfig() economy.PlotConfig {
	return economy.PlotConfig{BaseGrow: c.Plots.BaseGrow, RegrowDelay: c.Plots.RegrowDelay}
}

// PlotLayout returns the vineyard grid, seeded from the run seed.
func (c Config) PlotLayout(seed int64) world.PlotConfig {
	return world.PlotConfig{Rows: c.Plots.Rows, Cols: c.Plots.Cols, Seed: seed, Jitter: c.Plots.Jitter}
}

// WineryConfig returns the winery station.
func (c Config) WineryConfig() economy.StationConfig {
	return c.Winery.apply(economy.WineryConfig())
}

// ShopConfig returns the shop station.
func (c Config) ShopConfig() economy.StationConfig {
	return c.Shop.apply(economy.ShopConfig())
}

func (s Station) apply(base economy.StationConfig) economy.StationConfig {
	base.MaxInput = s.MaxInput
	base.MaxOutput = s.MaxOutput
	base.BatchSize = s.BatchSize
	base.Duration = s.Duration
	base.Price = s.Price
	return base
}

// AgentTuning returns agent behaviour parameters.
func (c Config) AgentTuning() agents.Tuning {
	a := c.Agents
	return agents.Tuning{
		Speed:              a.Speed,
		ArriveDistance:     a.ArriveDistance,
		HarvestDuration:    a.HarvestDuration,
		MaxInventory:       a.MaxInventory,
		DeliveryBatch:      a.DeliveryBatch,
		DeliveryRetryDelay: a.DeliveryRetryDelay,
		BuyDuration:        a.BuyDuration,
		BuyChance:          a.BuyChance,
	}
}

// CustomerConfig returns the customer arrival schedule.
func (c Config) CustomerConfig() agents.CustomerConfig {
	cu := c.Customers
	return agents.CustomerConfig{
		OpenFrom:      cu.OpenFrom,
		OpenUntil:     cu.OpenUntil,
		Interval:      cu.Interval,
		Chance:        cu.Chance,
		MaxConcurrent: cu.MaxConcurrent,
	}
}
