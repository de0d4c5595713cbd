// Simulation ties together all world systems and runs them each tick.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/der-cain/npc-town/internal/agents"
	"github.com/der-cain/npc-town/internal/clock"
	"github.com/der-cain/npc-town/internal/config"
	"github.com/der-cain/npc-town/internal/economy"
	"github.com/der-cain/npc-town/internal/entropy"
	"github.com/der-cain/npc-town/internal/sched"
	"github.com/der-cain/npc-town/internal/world"
)

// maxEvents bounds the recent event buffer.
const maxEvents = 1000

// Simulation holds the complete world state and wires systems together.
type Simulation struct {
	Clock  *clock.Clock
	Sched  *sched.Scheduler
	Map    *world.Map
	Plots  []*economy.Plot
	Winery *economy.Station
	Shop   *economy.Station
	Agents []*agents.Agent

	Spawner   *agents.Spawner
	Customers *agents.CustomerSpawner

	Events  []Event    // Recent events, oldest first
	History []DayStats // Completed days

	// OnDay is called when a day closes, with that day's events.
	OnDay func(stats DayStats, events []Event)

	seed      int64
	elapsed   time.Duration
	env       *agents.Env
	logger    *slog.Logger
	daySub    *clock.Subscription
	today     int
	dayOpen   bool
	dayEvents []Event
	baseline  totals
	harvested int
	arrivals  int
}

// Event is a notable occurrence in the world.
type Event struct {
	Day         int    `json:"day" db:"day"`
	Time        string `json:"time" db:"clock"`
	Agent       uint64 `json:"agent" db:"agent"`
	Role        string `json:"role" db:"role"`
	Category    string `json:"category" db:"category"`
	Description string `json:"description" db:"description"`
}

// NewSimulation builds the default vineyard from cfg: map, plots, winery,
// shop and one worker per role.
func NewSimulation(cfg config.Config, logger *slog.Logger) (*Simulation, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	rng := entropy.New(cfg.Seed)
	clk, err := clock.New(cfg.ClockConfig(), logger)
	if err != nil {
		return nil, err
	}
	s := sched.New()
	m := world.DefaultLayout(logger)

	winery, err := economy.NewStation(cfg.WineryConfig(), s, logger)
	if err != nil {
		return nil, err
	}
	shop, err := economy.NewStation(cfg.ShopConfig(), s, logger)
	if err != nil {
		return nil, err
	}

	plotRng := rng.Split("plots")
	var plots []*economy.Plot
	for i, p := range world.PlacePlots(m.Area(world.AreaVineyard), cfg.PlotLayout(rng.Seed())) {
		plot, err := economy.NewPlot(i+1, p, cfg.PlotConfig(), s, plotRng)
		if err != nil {
			return nil, fmt.Errorf("plot %d: %w", i+1, err)
		}
		plots = append(plots, plot)
	}

	sim := &Simulation{
		Clock:  clk,
		Sched:  s,
		Map:    m,
		Plots:  plots,
		Winery: winery,
		Shop:   shop,
		seed:   rng.Seed(),
		logger: logger,
	}
	sim.today = clk.Day()
	sim.dayOpen = clk.IsDaytime()

	sim.env = &agents.Env{
		Clock:  clk,
		Map:    m,
		Sched:  s,
		Winery: winery,
		Shop:   shop,
		Plots:  plots,
		Tuning: cfg.AgentTuning(),
		Rand:   rng.Split("agents"),
		Logger: logger,
		Report: sim.record,
	}
	// Subscribed before any agent so the closing day is tallied first.
	sim.daySub = clk.Subscribe(clock.DayStarted, sim.onDayStarted)

	sim.Spawner = agents.NewSpawner(sim.env)
	for _, role := range []agents.Role{agents.RoleHarvester, agents.RoleProducer, agents.RoleRetailer} {
		a, err := sim.Spawner.SpawnWorker(role)
		if err != nil {
			return nil, fmt.Errorf("spawn %s: %w", role, err)
		}
		sim.Agents = append(sim.Agents, a)
	}
	sim.Customers = agents.NewCustomerSpawner(cfg.CustomerConfig(), sim.Spawner)

	logger.Info("world created",
		"seed", sim.seed,
		"plots", len(plots),
		"agents", len(sim.Agents),
		"time", clk.Format(),
	)
	return sim, nil
}

// Seed returns the seed the world was built from.
func (s *Simulation) Seed() int64 { return s.seed }

// Elapsed returns total simulated time after clock scaling.
func (s *Simulation) Elapsed() time.Duration { return s.elapsed }

// integrator is a body that the simulation moves itself.
type integrator interface {
	Integrate(dt time.Duration)
}

// Step advances the world by dt of real time: clock, timers, motion, agent
// states, then customer arrivals and departures.
func (s *Simulation) Step(dt time.Duration) {
	scaled := s.Clock.Advance(dt)
	s.elapsed += scaled
	s.Sched.Advance(scaled)

	for _, a := range s.Agents {
		if b, ok := a.Body().(integrator); ok {
			b.Integrate(scaled)
		}
	}
	for _, a := range s.Agents {
		a.Tick(scaled)
	}

	s.spawnCustomers(scaled)

	var removed int
	s.Agents, removed = agents.Sweep(s.Agents)
	if removed > 0 {
		s.logger.Debug("customers left", "count", removed, "present", s.customerCount())
	}
}

func (s *Simulation) spawnCustomers(dt time.Duration) {
	c, err := s.Customers.Tick(dt, s.customerCount())
	if err != nil {
		s.logger.Warn("customer spawn failed", "error", err)
		return
	}
	if c == nil {
		return
	}
	s.arrivals++
	s.Agents = append(s.Agents, c)
	s.record(agents.Event{Agent: c.ID, Role: c.Role, Category: "arrival", Description: c.Name + " arrives at the shop"})
}

func (s *Simulation) customerCount() int {
	n := 0
	for _, a := range s.Agents {
		if a.Role == agents.RoleCustomer {
			n++
		}
	}
	return n
}

// record stamps an agent event with the clock and buffers it.
func (s *Simulation) record(ev agents.Event) {
	e := Event{
		Day:         s.Clock.Day(),
		Time:        s.Clock.Format(),
		Agent:       uint64(ev.Agent),
		Role:        ev.Role.String(),
		Category:    ev.Category,
		Description: ev.Description,
	}
	if ev.Category == "harvest" {
		s.harvested++
	}
	s.Events = append(s.Events, e)
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
	s.dayEvents = append(s.dayEvents, e)
	s.logger.Debug("event", "category", e.Category, "description", e.Description)
}

// Close stops every timer and releases agent subscriptions.
func (s *Simulation) Close() {
	for _, a := range s.Agents {
		a.Destroy()
	}
	s.Agents = nil
	for _, p := range s.Plots {
		p.Close()
	}
	s.Winery.Close()
	s.Shop.Close()
	s.daySub.Unsubscribe()
}

// WorldSnapshot is a read-only view of the whole world.
type WorldSnapshot struct {
	Day       int                     `json:"day"`
	Time      string                  `json:"time"`
	Daytime   bool                    `json:"daytime"`
	RipePlots int                     `json:"ripe_plots"`
	Plots     int                     `json:"plots"`
	Winery    economy.StationSnapshot `json:"winery"`
	Shop      economy.StationSnapshot `json:"shop"`
	Agents    []agents.AgentSnapshot  `json:"agents"`
}

// Snapshot returns the current world state for display.
func (s *Simulation) Snapshot() WorldSnapshot {
	snap := WorldSnapshot{
		Day:       s.Clock.Day(),
		Time:      s.Clock.Format(),
		Daytime:   s.Clock.IsDaytime(),
		RipePlots: len(economy.RipePlots(s.Plots)),
		Plots:     len(s.Plots),
		Winery:    s.Winery.Snapshot(),
		Shop:      s.Shop.Snapshot(),
		Agents:    make([]agents.AgentSnapshot, 0, len(s.Agents)),
	}
	for _, a := range s.Agents {
		snap.Agents = append(snap.Agents, a.Snapshot())
	}
	return snap
}
