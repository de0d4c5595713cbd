package agents

import (
	"slices"
	"time"

	"github.com/der-cain/npc-town/internal/clock"
	"github.com/der-cain/npc-town/internal/economy"
	"github.com/der-cain/npc-town/internal/geom"
	"github.com/der-cain/npc-town/internal/sched"
	"github.com/der-cain/npc-town/internal/world"
)

// Idle stands still and asks the role policy for work every tick.
type Idle struct{}

// NewIdle returns the Idle state.
func NewIdle() *Idle { return &Idle{} }

func (*Idle) Kind() StateKind { return KindIdle }

func (*Idle) Enter(a *Agent) { a.body.Stop() }

func (*Idle) Tick(a *Agent, _ time.Duration) { a.policy().seekWork(a) }

func (*Idle) Exit(*Agent) {}

// Moving walks a path point by point and hands the final point to the
// role's arrival handler.
type Moving struct {
	path    []geom.Point
	purpose Purpose
	index   int
	plotID  int // Target plot for MovingToHarvest
}

// NewMoving follows path from its first point.
func NewMoving(path []geom.Point, purpose Purpose) *Moving {
	return resumeMoving(path, purpose, 0)
}

func resumeMoving(path []geom.Point, purpose Purpose, index int) *Moving {
	return &Moving{path: slices.Clone(path), purpose: purpose, index: index}
}

func newMovingToPlot(path []geom.Point, plot *economy.Plot) *Moving {
	m := NewMoving(path, PurposeMovingToHarvest)
	m.plotID = plot.ID
	return m
}

func (*Moving) Kind() StateKind { return KindMoving }

// Purpose returns why the agent is walking.
func (m *Moving) Purpose() Purpose { return m.purpose }

// Index returns the index of the point currently targeted.
func (m *Moving) Index() int { return m.index }

// Target returns the point currently targeted.
func (m *Moving) Target() geom.Point { return m.path[m.index] }

// Path returns a copy of the path.
func (m *Moving) Path() []geom.Point { return slices.Clone(m.path) }

func (m *Moving) Enter(a *Agent) {
	if len(m.path) == 0 || m.index < 0 || m.index >= len(m.path) {
		a.logger.Warn("invalid path, going idle", "purpose", m.purpose.String(), "points", len(m.path), "index", m.index)
		a.ChangeState(NewIdle())
		return
	}
	a.body.MoveTowards(m.path[m.index], a.env.Tuning.Speed)
}

func (m *Moving) Tick(a *Agent, _ time.Duration) {
	if !reached(a.body, m.path[m.index], a.env.Tuning.ArriveDistance) {
		return
	}
	m.index++
	if m.index >= len(m.path) {
		last := m.path[len(m.path)-1]
		m.index = len(m.path) - 1
		a.body.Stop()
		a.handleArrival(m, last)
		return
	}
	a.body.MoveTowards(m.path[m.index], a.env.Tuning.Speed)
}

func (*Moving) Exit(a *Agent) { a.body.Stop() }

func (m *Moving) Resumption() Resumption {
	return Resumption{
		Kind:    KindMoving,
		Path:    slices.Clone(m.path),
		Index:   m.index,
		Purpose: m.purpose,
		PlotID:  m.plotID,
	}
}

// Resting waits for the next DayStarted, then resumes the parked task or
// starts the day.
type Resting struct {
	sub *clock.Subscription
}

// NewResting returns a Resting state.
func NewResting() *Resting { return &Resting{} }

func (*Resting) Kind() StateKind { return KindResting }

func (s *Resting) Enter(a *Agent) {
	a.body.Stop()
	s.sub = a.env.Clock.Subscribe(clock.DayStarted, func(clock.Event) {
		if a.state != State(s) {
			return
		}
		a.wake()
	})
}

func (*Resting) Tick(*Agent, time.Duration) {}

func (s *Resting) Exit(*Agent) {
	s.sub.Unsubscribe()
	s.sub = nil
}

// Harvesting picks one grape from a ripe plot.
type Harvesting struct {
	plot  *economy.Plot
	timer *sched.Timer
}

// NewHarvesting targets plot.
func NewHarvesting(plot *economy.Plot) *Harvesting { return &Harvesting{plot: plot} }

func (*Harvesting) Kind() StateKind { return KindHarvesting }

// Plot returns the targeted plot.
func (s *Harvesting) Plot() *economy.Plot { return s.plot }

func (s *Harvesting) Enter(a *Agent) {
	a.body.Stop()
	if s.plot == nil || !s.plot.IsRipe() {
		a.logger.Debug("plot no longer ripe", "plot", plotID(s.plot))
		a.ChangeState(NewIdle())
		return
	}
	plot := s.plot
	s.timer = a.env.Sched.After(a.env.Tuning.HarvestDuration, func() {
		if a.state != State(s) || s.plot != plot {
			return
		}
		s.timer = nil
		s.finish(a)
	})
}

func (s *Harvesting) finish(a *Agent) {
	limit := a.env.Tuning.MaxInventory
	if a.inventory.Quantity >= limit {
		a.deliverGrapes()
		return
	}
	if !s.plot.Harvest() {
		a.logger.Debug("harvest lost the race", "plot", s.plot.ID)
		a.ChangeState(NewIdle())
		return
	}
	a.inventory.Add(economy.ItemGrape, 1, limit)
	a.report("harvest", a.Name+" picks grapes")
	if a.inventory.Quantity >= limit {
		a.deliverGrapes()
		return
	}
	a.ChangeState(NewIdle())
}

func (*Harvesting) Tick(*Agent, time.Duration) {}

func (s *Harvesting) Exit(*Agent) {
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
}

func (s *Harvesting) Resumption() Resumption {
	return Resumption{Kind: KindHarvesting, PlotID: plotID(s.plot)}
}

func plotID(p *economy.Plot) int {
	if p == nil {
		return -1
	}
	return p.ID
}

// EnteringShop finds the way to the shop door and hands over to Moving.
type EnteringShop struct{}

// NewEnteringShop returns the EnteringShop state.
func NewEnteringShop() *EnteringShop { return &EnteringShop{} }

func (*EnteringShop) Kind() StateKind { return KindEnteringShop }

func (*EnteringShop) Enter(a *Agent) {
	door, ok := a.env.Map.LookupPoint(world.KeyShopDoor)
	if !ok {
		a.logger.Warn("no shop door, going idle")
		a.ChangeState(NewIdle())
		return
	}
	path := a.env.Map.FindPath(a.Position(), door, world.KeyCustomerSpawn, world.KeyShopDoor)
	if len(path) == 0 {
		a.logger.Warn("no path to shop door, going idle")
		a.ChangeState(NewIdle())
		return
	}
	a.ChangeState(NewMoving(path, PurposeEnteringShop))
}

func (*EnteringShop) Tick(*Agent, time.Duration) {}
func (*EnteringShop) Exit(*Agent)                {}

// BuyingWine waits out the decision delay, buys with some probability, and
// leaves once a decision is made. An empty shelf postpones the decision.
type BuyingWine struct {
	timer   *sched.Timer
	decided bool
}

// NewBuyingWine returns a BuyingWine state.
func NewBuyingWine() *BuyingWine { return &BuyingWine{} }

func (*BuyingWine) Kind() StateKind { return KindBuyingWine }

// Decided reports whether the customer has made up their mind.
func (s *BuyingWine) Decided() bool { return s.decided }

func (s *BuyingWine) Enter(a *Agent) {
	a.body.Stop()
	s.schedule(a)
}

func (s *BuyingWine) schedule(a *Agent) {
	s.timer = a.env.Sched.After(a.env.Tuning.BuyDuration, func() {
		if a.state != State(s) {
			return
		}
		s.timer = nil
		s.decide(a)
	})
}

func (s *BuyingWine) decide(a *Agent) {
	shop := a.env.Shop
	if shop.OutputStock() == 0 {
		a.logger.Debug("shop empty, waiting")
		s.schedule(a)
		return
	}
	if a.env.Rand.Float64() < a.env.Tuning.BuyChance {
		if shop.Sell(1) {
			a.bought = true
			a.report("sale", a.Name+" buys a bottle of wine")
		}
	} else {
		a.report("sale", a.Name+" looks around but does not buy")
	}
	s.decided = true
}

func (s *BuyingWine) Tick(a *Agent, _ time.Duration) {
	if !s.decided {
		return
	}
	exit, ok := a.env.Map.LookupPoint(world.KeyCustomerDespawn)
	if !ok {
		a.ChangeState(NewDespawned())
		return
	}
	path := a.env.Map.FindPath(a.Position(), exit, world.KeyShopDoor, world.KeyCustomerDespawn)
	a.ChangeState(NewMoving(path, PurposeLeavingShop))
}

func (s *BuyingWine) Exit(*Agent) {
	if s.timer != nil {
		s.timer.Cancel()
		s.timer = nil
	}
}

// Despawned is terminal. The owner removes despawned agents.
type Despawned struct{}

// NewDespawned returns the Despawned state.
func NewDespawned() *Despawned { return &Despawned{} }

func (*Despawned) Kind() StateKind { return KindDespawned }

func (*Despawned) Enter(a *Agent) {
	a.body.Stop()
	a.active = false
}

func (*Despawned) Tick(*Agent, time.Duration) {}
func (*Despawned) Exit(*Agent)                {}
