// Package agents provides the vineyard's people: harvesters, producers,
// retailers and customers, each driven by a small state machine whose
// role-specific decisions come from a per-role policy table.
package agents

import (
	"log/slog"
	"time"

	"github.com/der-cain/npc-town/internal/clock"
	"github.com/der-cain/npc-town/internal/economy"
	"github.com/der-cain/npc-town/internal/geom"
	"github.com/der-cain/npc-town/internal/sched"
	"github.com/der-cain/npc-town/internal/world"
)

// AgentID is a unique identifier for an agent.
type AgentID uint64

// Role selects an agent's work policy.
type Role uint8

const (
	RoleHarvester Role = iota // Picks grapes, delivers them to the winery
	RoleProducer              // Carries wine from the winery to the shop
	RoleRetailer              // Keeps the shop; no autonomous work
	RoleCustomer              // Transient buyer
)

var roleNames = [...]string{
	RoleHarvester: "harvester",
	RoleProducer:  "producer",
	RoleRetailer:  "retailer",
	RoleCustomer:  "customer",
}

func (r Role) String() string {
	if int(r) < len(roleNames) {
		return roleNames[r]
	}
	return "unknown"
}

// IsWorker reports whether the role has a home and a work position.
func (r Role) IsWorker() bool { return r != RoleCustomer }

// Rand is the random source agents draw from.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Tuning holds agent behaviour parameters.
type Tuning struct {
	Speed              float64       // Movement speed in units per second
	ArriveDistance     float64       // A waypoint counts as reached inside this radius
	HarvestDuration    time.Duration // Time to pick one grape
	MaxInventory       int           // Harvester carry limit
	DeliveryBatch      int           // Wine a producer collects per trip
	DeliveryRetryDelay time.Duration // Cooldown after a station rejects a delivery
	BuyDuration        time.Duration // Customer decision delay
	BuyChance          float64       // Probability a customer buys when stock is available
}

// DefaultTuning returns the stock behaviour parameters.
func DefaultTuning() Tuning {
	return Tuning{
		Speed:              80,
		ArriveDistance:     5,
		HarvestDuration:    500 * time.Millisecond,
		MaxInventory:       20,
		DeliveryBatch:      1,
		DeliveryRetryDelay: 2 * time.Second,
		BuyDuration:        2 * time.Second,
		BuyChance:          0.8,
	}
}

// Event is a notable agent occurrence.
type Event struct {
	Agent       AgentID `json:"agent"`
	Role        Role    `json:"role"`
	Category    string  `json:"category"` // "harvest", "delivery", "sale", "rest", ...
	Description string  `json:"description"`
}

// Env is the set of world services an agent works against. One Env is
// shared by every agent of a simulation.
type Env struct {
	Clock  *clock.Clock
	Map    *world.Map
	Sched  *sched.Scheduler
	Winery *economy.Station
	Shop   *economy.Station
	Plots  []*economy.Plot
	Tuning Tuning
	Rand   Rand
	Logger *slog.Logger

	// Report receives agent events. May be nil.
	Report func(Event)
}

func (e *Env) plot(id int) *economy.Plot {
	for _, p := range e.Plots {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Agent is a single person moving around the vineyard.
type Agent struct {
	ID   AgentID `json:"id"`
	Name string  `json:"name"`
	Role Role    `json:"role"`

	// Layout keys. Empty for customers.
	HomeKey     string `json:"home_key,omitempty"`
	HomeDoorKey string `json:"home_door_key,omitempty"`
	WorkKey     string `json:"work_key,omitempty"`

	env    *Env
	body   Body
	logger *slog.Logger

	state     State
	inventory economy.Slot
	parked    *Resumption
	retryAt   time.Duration // No delivery attempts before this scheduler time
	bought    bool
	active    bool
	subs      []*clock.Subscription
}

// NewAgent creates an agent with the given body and subscribes it to the
// clock. The agent has no state until Start is called.
func NewAgent(id AgentID, name string, role Role, body Body, env *Env) *Agent {
	logger := env.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &Agent{
		ID:     id,
		Name:   name,
		Role:   role,
		env:    env,
		body:   body,
		logger: logger.With("agent", id, "role", role.String()),
		active: true,
	}
	a.subs = append(a.subs,
		env.Clock.Subscribe(clock.GoHomeTime, func(clock.Event) { a.onGoHome() }),
		env.Clock.Subscribe(clock.NightStarted, func(clock.Event) { a.onNight() }),
	)
	return a
}

// Start enters the agent's first state.
func (a *Agent) Start(s State) {
	a.ChangeState(s)
}

// ChangeState exits the current state and enters next.
func (a *Agent) ChangeState(next State) {
	prev := a.state
	if prev != nil {
		prev.Exit(a)
	}
	a.state = next
	if prev != nil {
		a.logger.Debug("state change", "from", prev.Kind().String(), "to", next.Kind().String())
	}
	next.Enter(a)
}

// Tick runs the current state's per-tick logic.
func (a *Agent) Tick(dt time.Duration) {
	if a.state == nil || !a.active {
		return
	}
	a.state.Tick(a, dt)
}

// Destroy exits the current state and drops every clock subscription.
func (a *Agent) Destroy() {
	if a.state != nil {
		a.state.Exit(a)
	}
	for _, s := range a.subs {
		s.Unsubscribe()
	}
	a.subs = nil
	a.active = false
}

// State returns the live state.
func (a *Agent) State() State { return a.state }

// StateName returns the current state's display name.
func (a *Agent) StateName() string {
	if a.state == nil {
		return "None"
	}
	return a.state.Kind().String()
}

// IsDespawned reports whether the agent reached its terminal state.
func (a *Agent) IsDespawned() bool {
	return a.state != nil && a.state.Kind() == KindDespawned
}

// Inventory returns the carried slot.
func (a *Agent) Inventory() economy.Slot { return a.inventory }

// Position returns the body position.
func (a *Agent) Position() geom.Point { return a.body.Position() }

// Body returns the motion backend.
func (a *Agent) Body() Body { return a.body }

// Bought reports whether a customer completed a purchase.
func (a *Agent) Bought() bool { return a.bought }

// Parked returns the resumption descriptor saved when the agent was sent to
// rest mid-task, or nil.
func (a *Agent) Parked() *Resumption { return a.parked }

func (a *Agent) report(category, description string) {
	if a.env.Report == nil {
		return
	}
	a.env.Report(Event{Agent: a.ID, Role: a.Role, Category: category, Description: description})
}

// AgentSnapshot is a read-only view for display.
type AgentSnapshot struct {
	ID        AgentID      `json:"id"`
	Name      string       `json:"name"`
	Role      string       `json:"role"`
	State     string       `json:"state"`
	Position  geom.Point   `json:"position"`
	Inventory economy.Slot `json:"inventory"`
}

// Snapshot returns the agent's current display state.
func (a *Agent) Snapshot() AgentSnapshot {
	return AgentSnapshot{
		ID:        a.ID,
		Name:      a.Name,
		Role:      a.Role.String(),
		State:     a.StateName(),
		Position:  a.Position(),
		Inventory: a.inventory,
	}
}
