// Agent spawning: the three resident workers at start-up, and the stream of
// customers that visit the shop during opening hours.
package agents

import (
	"errors"
	"fmt"
	"time"

	"github.com/der-cain/npc-town/internal/world"
)

// workerKeys maps each resident role to its home, front door and work
// position.
var workerKeys = map[Role][3]string{
	RoleHarvester: {world.KeyFarmerHome, world.KeyFarmerHomeDoor, world.KeyFarmerWorkPos},
	RoleProducer:  {world.KeyWinemakerHome, world.KeyWinemakerHomeDoor, world.KeyWinemakerWorkPos},
	RoleRetailer:  {world.KeyShopkeeperHome, world.KeyShopkeeperHomeDoor, world.KeyShopkeeperWorkPos},
}

// Spawner creates agents for the simulation.
type Spawner struct {
	env    *Env
	nextID AgentID
}

// NewSpawner creates an agent spawner issuing IDs from 1.
func NewSpawner(env *Env) *Spawner {
	return &Spawner{env: env, nextID: 1}
}

// SetNextID sets the next agent ID to be issued.
func (s *Spawner) SetNextID(id AgentID) {
	s.nextID = id
}

func (s *Spawner) issueID() AgentID {
	id := s.nextID
	s.nextID++
	return id
}

// SpawnWorker places a resident of role at home, resting until the next
// DayStarted.
func (s *Spawner) SpawnWorker(role Role) (*Agent, error) {
	keys, ok := workerKeys[role]
	if !ok {
		return nil, fmt.Errorf("role %s has no home", role)
	}
	home, ok := s.env.Map.LookupPoint(keys[0])
	if !ok {
		return nil, fmt.Errorf("layout has no %q", keys[0])
	}
	for _, k := range keys[1:] {
		if _, ok := s.env.Map.LookupPoint(k); !ok {
			return nil, fmt.Errorf("layout has no %q", k)
		}
	}

	a := NewAgent(s.issueID(), s.generateName(), role, NewKinematicBody(home), s.env)
	a.HomeKey, a.HomeDoorKey, a.WorkKey = keys[0], keys[1], keys[2]
	a.Start(NewResting())
	return a, nil
}

// SpawnCustomer places a customer at the spawn point, heading for the shop.
func (s *Spawner) SpawnCustomer() (*Agent, error) {
	at, ok := s.env.Map.LookupPoint(world.KeyCustomerSpawn)
	if !ok {
		return nil, fmt.Errorf("layout has no %q", world.KeyCustomerSpawn)
	}
	a := NewAgent(s.issueID(), s.generateName(), RoleCustomer, NewKinematicBody(at), s.env)
	a.Start(NewEnteringShop())
	return a, nil
}

func (s *Spawner) generateName() string {
	first := firstNames[s.env.Rand.Intn(len(firstNames))]
	last := lastNames[s.env.Rand.Intn(len(lastNames))]
	return first + " " + last
}

// CustomerConfig controls customer arrivals.
type CustomerConfig struct {
	OpenFrom      float64       // Time of day the shop opens
	OpenUntil     float64       // Time of day the shop stops admitting customers
	Interval      time.Duration // Time between arrival attempts
	Chance        float64       // Probability an attempt produces a customer
	MaxConcurrent int
}

// DefaultCustomerConfig admits a customer roughly every 8 s from mid
// morning until shortly before workers go home.
func DefaultCustomerConfig() CustomerConfig {
	return CustomerConfig{
		OpenFrom:      0.20,
		OpenUntil:     0.60,
		Interval:      8 * time.Second,
		Chance:        0.7,
		MaxConcurrent: 4,
	}
}

// Validate checks the opening window and limits.
func (c CustomerConfig) Validate() error {
	if c.OpenFrom < 0 || c.OpenUntil > 1 || c.OpenFrom >= c.OpenUntil {
		return fmt.Errorf("customer hours %.2f-%.2f invalid", c.OpenFrom, c.OpenUntil)
	}
	if c.Interval <= 0 {
		return errors.New("customer interval must be positive")
	}
	if c.Chance < 0 || c.Chance > 1 {
		return fmt.Errorf("customer chance %.2f outside [0,1]", c.Chance)
	}
	if c.MaxConcurrent < 0 {
		return errors.New("negative customer limit")
	}
	return nil
}

// CustomerSpawner admits customers at a fixed cadence during opening hours.
type CustomerSpawner struct {
	cfg     CustomerConfig
	spawner *Spawner
	elapsed time.Duration
}

// NewCustomerSpawner wraps spawner with an arrival schedule.
func NewCustomerSpawner(cfg CustomerConfig, spawner *Spawner) *CustomerSpawner {
	return &CustomerSpawner{cfg: cfg, spawner: spawner}
}

// IsOpen reports whether the shop admits customers at time of day t.
func (c *CustomerSpawner) IsOpen(t float64) bool {
	return t >= c.cfg.OpenFrom && t < c.cfg.OpenUntil
}

// Tick advances the arrival timer by dt. When an attempt is due, the shop is
// open, fewer than MaxConcurrent customers are present and the random gate
// passes, it returns a new customer; otherwise nil.
func (c *CustomerSpawner) Tick(dt time.Duration, present int) (*Agent, error) {
	c.elapsed += dt
	if c.elapsed < c.cfg.Interval {
		return nil, nil
	}
	c.elapsed -= c.cfg.Interval
	if c.elapsed >= c.cfg.Interval {
		// A long tick counts as one attempt.
		c.elapsed %= c.cfg.Interval
	}

	env := c.spawner.env
	if !c.IsOpen(env.Clock.TimeOfDay()) || present >= c.cfg.MaxConcurrent {
		return nil, nil
	}
	if env.Rand.Float64() >= c.cfg.Chance {
		return nil, nil
	}
	return c.spawner.SpawnCustomer()
}

// Sweep destroys despawned agents and returns the survivors.
func Sweep(list []*Agent) (kept []*Agent, removed int) {
	kept = list[:0]
	for _, a := range list {
		if a.IsDespawned() {
			a.Destroy()
			removed++
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(list); i++ {
		list[i] = nil
	}
	return kept, removed
}

// Name pools for procedural generation.
var firstNames = []string{
	"Aldric", "Bram", "Cedric", "Doran", "Erik", "Finn", "Gareth",
	"Halvard", "Jasper", "Leif", "Magnus", "Oswin", "Rowan", "Theron",
	"Astrid", "Brenna", "Calla", "Elara", "Freya", "Greta", "Iris",
	"Juno", "Lena", "Mira", "Petra", "Runa", "Thea", "Vera", "Willa",
}

var lastNames = []string{
	"Voss", "Thornwood", "Ashford", "Dunmore", "Greenvale", "Millward",
	"Copperfield", "Silverdale", "Deepwell", "Brightwater", "Redforge",
	"Marshwood", "Goldhaven", "Riverstone", "Holloway", "Farrow", "Thatcher",
	"Briar", "Caldwell", "Harper", "Mercer", "Vintner", "Cooper", "Presswood",
}
