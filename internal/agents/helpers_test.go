package agents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/der-cain/npc-town/internal/clock"
	"github.com/der-cain/npc-town/internal/economy"
	"github.com/der-cain/npc-town/internal/geom"
	"github.com/der-cain/npc-town/internal/sched"
	"github.com/der-cain/npc-town/internal/world"
)

// fakeRand returns fixed samples: f for Float64, always 0 for Intn.
type fakeRand struct{ f float64 }

func (r *fakeRand) Float64() float64 { return r.f }
func (r *fakeRand) Intn(int) int     { return 0 }

type fixture struct {
	env    *Env
	rng    *fakeRand
	agents []*Agent
}

// newFixture builds a world on the default layout with the clock at start.
func newFixture(t *testing.T, start float64) *fixture {
	t.Helper()
	cfg := clock.DefaultConfig()
	cfg.Start = start
	clk, err := clock.New(cfg, nil)
	require.NoError(t, err)

	s := sched.New()
	winery, err := economy.NewStation(economy.WineryConfig(), s, nil)
	require.NoError(t, err)
	shop, err := economy.NewStation(economy.ShopConfig(), s, nil)
	require.NoError(t, err)

	rng := &fakeRand{f: 0.1}
	return &fixture{
		rng: rng,
		env: &Env{
			Clock:  clk,
			Map:    world.DefaultLayout(nil),
			Sched:  s,
			Winery: winery,
			Shop:   shop,
			Tuning: DefaultTuning(),
			Rand:   rng,
		},
	}
}

// addPlot adds a plot at p that ripens after grow.
func (f *fixture) addPlot(t *testing.T, p geom.Point, grow time.Duration) *economy.Plot {
	t.Helper()
	plot, err := economy.NewPlot(len(f.env.Plots)+1, p, economy.PlotConfig{BaseGrow: grow, RegrowDelay: grow}, f.env.Sched, f.rng)
	require.NoError(t, err)
	f.env.Plots = append(f.env.Plots, plot)
	return plot
}

// worker creates a resident of role standing at p, without a state.
func (f *fixture) worker(role Role, p geom.Point) *Agent {
	keys := workerKeys[role]
	a := NewAgent(AgentID(len(f.agents)+1), role.String(), role, NewKinematicBody(p), f.env)
	a.HomeKey, a.HomeDoorKey, a.WorkKey = keys[0], keys[1], keys[2]
	f.agents = append(f.agents, a)
	return a
}

func (f *fixture) customer(p geom.Point) *Agent {
	a := NewAgent(AgentID(len(f.agents)+1), "customer", RoleCustomer, NewKinematicBody(p), f.env)
	f.agents = append(f.agents, a)
	return a
}

// step runs one tick in simulation order.
func (f *fixture) step(dt time.Duration) {
	scaled := f.env.Clock.Advance(dt)
	f.env.Sched.Advance(scaled)
	for _, a := range f.agents {
		if kb, ok := a.Body().(*KinematicBody); ok {
			kb.Integrate(scaled)
		}
	}
	for _, a := range f.agents {
		a.Tick(scaled)
	}
}

// runUntil steps until cond holds or max steps pass, and reports whether
// cond held.
func (f *fixture) runUntil(dt time.Duration, max int, cond func() bool) bool {
	for i := 0; i < max; i++ {
		if cond() {
			return true
		}
		f.step(dt)
	}
	return cond()
}

func movingPurpose(a *Agent) (Purpose, bool) {
	m, ok := a.State().(*Moving)
	if !ok {
		return PurposeNone, false
	}
	return m.Purpose(), true
}
