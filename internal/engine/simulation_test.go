package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/der-cain/npc-town/internal/agents"
	"github.com/der-cain/npc-town/internal/clock"
	"github.com/der-cain/npc-town/internal/config"
)

const step = 100 * time.Millisecond

// stepsPerDay covers one full day at the default rates.
var stepsPerDay = int(config.Default().Clock.DayLength / step)

func newSim(t *testing.T) *Simulation {
	t.Helper()
	sim, err := NewSimulation(config.Default(), nil)
	require.NoError(t, err)
	t.Cleanup(sim.Close)
	return sim
}

func TestNewSimulation_Defaults(t *testing.T) {
	sim := newSim(t)

	require.Len(t, sim.Agents, 3)
	assert.Len(t, sim.Plots, 8)
	for _, a := range sim.Agents {
		assert.Equal(t, agents.KindResting, a.State().Kind(), a.Role.String())
	}
	assert.Equal(t, int64(42), sim.Seed())
	assert.Equal(t, 1, sim.Clock.Day())
}

func TestNewSimulation_RejectsBadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Clock.NightStart = cfg.Clock.GoHome

	_, err := NewSimulation(cfg, nil)
	assert.Error(t, err)
}

func TestSimulation_RunsWorkingDays(t *testing.T) {
	sim := newSim(t)
	maxCustomers := config.Default().Customers.MaxConcurrent

	var closed []DayStats
	sim.OnDay = func(s DayStats, _ []Event) { closed = append(closed, s) }

	for i := 0; i < 3*stepsPerDay && sim.CompletedDays() < 2; i++ {
		sim.Step(step)
		assert.LessOrEqual(t, sim.customerCount(), maxCustomers)
	}

	require.Equal(t, 2, sim.CompletedDays())
	assert.Equal(t, sim.History, closed)
	assert.Equal(t, 1, sim.History[0].Day)
	assert.Equal(t, 2, sim.History[1].Day)
	assert.Positive(t, sim.History[0].Harvested)

	// Every worker survives the sweep.
	workers := 0
	for _, a := range sim.Agents {
		if a.Role.IsWorker() {
			workers++
		}
	}
	assert.Equal(t, 3, workers)
}

func TestSimulation_WineryNeverOverfills(t *testing.T) {
	sim := newSim(t)

	for i := 0; i < 2*stepsPerDay; i++ {
		sim.Step(step)
		w := sim.Winery.Snapshot()
		require.LessOrEqual(t, w.Input, w.MaxInput)
		require.LessOrEqual(t, w.Output, w.MaxOutput)
		sh := sim.Shop.Snapshot()
		require.LessOrEqual(t, sh.Output, sh.MaxOutput)
	}
}

func TestSimulation_Deterministic(t *testing.T) {
	a := newSim(t)
	b := newSim(t)

	for i := 0; i < stepsPerDay; i++ {
		a.Step(step)
		b.Step(step)
	}

	assert.Equal(t, a.Snapshot(), b.Snapshot())
	assert.Equal(t, a.Events, b.Events)
}

func TestSimulation_EventsStamped(t *testing.T) {
	sim := newSim(t)

	for i := 0; i < stepsPerDay/2; i++ {
		sim.Step(step)
	}

	require.NotEmpty(t, sim.Events)
	for _, e := range sim.Events {
		assert.NotEmpty(t, e.Category)
		assert.Len(t, e.Time, 5)
		assert.GreaterOrEqual(t, e.Day, 1)
	}
}

func TestSimulation_CloseReleasesSubscriptions(t *testing.T) {
	sim, err := NewSimulation(config.Default(), nil)
	require.NoError(t, err)
	for i := 0; i < stepsPerDay/3; i++ {
		sim.Step(step)
	}

	sim.Close()

	for _, k := range []clock.EventKind{clock.DayStarted, clock.GoHomeTime, clock.NightStarted} {
		assert.Zero(t, sim.Clock.Subscribers(k), k.String())
	}
	assert.Empty(t, sim.Agents)
}

func TestSimulation_Snapshot(t *testing.T) {
	sim := newSim(t)

	snap := sim.Snapshot()

	assert.Equal(t, 1, snap.Day)
	assert.Equal(t, "01:12", snap.Time)
	assert.False(t, snap.Daytime)
	assert.Equal(t, 8, snap.Plots)
	assert.Equal(t, "winery", snap.Winery.Name)
	assert.Len(t, snap.Agents, 3)
}
