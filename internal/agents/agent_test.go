package agents

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/der-cain/npc-town/internal/clock"
	"github.com/der-cain/npc-town/internal/economy"
	"github.com/der-cain/npc-town/internal/geom"
	"github.com/der-cain/npc-town/internal/world"
)

const tick = 100 * time.Millisecond

func TestHarvester_FillsToCapacityThenDelivers(t *testing.T) {
	// Arrange: mid-morning, plots under the harvester's feet that regrow fast.
	f := newFixture(t, 0.2)
	here := geom.Pt(200, 150)
	for i := 0; i < 5; i++ {
		f.addPlot(t, here, 100*time.Millisecond)
	}
	h := f.worker(RoleHarvester, here)
	h.Start(NewIdle())

	// Act
	delivering := f.runUntil(tick, 2000, func() bool {
		require.LessOrEqual(t, h.Inventory().Quantity, 20)
		p, ok := movingPurpose(h)
		return ok && p == PurposeDeliveringGrapes
	})

	// Assert
	require.True(t, delivering)
	assert.Equal(t, economy.Slot{Kind: economy.ItemGrape, Quantity: 20}, h.Inventory())
}

func TestHarvesting_FullInventoryDoesNotHarvest(t *testing.T) {
	f := newFixture(t, 0.2)
	here := geom.Pt(200, 150)
	plot := f.addPlot(t, here, 10*time.Millisecond)
	f.env.Sched.Advance(time.Second)
	require.True(t, plot.IsRipe())

	h := f.worker(RoleHarvester, here)
	h.inventory = economy.Slot{Kind: economy.ItemGrape, Quantity: 20}
	h.Start(NewHarvesting(plot))

	f.step(f.env.Tuning.HarvestDuration)

	assert.Equal(t, 20, h.Inventory().Quantity)
	assert.True(t, plot.IsRipe(), "grape left on the vine")
	p, ok := movingPurpose(h)
	require.True(t, ok)
	assert.Equal(t, PurposeDeliveringGrapes, p)
}

func TestHarvesting_StaleTimerIgnored(t *testing.T) {
	f := newFixture(t, 0.2)
	here := geom.Pt(200, 150)
	plot := f.addPlot(t, here, 10*time.Millisecond)
	f.env.Sched.Advance(time.Second)

	h := f.worker(RoleRetailer, here) // no seekWork, stays idle
	h.Start(NewHarvesting(plot))
	h.ChangeState(NewIdle())

	f.step(time.Second)

	assert.True(t, plot.IsRipe())
	assert.True(t, h.Inventory().IsEmpty())
}

func TestHarvesting_NotRipeGoesIdle(t *testing.T) {
	f := newFixture(t, 0.2)
	plot := f.addPlot(t, geom.Pt(0, 0), time.Hour)
	h := f.worker(RoleHarvester, geom.Pt(0, 0))

	h.Start(NewHarvesting(plot))

	assert.Equal(t, KindIdle, h.State().Kind())
}

func TestResting_ResumesParkedPathAtIndex(t *testing.T) {
	// Arrange: before dawn, resting with a parked three-point walk at index 1.
	f := newFixture(t, 0.05)
	path := []geom.Point{geom.Pt(0, 0), geom.Pt(100, 0), geom.Pt(100, 100)}
	a := f.worker(RoleProducer, geom.Pt(50, 0))
	a.parked = &Resumption{Kind: KindMoving, Path: path, Index: 1, Purpose: PurposeMovingToWork}
	a.Start(NewResting())

	// Act: cross DayStarted.
	a.env.Clock.Advance(13 * time.Second)

	// Assert
	m, ok := a.State().(*Moving)
	require.True(t, ok, "state is %s", a.StateName())
	assert.Equal(t, 1, m.Index())
	assert.Equal(t, path[1], m.Target())
	assert.Equal(t, PurposeMovingToWork, m.Purpose())
	assert.Positive(t, a.Body().Velocity().X, "heading for path[1], not back to path[0]")
	assert.Nil(t, a.Parked())
	assert.Zero(t, a.env.Clock.Subscribers(clock.DayStarted), "resting subscription released")
}

func TestResting_StartDayWithoutParkedTask(t *testing.T) {
	f := newFixture(t, 0.05)
	home := f.env.Map.Point(world.KeyFarmerHome)
	a := f.worker(RoleHarvester, home)
	a.Start(NewResting())

	a.env.Clock.Advance(13 * time.Second)

	p, ok := movingPurpose(a)
	require.True(t, ok)
	assert.Equal(t, PurposeMovingToWork, p)

	m := a.State().(*Moving)
	path := m.Path()
	assert.Equal(t, home, path[0])
	assert.Equal(t, f.env.Map.Point(world.KeyFarmerWorkPos), path[len(path)-1])
}

func TestGoHomeTime_WorkerWalksHome(t *testing.T) {
	f := newFixture(t, 0.64)
	here := f.env.Map.Point(world.KeyFarmerWorkPos)
	h := f.worker(RoleHarvester, here)
	h.Start(NewIdle())

	// 0.64 -> 0.66 crosses go-home only.
	f.step(2400 * time.Millisecond)

	p, ok := movingPurpose(h)
	require.True(t, ok)
	assert.Equal(t, PurposeMovingHome, p)

	arrived := f.runUntil(tick, 1000, func() bool { return h.State().Kind() == KindResting })
	require.True(t, arrived)
	assert.InDelta(t, 0, geom.Distance(h.Position(), f.env.Map.Point(world.KeyFarmerHome)), 10)
}

func TestGoHomeTime_CustomerRestsInPlaceAndParks(t *testing.T) {
	f := newFixture(t, 0.64)
	c := f.customer(f.env.Map.Point(world.KeyCustomerSpawn))
	c.Start(NewEnteringShop())
	require.Equal(t, KindMoving, c.State().Kind())

	f.env.Clock.Advance(2400 * time.Millisecond)

	assert.Equal(t, KindResting, c.State().Kind())
	require.NotNil(t, c.Parked())
	assert.Equal(t, KindMoving, c.Parked().Kind)
	assert.Equal(t, PurposeEnteringShop, c.Parked().Purpose)
}

func TestNightStarted_ForceRestsBusyAgent(t *testing.T) {
	f := newFixture(t, 0.69)
	plot := f.addPlot(t, geom.Pt(0, 0), time.Millisecond)
	f.env.Sched.Advance(time.Second)
	require.True(t, plot.IsRipe())

	h := f.worker(RoleHarvester, geom.Pt(0, 0))
	h.Start(NewHarvesting(plot))

	f.env.Clock.Advance(2400 * time.Millisecond)

	assert.Equal(t, KindResting, h.State().Kind())
	require.NotNil(t, h.Parked())
	assert.Equal(t, Resumption{Kind: KindHarvesting, PlotID: plot.ID}, *h.Parked())

	// The harvest timer died with the state.
	f.env.Sched.Advance(time.Second)
	assert.True(t, plot.IsRipe())
}

func TestNightStarted_IgnoresAgentHeadingHome(t *testing.T) {
	f := newFixture(t, 0.69)
	a := f.worker(RoleRetailer, geom.Pt(0, 0))
	a.Start(NewMoving([]geom.Point{geom.Pt(0, 0), geom.Pt(500, 500)}, PurposeMovingHome))

	f.env.Clock.Advance(2400 * time.Millisecond)

	p, ok := movingPurpose(a)
	require.True(t, ok)
	assert.Equal(t, PurposeMovingHome, p)
	assert.Nil(t, a.Parked())
}

func TestMoving_InvalidPathGoesIdle(t *testing.T) {
	f := newFixture(t, 0.2)
	a := f.worker(RoleRetailer, geom.Pt(0, 0))

	a.Start(NewMoving(nil, PurposeMovingToWork))
	assert.Equal(t, KindIdle, a.State().Kind())

	a.ChangeState(resumeMoving([]geom.Point{geom.Pt(1, 1)}, PurposeMovingToWork, 3))
	assert.Equal(t, KindIdle, a.State().Kind())
}

func TestMoving_ArrivalMapsPurpose(t *testing.T) {
	f := newFixture(t, 0.2)
	a := f.worker(RoleRetailer, geom.Pt(0, 0))
	a.Start(NewMoving([]geom.Point{geom.Pt(0, 0), geom.Pt(20, 0)}, PurposeMovingToWork))

	ok := f.runUntil(tick, 100, func() bool { return a.State().Kind() == KindIdle })

	require.True(t, ok)
	assert.True(t, a.Body().Velocity().IsZero())
}

func TestCustomer_WaitsOnEmptyShop(t *testing.T) {
	// Arrange
	f := newFixture(t, 0.3)
	c := f.customer(f.env.Map.Point(world.KeyShopDoor))
	c.Start(NewBuyingWine())
	buy := c.State().(*BuyingWine)

	// Act: the first decision finds an empty shelf.
	f.step(f.env.Tuning.BuyDuration)

	// Assert: still deciding, not leaving.
	assert.False(t, buy.Decided())
	assert.Equal(t, KindBuyingWine, c.State().Kind())

	// Stock arrives; the retry comes one full delay after the first check.
	require.True(t, f.env.Shop.AddInput(1))
	f.step(f.env.Tuning.BuyDuration - tick)
	assert.False(t, buy.Decided())
	assert.Equal(t, 1, f.env.Shop.OutputStock())

	f.step(tick)
	assert.True(t, buy.Decided())
	assert.True(t, c.Bought())
	assert.Equal(t, 1, f.env.Shop.Snapshot().Sold)

	p, ok := movingPurpose(c)
	require.True(t, ok)
	assert.Equal(t, PurposeLeavingShop, p)
}

func TestCustomer_DeclinesAndLeaves(t *testing.T) {
	f := newFixture(t, 0.3)
	f.rng.f = 0.95
	require.True(t, f.env.Shop.AddInput(1))
	f.env.Sched.Advance(time.Second)

	c := f.customer(f.env.Map.Point(world.KeyShopDoor))
	c.Start(NewBuyingWine())
	f.step(f.env.Tuning.BuyDuration)

	assert.False(t, c.Bought())
	assert.Equal(t, 1, f.env.Shop.OutputStock())

	left := f.runUntil(tick, 2000, c.IsDespawned)
	require.True(t, left)
	assert.InDelta(t, 0, geom.Distance(c.Position(), f.env.Map.Point(world.KeyCustomerDespawn)), 10)
}

func TestCustomer_WalksFromSpawnIntoShop(t *testing.T) {
	f := newFixture(t, 0.3)
	c := f.customer(f.env.Map.Point(world.KeyCustomerSpawn))
	c.Start(NewEnteringShop())

	m, ok := c.State().(*Moving)
	require.True(t, ok)
	assert.Len(t, m.Path(), 2, "spawn point is off the road graph")

	inside := f.runUntil(tick, 2000, func() bool { return c.State().Kind() == KindBuyingWine })
	assert.True(t, inside)
}

func TestProducer_CollectsAndDelivers(t *testing.T) {
	f := newFixture(t, 0.3)
	require.True(t, f.env.Winery.AddInput(5))
	f.env.Sched.Advance(5 * time.Second)
	require.Equal(t, 1, f.env.Winery.OutputStock())

	p := f.worker(RoleProducer, f.env.Map.Point(world.KeyWinemakerWorkPos))
	p.Start(NewIdle())
	f.step(tick)

	assert.Zero(t, f.env.Winery.OutputStock())
	assert.Equal(t, economy.Slot{Kind: economy.ItemWine, Quantity: 1}, p.Inventory())
	purpose, ok := movingPurpose(p)
	require.True(t, ok)
	assert.Equal(t, PurposeDeliveringWine, purpose)

	back := f.runUntil(tick, 3000, func() bool {
		pp, ok := movingPurpose(p)
		return ok && pp == PurposeMovingToWork
	})
	require.True(t, back)
	assert.True(t, p.Inventory().IsEmpty())
	assert.Equal(t, 1, f.env.Shop.InputStock()+f.env.Shop.OutputStock()+boolInt(f.env.Shop.IsConverting()))
}

func TestHarvester_RejectedDeliveryKeepsGrapes(t *testing.T) {
	f := newFixture(t, 0.3)
	require.True(t, f.env.Winery.AddInput(30))
	drop := f.env.Map.Point(world.KeyWineryGrapeDropOff)
	h := f.worker(RoleHarvester, drop)
	h.inventory = economy.Slot{Kind: economy.ItemGrape, Quantity: 20}
	h.Start(NewMoving([]geom.Point{drop, drop}, PurposeDeliveringGrapes))

	f.runUntil(tick, 10, func() bool { return h.State().Kind() == KindIdle })

	assert.Equal(t, KindIdle, h.State().Kind())
	assert.Equal(t, 20, h.Inventory().Quantity)
	assert.True(t, h.deliveryBlocked())

	// No new attempt during the cooldown.
	f.step(tick)
	assert.Equal(t, KindIdle, h.State().Kind())
}

func TestHarvester_BlockedDeliveryLogsAtDebug(t *testing.T) {
	for _, tc := range []struct {
		level slog.Level
		want  bool
	}{
		{slog.LevelInfo, false},
		{slog.LevelDebug, true},
	} {
		t.Run(tc.level.String(), func(t *testing.T) {
			var buf bytes.Buffer
			f := newFixture(t, 0.3)
			f.env.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: tc.level}))
			require.True(t, f.env.Winery.AddInput(30))
			drop := f.env.Map.Point(world.KeyWineryGrapeDropOff)
			h := f.worker(RoleHarvester, drop)
			h.inventory = economy.Slot{Kind: economy.ItemGrape, Quantity: 20}
			h.Start(NewMoving([]geom.Point{drop, drop}, PurposeDeliveringGrapes))

			require.True(t, f.runUntil(tick, 10, func() bool { return h.State().Kind() == KindIdle }))

			assert.Equal(t, tc.want, bytes.Contains(buf.Bytes(), []byte("winery full")))
		})
	}
}

func TestReconstruct(t *testing.T) {
	f := newFixture(t, 0.2)
	plot := f.addPlot(t, geom.Pt(0, 0), time.Hour)

	assert.IsType(t, &Harvesting{}, Reconstruct(Resumption{Kind: KindHarvesting, PlotID: plot.ID}, f.env.Plots))
	assert.IsType(t, &Idle{}, Reconstruct(Resumption{Kind: KindHarvesting, PlotID: 99}, f.env.Plots))
	assert.IsType(t, &Idle{}, Reconstruct(Resumption{Kind: KindDespawned}, nil))

	m := Reconstruct(Resumption{Kind: KindMoving, Path: []geom.Point{{}, {X: 1}}, Index: 1}, nil).(*Moving)
	assert.Equal(t, 1, m.Index())
}

func TestDestroy_ReleasesSubscriptions(t *testing.T) {
	f := newFixture(t, 0.05)
	a := f.worker(RoleHarvester, f.env.Map.Point(world.KeyFarmerHome))
	a.Start(NewResting())
	require.Equal(t, 1, f.env.Clock.Subscribers(clock.DayStarted))
	require.Equal(t, 1, f.env.Clock.Subscribers(clock.GoHomeTime))

	a.Destroy()

	for _, k := range []clock.EventKind{clock.DayStarted, clock.GoHomeTime, clock.NightStarted} {
		assert.Zero(t, f.env.Clock.Subscribers(k), k.String())
	}
}

func TestReached_Overshoot(t *testing.T) {
	b := NewKinematicBody(geom.Pt(0, 0))
	target := geom.Pt(10, 0)
	b.MoveTowards(target, 1000)
	assert.False(t, reached(b, target, 5))

	b.Integrate(100 * time.Millisecond) // lands at x=100, past the target
	assert.True(t, reached(b, target, 5))

	b.Stop()
	assert.False(t, reached(b, target, 5), "stopped far away is not arrival")
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
