// Role policies and clock reactions. Each role fills in the hooks it needs;
// anything left nil falls through to the shared behaviour.
package agents

import (
	"github.com/der-cain/npc-town/internal/economy"
	"github.com/der-cain/npc-town/internal/geom"
	"github.com/der-cain/npc-town/internal/world"
)

// policy holds the role-specific hooks.
type policy struct {
	// seekWork runs every Idle tick.
	seekWork func(a *Agent)
	// arrive handles a purpose on reaching the end of a path. It returns
	// false to fall back to the shared arrival handling.
	arrive func(a *Agent, m *Moving, at geom.Point) bool
	// startDay runs on DayStarted when nothing was parked.
	startDay func(a *Agent)
}

var policies = [...]policy{
	RoleHarvester: {
		seekWork: harvesterSeekWork,
		arrive:   harvesterArrive,
		startDay: workerStartDay,
	},
	RoleProducer: {
		seekWork: producerSeekWork,
		arrive:   producerArrive,
		startDay: workerStartDay,
	},
	RoleRetailer: {
		seekWork: func(*Agent) {},
		startDay: workerStartDay,
	},
	RoleCustomer: {
		seekWork: func(*Agent) {},
		arrive:   customerArrive,
		startDay: func(a *Agent) { a.ChangeState(NewEnteringShop()) },
	},
}

func (a *Agent) policy() policy {
	if int(a.Role) < len(policies) {
		return policies[a.Role]
	}
	return policies[RoleRetailer]
}

// handleArrival routes the end of a walk to the role, then to the shared
// mapping: home means rest, work means idle, anything else idles.
func (a *Agent) handleArrival(m *Moving, at geom.Point) {
	a.logger.Debug("arrived", "purpose", m.purpose.String(), "at", at.String())
	if arrive := a.policy().arrive; arrive != nil && arrive(a, m, at) {
		return
	}
	if m.purpose == PurposeMovingHome {
		a.ChangeState(NewResting())
		return
	}
	a.ChangeState(NewIdle())
}

// wake runs when a resting agent sees DayStarted.
func (a *Agent) wake() {
	if a.parked != nil {
		r := *a.parked
		a.parked = nil
		a.logger.Debug("resuming parked task", "kind", r.Kind.String(), "index", r.Index)
		a.ChangeState(Reconstruct(r, a.env.Plots))
		return
	}
	a.policy().startDay(a)
}

func (a *Agent) onGoHome() {
	if !a.active || a.restingOrHeadingHome() {
		return
	}
	if a.Role.IsWorker() && a.HomeKey != "" {
		home, ok := a.env.Map.LookupPoint(a.HomeKey)
		if ok {
			a.parked = nil
			a.report("rest", a.Name+" heads home")
			a.ChangeState(NewMoving(a.pathTo(home, a.HomeDoorKey), PurposeMovingHome))
			return
		}
	}
	a.restInPlace()
}

func (a *Agent) onNight() {
	if !a.active || a.restingOrHeadingHome() {
		return
	}
	a.restInPlace()
}

func (a *Agent) restingOrHeadingHome() bool {
	switch s := a.state.(type) {
	case *Resting:
		return true
	case *Moving:
		return s.purpose == PurposeMovingHome
	}
	return false
}

// restInPlace parks whatever can be resumed and rests where the agent stands.
func (a *Agent) restInPlace() {
	a.parked = nil
	if r, ok := a.state.(Resumable); ok {
		desc := r.Resumption()
		a.parked = &desc
	}
	a.ChangeState(NewResting())
}

// pathTo plans a walk from the current position to end, entering the graph
// at the node nearest the agent. An empty endKey walks straight there.
func (a *Agent) pathTo(end geom.Point, endKey string) []geom.Point {
	start := a.Position()
	if endKey == "" {
		return []geom.Point{start, end}
	}
	startKey, _ := a.env.Map.NearestNode(start)
	return a.env.Map.FindPath(start, end, startKey, endKey)
}

func (a *Agent) pathToKey(key string) ([]geom.Point, bool) {
	p, ok := a.env.Map.LookupPoint(key)
	if !ok {
		a.logger.Warn("unknown location", "key", key)
		return nil, false
	}
	return a.pathTo(p, key), true
}

func (a *Agent) goTo(key string, purpose Purpose) {
	path, ok := a.pathToKey(key)
	if !ok {
		a.ChangeState(NewIdle())
		return
	}
	a.ChangeState(NewMoving(path, purpose))
}

func (a *Agent) deliveryBlocked() bool {
	return a.env.Sched.Now() < a.retryAt
}

func (a *Agent) backOff() {
	a.retryAt = a.env.Sched.Now() + a.env.Tuning.DeliveryRetryDelay
}

// workerStartDay walks from the front door to the work position.
func workerStartDay(a *Agent) {
	work, ok := a.env.Map.LookupPoint(a.WorkKey)
	if !ok {
		a.logger.Warn("no work position", "key", a.WorkKey)
		a.ChangeState(NewIdle())
		return
	}
	a.report("work", a.Name+" sets off for work")
	a.ChangeState(NewMoving(a.env.Map.FindPath(a.Position(), work, a.HomeDoorKey, a.WorkKey), PurposeMovingToWork))
}

func (a *Agent) deliverGrapes() {
	a.goTo(world.KeyWineryGrapeDropOff, PurposeDeliveringGrapes)
}

func harvesterSeekWork(a *Agent) {
	if a.inventory.Quantity >= a.env.Tuning.MaxInventory {
		if a.deliveryBlocked() {
			return
		}
		a.deliverGrapes()
		return
	}
	ripe := economy.RipePlots(a.env.Plots)
	if len(ripe) == 0 {
		return
	}
	plot := ripe[a.env.Rand.Intn(len(ripe))]
	a.ChangeState(newMovingToPlot(a.pathTo(plot.Position, ""), plot))
}

func harvesterArrive(a *Agent, m *Moving, _ geom.Point) bool {
	switch m.purpose {
	case PurposeMovingToHarvest:
		plot := a.env.plot(m.plotID)
		if plot == nil {
			a.logger.Warn("target plot missing", "plot", m.plotID)
			a.ChangeState(NewIdle())
			return true
		}
		a.ChangeState(NewHarvesting(plot))
		return true
	case PurposeDeliveringGrapes:
		n := a.inventory.Quantity
		if n > 0 && !a.env.Winery.AddInput(n) {
			a.logger.Debug("winery full, keeping grapes", "grapes", n)
			a.backOff()
			a.ChangeState(NewIdle())
			return true
		}
		a.inventory.Clear()
		a.report("delivery", a.Name+" delivers grapes to the winery")
		a.goTo(a.WorkKey, PurposeMovingToWork)
		return true
	}
	return false
}

func producerSeekWork(a *Agent) {
	if a.inventory.Holds(economy.ItemWine) {
		if a.deliveryBlocked() {
			return
		}
		a.goTo(world.KeyShopWineDropOff, PurposeDeliveringWine)
		return
	}
	batch := a.env.Tuning.DeliveryBatch
	if !a.inventory.IsEmpty() || a.env.Winery.OutputStock() < batch {
		return
	}
	if !a.env.Winery.CollectOutput(batch) {
		return
	}
	a.inventory.Add(economy.ItemWine, batch, 0)
	a.report("delivery", a.Name+" collects wine from the winery")
	a.goTo(world.KeyShopWineDropOff, PurposeDeliveringWine)
}

func producerArrive(a *Agent, m *Moving, _ geom.Point) bool {
	if m.purpose != PurposeDeliveringWine {
		return false
	}
	n := a.inventory.Quantity
	if n > 0 && a.inventory.Kind == economy.ItemWine {
		if a.env.Shop.AddInput(n) {
			a.inventory.Clear()
			a.report("delivery", a.Name+" stocks the shop")
		} else {
			a.logger.Debug("shop full, keeping wine", "wine", n)
			a.backOff()
		}
	}
	a.goTo(a.WorkKey, PurposeMovingToWork)
	return true
}

func customerArrive(a *Agent, m *Moving, _ geom.Point) bool {
	switch m.purpose {
	case PurposeEnteringShop:
		a.ChangeState(NewBuyingWine())
	case PurposeLeavingShop:
		a.ChangeState(NewDespawned())
	default:
		a.logger.Warn("unexpected arrival, despawning", "purpose", m.purpose.String())
		a.ChangeState(NewDespawned())
	}
	return true
}
