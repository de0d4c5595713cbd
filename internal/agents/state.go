package agents

import (
	"time"

	"github.com/der-cain/npc-town/internal/economy"
	"github.com/der-cain/npc-town/internal/geom"
)

// StateKind tags each agent state.
type StateKind uint8

const (
	KindIdle StateKind = iota
	KindMoving
	KindResting
	KindHarvesting
	KindEnteringShop
	KindBuyingWine
	KindDespawned
)

var kindNames = [...]string{
	KindIdle:         "Idle",
	KindMoving:       "MovingAlongPath",
	KindResting:      "Resting",
	KindHarvesting:   "Harvesting",
	KindEnteringShop: "EnteringShop",
	KindBuyingWine:   "BuyingWine",
	KindDespawned:    "Despawned",
}

func (k StateKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Purpose says why an agent is walking; it selects what happens on arrival.
type Purpose uint8

const (
	PurposeNone Purpose = iota
	PurposeMovingHome
	PurposeMovingToWork
	PurposeMovingToHarvest
	PurposeDeliveringGrapes
	PurposeDeliveringWine
	PurposeEnteringShop
	PurposeLeavingShop
)

var purposeNames = [...]string{
	PurposeNone:             "None",
	PurposeMovingHome:       "MovingHome",
	PurposeMovingToWork:     "MovingToWork",
	PurposeMovingToHarvest:  "MovingToHarvest",
	PurposeDeliveringGrapes: "DeliveringGrapes",
	PurposeDeliveringWine:   "DeliveringWine",
	PurposeEnteringShop:     "EnteringShop",
	PurposeLeavingShop:      "LeavingShop",
}

func (p Purpose) String() string {
	if int(p) < len(purposeNames) {
		return purposeNames[p]
	}
	return "Unknown"
}

// State is one node of the agent state machine. Data a state needs on entry
// is passed to its constructor.
type State interface {
	Kind() StateKind
	Enter(a *Agent)
	Tick(a *Agent, dt time.Duration)
	Exit(a *Agent)
}

// Resumable is implemented by states that can be parked and rebuilt later.
type Resumable interface {
	Resumption() Resumption
}

// Resumption describes an interrupted state well enough to rebuild it.
type Resumption struct {
	Kind    StateKind    `json:"kind"`
	Path    []geom.Point `json:"path,omitempty"`
	Index   int          `json:"index,omitempty"`
	Purpose Purpose      `json:"purpose,omitempty"`
	PlotID  int          `json:"plot_id,omitempty"`
}

// Reconstruct builds a fresh state from r. Plots are looked up by ID in
// plots. Descriptors that cannot be rebuilt yield Idle.
func Reconstruct(r Resumption, plots []*economy.Plot) State {
	switch r.Kind {
	case KindMoving:
		m := resumeMoving(r.Path, r.Purpose, r.Index)
		m.plotID = r.PlotID
		return m
	case KindHarvesting:
		for _, p := range plots {
			if p.ID == r.PlotID {
				return NewHarvesting(p)
			}
		}
	case KindEnteringShop:
		return NewEnteringShop()
	case KindBuyingWine:
		return NewBuyingWine()
	}
	return NewIdle()
}
