package engine

import (
	"github.com/der-cain/npc-town/internal/clock"
)

// DayStats tallies one working day, dawn to dawn.
type DayStats struct {
	Day       int `json:"day" db:"day"`
	Harvested int `json:"harvested" db:"harvested"` // Grapes picked
	Pressed   int `json:"pressed" db:"pressed"`     // Wine produced by the winery
	Sold      int `json:"sold" db:"sold"`
	Revenue   int `json:"revenue" db:"revenue"`
	Customers int `json:"customers" db:"customers"` // Customers who arrived
	Spoiled   int `json:"spoiled" db:"spoiled"`
}

// totals are the running counters a day is measured against.
type totals struct {
	harvested int
	pressed   int
	sold      int
	revenue   int
	customers int
	spoiled   int
}

func (s *Simulation) runningTotals() totals {
	w := s.Winery.Snapshot()
	sh := s.Shop.Snapshot()
	return totals{
		harvested: s.harvested,
		pressed:   w.Produced,
		sold:      sh.Sold,
		revenue:   sh.Revenue,
		customers: s.arrivals,
		spoiled:   w.Spoiled + sh.Spoiled,
	}
}

// CurrentStats returns the running tally for the day in progress.
func (s *Simulation) CurrentStats() DayStats {
	now := s.runningTotals()
	b := s.baseline
	return DayStats{
		Day:       s.today,
		Harvested: now.harvested - b.harvested,
		Pressed:   now.pressed - b.pressed,
		Sold:      now.sold - b.sold,
		Revenue:   now.revenue - b.revenue,
		Customers: now.customers - b.customers,
		Spoiled:   now.spoiled - b.spoiled,
	}
}

// onDayStarted closes the previous day, if one was open, and opens the next.
// Activity before the first dawn rolls into the first day.
func (s *Simulation) onDayStarted(ev clock.Event) {
	if s.dayOpen {
		s.closeDay()
	}
	s.dayOpen = true
	s.today = ev.Day
}

func (s *Simulation) closeDay() {
	stats := s.CurrentStats()
	events := s.dayEvents
	s.History = append(s.History, stats)
	s.baseline = s.runningTotals()
	s.dayEvents = nil

	s.logger.Info("daily report",
		"day", stats.Day,
		"time", s.Clock.Format(),
		"harvested", stats.Harvested,
		"pressed", stats.Pressed,
		"sold", stats.Sold,
		"revenue", stats.Revenue,
		"customers", stats.Customers,
		"spoiled", stats.Spoiled,
		"winery_input", s.Winery.Snapshot().Input,
		"shop_stock", s.Shop.Snapshot().Output,
		"events", len(events),
	)

	if s.OnDay != nil {
		s.OnDay(stats, events)
	}
}

// CompletedDays returns how many days have closed.
func (s *Simulation) CompletedDays() int { return len(s.History) }
