// Package economy provides the production chain: goods, the single-slot
// inventories agents carry, converting stations and growth plots.
package economy

import "fmt"

// ItemKind enumerates goods moved through the chain.
type ItemKind uint8

const (
	ItemGrape ItemKind = iota + 1 // Harvested from plots
	ItemWine                      // Produced at the winery, sold at the shop
)

func (k ItemKind) String() string {
	switch k {
	case ItemGrape:
		return "grape"
	case ItemWine:
		return "wine"
	default:
		return "none"
	}
}

// Slot is an agent's carried inventory: nothing, or a quantity of a single
// kind. The zero value is empty.
type Slot struct {
	Kind     ItemKind `json:"kind,omitempty"`
	Quantity int      `json:"quantity,omitempty"`
}

// IsEmpty reports whether the slot holds nothing.
func (s Slot) IsEmpty() bool { return s.Quantity <= 0 }

// Holds reports whether the slot holds at least one unit of kind.
func (s Slot) Holds(kind ItemKind) bool { return !s.IsEmpty() && s.Kind == kind }

// Add puts n units of kind in the slot if it is empty or already holds kind
// and the result stays within limit. A limit <= 0 means unbounded.
func (s *Slot) Add(kind ItemKind, n, limit int) bool {
	if n <= 0 {
		return false
	}
	if !s.IsEmpty() && s.Kind != kind {
		return false
	}
	if limit > 0 && s.Quantity+n > limit {
		return false
	}
	s.Kind = kind
	s.Quantity += n
	return true
}

// Clear empties the slot.
func (s *Slot) Clear() {
	*s = Slot{}
}

func (s Slot) String() string {
	if s.IsEmpty() {
		return "empty"
	}
	return fmt.Sprintf("%d %s", s.Quantity, s.Kind)
}
