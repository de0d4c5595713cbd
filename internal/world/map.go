// Package world provides the waypoint graph agents walk on: named points,
// named areas, and the adjacency list used for pathfinding.
package world

import (
	"fmt"
	"log/slog"

	"github.com/der-cain/npc-town/internal/geom"
)

// Node is a named point. Only on-graph nodes take part in pathfinding;
// off-graph nodes (plots, spawn points, home interiors) are reached by a
// straight line.
type Node struct {
	Key     string     `json:"key"`
	Point   geom.Point `json:"point"`
	OnGraph bool       `json:"on_graph"`
}

// Map holds every declared node and area plus the undirected adjacency
// between on-graph nodes.
type Map struct {
	nodes map[string]*Node
	order []string // declaration order, used for deterministic scans

	// Neighbour lists keep insertion order so BFS ties break by declaration.
	adjacency map[string][]string

	areas     map[string]geom.Rect
	areaOrder []string

	logger *slog.Logger
}

// NewMap creates an empty map. A nil logger falls back to slog.Default().
func NewMap(logger *slog.Logger) *Map {
	if logger == nil {
		logger = slog.Default()
	}
	return &Map{
		nodes:     make(map[string]*Node),
		adjacency: make(map[string][]string),
		areas:     make(map[string]geom.Rect),
		logger:    logger,
	}
}

// AddNode declares (or redeclares) a named point.
func (m *Map) AddNode(key string, p geom.Point, onGraph bool) {
	if _, ok := m.nodes[key]; !ok {
		m.order = append(m.order, key)
	}
	m.nodes[key] = &Node{Key: key, Point: p, OnGraph: onGraph}
}

// AddArea declares a named rectangle. Areas are independent of the node graph.
func (m *Map) AddArea(key string, r geom.Rect) {
	if _, ok := m.areas[key]; !ok {
		m.areaOrder = append(m.areaOrder, key)
	}
	m.areas[key] = r
}

// Connect adds an undirected edge. Both keys must name declared on-graph nodes.
func (m *Map) Connect(a, b string) error {
	for _, k := range []string{a, b} {
		n, ok := m.nodes[k]
		if !ok {
			return fmt.Errorf("connect %s-%s: unknown node %q", a, b, k)
		}
		if !n.OnGraph {
			return fmt.Errorf("connect %s-%s: node %q is off-graph", a, b, k)
		}
	}
	if a == b || m.connected(a, b) {
		return nil
	}
	m.adjacency[a] = append(m.adjacency[a], b)
	m.adjacency[b] = append(m.adjacency[b], a)
	return nil
}

func (m *Map) connected(a, b string) bool {
	for _, n := range m.adjacency[a] {
		if n == b {
			return true
		}
	}
	return false
}

// Point returns the point for key. It panics for an undeclared key: asking
// for a location that was never laid out is a programming error.
func (m *Map) Point(key string) geom.Point {
	n, ok := m.nodes[key]
	if !ok {
		panic(fmt.Sprintf("world: point key %q not found", key))
	}
	return n.Point
}

// LookupPoint returns the point for key and whether it exists.
func (m *Map) LookupPoint(key string) (geom.Point, bool) {
	n, ok := m.nodes[key]
	if !ok {
		return geom.Point{}, false
	}
	return n.Point, true
}

// Area returns the rectangle for key, panicking if it was never declared.
func (m *Map) Area(key string) geom.Rect {
	r, ok := m.areas[key]
	if !ok {
		panic(fmt.Sprintf("world: area key %q not found", key))
	}
	return r
}

// LookupArea returns the rectangle for key and whether it exists.
func (m *Map) LookupArea(key string) (geom.Rect, bool) {
	r, ok := m.areas[key]
	return r, ok
}

// IsOnGraph reports whether key names a declared on-graph node.
func (m *Map) IsOnGraph(key string) bool {
	n, ok := m.nodes[key]
	return ok && n.OnGraph
}

// Neighbors returns the adjacency list of key in declaration order.
func (m *Map) Neighbors(key string) []string {
	out := make([]string, len(m.adjacency[key]))
	copy(out, m.adjacency[key])
	return out
}

// Nodes returns every node in declaration order.
func (m *Map) Nodes() []Node {
	out := make([]Node, 0, len(m.order))
	for _, k := range m.order {
		out = append(out, *m.nodes[k])
	}
	return out
}

// Areas returns area keys in declaration order.
func (m *Map) Areas() []string {
	out := make([]string, len(m.areaOrder))
	copy(out, m.areaOrder)
	return out
}

// NearestNode returns the on-graph node closest to p. Ties go to the node
// declared first. ok is false when the graph has no on-graph nodes.
func (m *Map) NearestNode(p geom.Point) (key string, ok bool) {
	best := -1.0
	for _, k := range m.order {
		n := m.nodes[k]
		if !n.OnGraph {
			continue
		}
		d := geom.Distance(p, n.Point)
		if best < 0 || d < best {
			best = d
			key = k
			ok = true
		}
	}
	return key, ok
}

// EdgeCount returns the number of undirected edges.
func (m *Map) EdgeCount() int {
	total := 0
	for _, ns := range m.adjacency {
		total += len(ns)
	}
	return total / 2
}

// String returns a summary of the map.
func (m *Map) String() string {
	return fmt.Sprintf("Map(nodes=%d, edges=%d, areas=%d)", len(m.nodes), m.EdgeCount(), len(m.areas))
}
