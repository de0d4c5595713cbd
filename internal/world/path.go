package world

import (
	"github.com/der-cain/npc-town/internal/geom"
)

// TrimEpsilon is the distance under which a graph point adjacent to a literal
// endpoint is dropped, so agents never walk a zero-length leg.
const TrimEpsilon = 1.0

// FindPath converts two positions into a walkable point sequence.
//
// When both keys name on-graph nodes the route follows the breadth-first
// shortest hop path between them, framed by the literal start and end
// positions. Any missing, unknown or off-graph key yields the direct path
// [start, end]. A disconnected graph also yields the direct path and logs a
// warning; FindPath never fails.
func (m *Map) FindPath(start, end geom.Point, startKey, endKey string) []geom.Point {
	direct := []geom.Point{start, end}

	if startKey == "" || endKey == "" || !m.IsOnGraph(startKey) || !m.IsOnGraph(endKey) {
		return direct
	}

	keys := m.bfs(startKey, endKey)
	if keys == nil {
		m.logger.Warn("no graph path, walking direct",
			"from", startKey, "to", endKey, "start", start.String(), "end", end.String())
		return direct
	}

	path := make([]geom.Point, 0, len(keys)+2)
	path = append(path, start)
	for _, k := range keys {
		path = append(path, m.nodes[k].Point)
	}
	path = append(path, end)

	return trimPath(path)
}

// PathKeys returns the BFS key sequence between two on-graph nodes, or nil
// when either key is not on-graph or no route exists.
func (m *Map) PathKeys(startKey, endKey string) []string {
	if !m.IsOnGraph(startKey) || !m.IsOnGraph(endKey) {
		return nil
	}
	return m.bfs(startKey, endKey)
}

// bfs walks neighbours in declaration order and returns the first path that
// reaches goal, including both ends. Returns nil if goal is unreachable.
func (m *Map) bfs(from, goal string) []string {
	if from == goal {
		return []string{from}
	}

	parent := map[string]string{from: ""}
	queue := []string{from}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, next := range m.adjacency[cur] {
			if _, seen := parent[next]; seen {
				continue
			}
			parent[next] = cur
			if next == goal {
				return unwind(parent, from, goal)
			}
			queue = append(queue, next)
		}
	}
	return nil
}

func unwind(parent map[string]string, from, goal string) []string {
	var rev []string
	for k := goal; ; k = parent[k] {
		rev = append(rev, k)
		if k == from {
			break
		}
	}
	out := make([]string, len(rev))
	for i, k := range rev {
		out[len(rev)-1-i] = k
	}
	return out
}

// trimPath drops the interior point next to either literal endpoint when it
// sits within TrimEpsilon of that endpoint.
func trimPath(path []geom.Point) []geom.Point {
	if len(path) > 2 && geom.Distance(path[0], path[1]) < TrimEpsilon {
		path = append(path[:1], path[2:]...)
	}
	if n := len(path); n > 2 && geom.Distance(path[n-1], path[n-2]) < TrimEpsilon {
		path = append(path[:n-2], path[n-1])
	}
	return path
}
