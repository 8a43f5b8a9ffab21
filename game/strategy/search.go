package strategy

import (
	"container/heap"
	"math"

	"github.com/wricardo/racetrack/game/engine"
)

// Edge costs of the route search.
const (
	CostImpassable        = math.MaxFloat64 / 1e6
	CostOpen              = 1.0
	CostNearWall          = 2.0
	CostDirectionConstant = 0.001
)

type pathNode struct {
	pos  engine.Vector
	prev int // arena index of the predecessor, -1 for the start
	cost float64
	seq  int // insertion order, breaks cost ties
	slot int // position in the frontier, -1 once popped
}

// planner is a uniform-cost search over the track cells. Nodes live in an
// arena and the frontier is a heap of arena indices.
type planner struct {
	track   *engine.Track
	nodes   []pathNode
	byPos   map[engine.Vector]int
	visited map[engine.Vector]bool
	queue   []int
	seq     int
}

func (p *planner) Len() int { return len(p.queue) }

func (p *planner) Less(i, j int) bool {
	a, b := &p.nodes[p.queue[i]], &p.nodes[p.queue[j]]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	return a.seq < b.seq
}

func (p *planner) Swap(i, j int) {
	p.queue[i], p.queue[j] = p.queue[j], p.queue[i]
	p.nodes[p.queue[i]].slot = i
	p.nodes[p.queue[j]].slot = j
}

func (p *planner) Push(x any) {
	id := x.(int)
	p.nodes[id].slot = len(p.queue)
	p.queue = append(p.queue, id)
}

func (p *planner) Pop() any {
	last := len(p.queue) - 1
	id := p.queue[last]
	p.queue = p.queue[:last]
	p.nodes[id].slot = -1
	return id
}

func (p *planner) enqueue(pos engine.Vector, prev int, cost float64) {
	p.seq++
	p.nodes = append(p.nodes, pathNode{pos: pos, prev: prev, cost: cost, seq: p.seq})
	id := len(p.nodes) - 1
	p.byPos[pos] = id
	heap.Push(p, id)
}

func (p *planner) relax(id, prev int, cost float64) {
	n := &p.nodes[id]
	if cost >= n.cost || n.slot < 0 {
		return
	}
	p.seq++
	n.prev = prev
	n.cost = cost
	n.seq = p.seq
	heap.Fix(p, n.slot)
}

// stepCost prices the move from node id to the adjacent cell next.
func (p *planner) stepCost(id int, next engine.Vector) float64 {
	node := p.nodes[id]
	step := next.Sub(node.pos)
	kind := p.track.SpaceKindAt(next)
	if kind == engine.Wall || (kind.IsFinish() && !engine.CrossedCorrectly(kind, step)) {
		return CostImpassable
	}

	cost := CostOpen
	if p.track.IsNearWall(next) {
		cost = CostNearWall
	}
	if node.prev >= 0 {
		prevStep := node.pos.Sub(p.nodes[node.prev].pos)
		cost += CostDirectionConstant * float64(1-prevStep.Dot(step))
	}
	return cost
}

func (p *planner) reconstruct(id int) []engine.Vector {
	var path []engine.Vector
	for ; id >= 0; id = p.nodes[id].prev {
		path = append(path, p.nodes[id].pos)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// FindPath searches the cheapest route from start to any finish cell that is
// entered in its required direction. Cells next to walls cost double and
// turning costs a little, so the route prefers open, straight driving. The
// result starts with start and ends on the finish cell.
func FindPath(track *engine.Track, start engine.Vector) ([]engine.Vector, error) {
	p := &planner{
		track:   track,
		byPos:   make(map[engine.Vector]int),
		visited: make(map[engine.Vector]bool),
	}
	p.enqueue(start, -1, 0)

	for p.Len() > 0 {
		id := heap.Pop(p).(int)
		node := p.nodes[id]
		if node.cost >= CostImpassable {
			break
		}
		if track.SpaceKindAt(node.pos).IsFinish() {
			return p.reconstruct(id), nil
		}
		p.visited[node.pos] = true

		for _, d := range engine.Directions() {
			if d == engine.None {
				continue
			}
			next := node.pos.Add(d.Vector())
			if p.visited[next] {
				continue
			}
			cost := node.cost + p.stepCost(id, next)
			if known, ok := p.byPos[next]; ok {
				p.relax(known, id, cost)
				continue
			}
			p.enqueue(next, id, cost)
		}
	}
	return nil, ErrNoPath
}

// SmoothPath removes waypoints that can be skipped by driving straight. A
// waypoint between two others is dropped when the line joining them neither
// touches nor passes next to a wall. Each pass walks from the finish back to
// the start and stops at the first removal; the next pass starts over at the
// finish. Smoothing a smoothed path returns it unchanged.
func SmoothPath(track *engine.Track, path []engine.Vector) []engine.Vector {
	out := append([]engine.Vector(nil), path...)
	for {
		var changed bool
		out, changed = smoothPass(track, out)
		if !changed {
			return out
		}
	}
}

func smoothPass(track *engine.Track, path []engine.Vector) ([]engine.Vector, bool) {
	for end := len(path) - 1; end >= 2; end-- {
		if clearLine(track, path[end], path[end-2]) {
			return append(path[:end-1], path[end:]...), true
		}
	}
	return path, false
}

func clearLine(track *engine.Track, from, to engine.Vector) bool {
	for _, p := range engine.PassedPositions(from, to) {
		if track.SpaceKindAt(p) == engine.Wall || track.IsNearWall(p) {
			return false
		}
	}
	return true
}

// Plan finds and smooths the route from start to the finish.
func Plan(track *engine.Track, start engine.Vector) ([]engine.Vector, error) {
	raw, err := FindPath(track, start)
	if err != nil {
		return nil, err
	}
	return SmoothPath(track, raw), nil
}
