package routing

import (
	"container/heap"
	"math"

	"github.com/arjunkp/crowdshield/internal/routegraph"
)

// costEpsilon bounds float comparison when deciding whether two path costs
// tie. Ties break on fewer hops, then lexicographic predecessor, so repeated
// runs over the same graph and risk state return identical paths.
const costEpsilon = 1e-9

type weightFunc func(routegraph.Edge) float64

type searchResult struct {
	dist map[string]float64
	hops map[string]int
	prev map[string]string
}

func dijkstra(g *routegraph.Graph, origin string, weight weightFunc) searchResult {
	res := searchResult{
		dist: map[string]float64{origin: 0},
		hops: map[string]int{origin: 0},
		prev: map[string]string{},
	}

	pq := &queue{}
	heap.Init(pq)
	heap.Push(pq, item{id: origin, cost: 0, hops: 0})
	settled := map[string]bool{}

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(item)
		if settled[cur.id] {
			continue
		}
		settled[cur.id] = true

		for _, e := range g.Neighbors(cur.id) {
			w := weight(e)
			if w < 0 || math.IsNaN(w) {
				continue
			}
			cand := cur.cost + w
			old, seen := res.dist[e.To]
			better := !seen || cand < old-costEpsilon
			if !better && seen && math.Abs(cand-old) <= costEpsilon {
				// Same cost: prefer fewer hops, then smaller predecessor.
				if cur.hops+1 < res.hops[e.To] ||
					(cur.hops+1 == res.hops[e.To] && cur.id < res.prev[e.To]) {
					better = true
				}
			}
			if better {
				res.dist[e.To] = cand
				res.hops[e.To] = cur.hops + 1
				res.prev[e.To] = cur.id
				heap.Push(pq, item{id: e.To, cost: cand, hops: cur.hops + 1})
			}
		}
	}

	return res
}

// pathTo reconstructs origin -> target as node IDs, or nil if unreachable.
func (r searchResult) pathTo(origin, target string) []string {
	if _, ok := r.dist[target]; !ok {
		return nil
	}
	var path []string
	for cur := target; ; {
		path = append([]string{cur}, path...)
		if cur == origin {
			return path
		}
		next, ok := r.prev[cur]
		if !ok {
			return nil
		}
		cur = next
	}
}

type item struct {
	id   string
	cost float64
	hops int
}

type queue []item

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].cost != q[j].cost {
		return q[i].cost < q[j].cost
	}
	if q[i].hops != q[j].hops {
		return q[i].hops < q[j].hops
	}
	return q[i].id < q[j].id
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(item)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}
