package ospf

import "container/heap"

// sptEntry is the per-vertex settled state of an SPF run: the data model
// spec.md §4.4 describes as "(cost, previous_vertex, first_hop_vertex,
// first_hop_link_data_or_interface)".
type sptEntry struct {
	Cost      uint32
	Origin    Key // the LSA this vertex was built from; buildRoutingTable looks it up in the LSDB
	Previous  VertexID
	HasPrev   bool
	FirstHop  VertexID
	HasHop    bool
	LinkData  uint32 // first hop's own address/interface-id toward the root
	IsRouter  bool
	IsNetwork bool
}

// pqItem is one entry in the Dijkstra priority queue.
type pqItem struct {
	vertex VertexID
	cost   uint32
	// tie-break fields, smaller wins: spec.md §4.4 "ties are broken by
	// the smaller advertising_router, then the smaller link_state_id".
	advertisingRouter RouterID
	linkStateID       ID
	index             int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	a, b := pq[i], pq[j]
	if a.cost != b.cost {
		return a.cost < b.cost
	}
	if a.advertisingRouter != b.advertisingRouter {
		return lessID(a.advertisingRouter, b.advertisingRouter)
	}
	return lessID(a.linkStateID, b.linkStateID)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index, pq[j].index = i, j
}

func (pq *priorityQueue) Push(x any) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

func lessID(a, b ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// shortestPathTree runs Dijkstra over g rooted at root, producing the
// settled-vertex map spec.md §4.4 describes. root must be the area
// router's own Router vertex; if its Router-LSA is absent from the graph
// the tree is empty (spec.md §4.4 edge case "no self Router-LSA yet").
func shortestPathTree[A Address](g *spfGraph[A], root VertexID) map[VertexID]sptEntry {
	settled := make(map[VertexID]sptEntry)
	if _, ok := g.vertices[root]; !ok {
		return settled
	}

	pq := &priorityQueue{}
	heap.Init(pq)
	heap.Push(pq, &pqItem{vertex: root, cost: 0, advertisingRouter: root.Router})

	settled[root] = sptEntry{Cost: 0, Origin: g.vertices[root], IsRouter: root.Kind == vertexRouter, IsNetwork: root.Kind == vertexNetwork}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(*pqItem)
		u := item.vertex

		cur, ok := settled[u]
		if ok && item.cost > cur.Cost {
			// Stale queue entry superseded by a cheaper path already
			// settled for u.
			continue
		}

		for _, e := range g.edges[u] {
			cost := cur.Cost + e.Weight

			next, already := settled[e.To]
			if already && cost > next.Cost {
				continue
			}
			if already && cost == next.Cost {
				// Equal-cost path: the SPT keeps the entry first
				// recorded at this cost and does not record the second
				// path. Equal-cost routes are flagged only by
				// addRouteEntry, when two routes for one prefix tie on
				// metric with different next hops.
				continue
			}

			entry := sptEntry{
				Cost:      cost,
				Origin:    g.vertices[e.To],
				Previous:  u,
				HasPrev:   true,
				IsRouter:  e.To.Kind == vertexRouter,
				IsNetwork: e.To.Kind == vertexNetwork,
			}

			switch {
			case u == root:
				// e.To becomes a direct child of the root: the
				// first-hop address is e.To's OWN reverse link back to
				// u, not anything recorded on this edge (spec.md §9,
				// RFC 2328 §16.1.1).
				entry.FirstHop = e.To
				entry.HasHop = true
				entry.LinkData = reverseLinkData(g, e.To, u)
			case cur.IsNetwork && cur.HasPrev && cur.Previous == root:
				// e.To is reached via a network directly attached to
				// the root: same rule, the first hop is e.To's own
				// link-data back toward that network.
				entry.FirstHop = e.To
				entry.HasHop = true
				entry.LinkData = reverseLinkData(g, e.To, u)
			default:
				// Deeper vertex: inherit the first hop unchanged from
				// the parent.
				entry.FirstHop = cur.FirstHop
				entry.HasHop = cur.HasHop
				entry.LinkData = cur.LinkData
			}

			settled[e.To] = entry
			heap.Push(pq, &pqItem{
				vertex:            e.To,
				cost:              cost,
				advertisingRouter: e.To.Router,
				linkStateID:       linkStateIDFor(e.To),
			})
		}
	}

	return settled
}

// reverseLinkData finds to's own edge pointing back at from and returns
// its LinkData: the address/interface-id to's own Router-LSA (or, for a
// Network vertex, the DR's) advertises for that link.
func reverseLinkData[A Address](g *spfGraph[A], to, from VertexID) uint32 {
	for _, back := range g.edges[to] {
		if back.To == from {
			return back.LinkData
		}
	}
	return 0
}

func linkStateIDFor(v VertexID) ID {
	if v.Kind == vertexNetwork {
		var id ID
		id[0] = byte(v.NetID >> 24)
		id[1] = byte(v.NetID >> 16)
		id[2] = byte(v.NetID >> 8)
		id[3] = byte(v.NetID)
		return id
	}
	return v.Router
}
