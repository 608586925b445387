package ospf

import (
	"encoding/binary"
	"net/netip"
)

// vertexKind distinguishes the two SpfGraph vertex shapes (spec.md §3
// "SpfGraph vertex").
type vertexKind uint8

// Possible vertexKind values.
const (
	vertexRouter vertexKind = iota
	vertexNetwork
)

// VertexID identifies a vertex in the SpfGraph. Router vertices are keyed
// by RouterID; Network vertices by (DR-RouterID, interface-id/link-state-id)
// per spec.md §3.
type VertexID struct {
	Kind   vertexKind
	Router RouterID
	NetID  uint32
}

func routerVertex(id RouterID) VertexID { return VertexID{Kind: vertexRouter, Router: id} }

func networkVertex(dr RouterID, netID uint32) VertexID {
	return VertexID{Kind: vertexNetwork, Router: dr, NetID: netID}
}

// edgeKind records which §4.3 construction rule produced an edge, used
// only to select the right bidirectionality check.
type edgeKind uint8

const (
	edgeRouterRouter edgeKind = iota
	edgeRouterNetwork
	edgeNetworkRouter
)

// graphEdge is a directed, weighted SpfGraph edge (spec.md §3).
type graphEdge struct {
	Kind   edgeKind
	To     VertexID
	Weight uint32

	// LinkData is the SOURCE vertex's own address/identifier for this
	// link (e.g. a RouterLink's V2 link_data field): the value the far
	// side of the link would use to reach the source. It is what the SPT
	// (spf.go) reads to resolve a next-hop address once a vertex becomes
	// reachable directly from the root or from a root-attached network
	// (spec.md §9's transit-LAN first-hop note). Meaningless for
	// edgeNetworkRouter edges.
	LinkData uint32

	// Virtual marks an edge derived from a RouterLink of kind
	// LinkVirtual: SPF treats it like p2p, but RoutingTableBuilder
	// classifies the resulting route as intra-area via the transit area
	// (spec.md §4.3).
	Virtual bool
}

// stubLink is a deferred OSPFv2 stub RouterLink, consumed directly by
// RoutingTableBuilder rather than becoming a vertex (spec.md §4.3).
type stubLink[A Address] struct {
	Owner  RouterID
	Prefix IPNet[A]
	Metric uint32
}

// spfGraph is the directed graph built by interpreting an area's LSDB
// (spec.md §4.3), parametric over the address family A.
type spfGraph[A Address] struct {
	version Version

	vertices map[VertexID]Key // vertex -> origin LSA key
	edges    map[VertexID][]graphEdge
	stubs    []stubLink[A]
}

// buildSpfGraph interprets db into a spfGraph, including the
// bidirectionality pruning pass described in spec.md §4.3.
func buildSpfGraph[A Address](v Version, db *LSDB) *spfGraph[A] {
	g := &spfGraph[A]{
		version:  v,
		vertices: make(map[VertexID]Key),
		edges:    make(map[VertexID][]graphEdge),
	}

	// Pass 1: Network-LSAs establish Network vertices and the reverse
	// Network->Router edges (weight 0), and let transit RouterLinks in
	// OSPFv2 resolve their target network by link_state_id.
	networkByLinkStateID := make(map[uint32]Header)

	for _, lsar := range db.All() {
		if lsar.Header.Kind != KindNetwork {
			continue
		}
		n, ok := lsar.Body.(*NetworkLSA)
		if !ok {
			continue
		}

		id := networkVertex(lsar.Header.AdvertisingRouter, linkStateIDUint32(lsar.Header.LinkStateID))
		g.vertices[id] = lsar.Header.Key()
		networkByLinkStateID[linkStateIDUint32(lsar.Header.LinkStateID)] = lsar.Header

		for _, r := range n.AttachedRouters {
			g.edges[id] = append(g.edges[id], graphEdge{Kind: edgeNetworkRouter, To: routerVertex(r), Weight: 0})
		}
	}

	// Pass 2: Router-LSAs establish Router vertices and their outgoing
	// edges; stub links are deferred to g.stubs.
	for _, lsar := range db.All() {
		if lsar.Header.Kind != KindRouter {
			continue
		}
		r, ok := lsar.Body.(*RouterLSA)
		if !ok {
			continue
		}

		self := routerVertex(lsar.Header.AdvertisingRouter)
		g.vertices[self] = lsar.Header.Key()

		for _, link := range r.Links {
			switch link.Kind {
			case LinkP2P, LinkVirtual:
				var neighbour RouterID
				var linkData uint32
				if v == V2 {
					var b [4]byte
					binary.BigEndian.PutUint32(b[:], link.LinkID)
					neighbour = ID(b)
					linkData = link.LinkData
				} else {
					neighbour = link.NeighbourRouterID
					linkData = link.InterfaceID
				}
				g.edges[self] = append(g.edges[self], graphEdge{
					Kind:     edgeRouterRouter,
					To:       routerVertex(neighbour),
					Weight:   uint32(link.Metric),
					LinkData: linkData,
					Virtual:  link.Kind == LinkVirtual,
				})

			case LinkTransit:
				var target VertexID
				var linkData uint32
				if v == V2 {
					if h, ok := networkByLinkStateID[link.LinkID]; ok {
						target = networkVertex(h.AdvertisingRouter, linkStateIDUint32(h.LinkStateID))
					} else {
						// No matching Network-LSA in the LSDB yet: the
						// edge still references the network by its
						// link_state_id alone so later bidirectionality
						// pruning drops it cleanly.
						target = networkVertex(RouterID{}, link.LinkID)
					}
					linkData = link.LinkData
				} else {
					target = networkVertex(link.NeighbourRouterID, link.NeighbourInterfaceID)
					linkData = link.InterfaceID
				}
				g.edges[self] = append(g.edges[self], graphEdge{
					Kind:     edgeRouterNetwork,
					To:       target,
					Weight:   uint32(link.Metric),
					LinkData: linkData,
				})

			case LinkStub:
				if v != V2 {
					continue
				}
				g.stubs = append(g.stubs, stubLink[A]{
					Owner:  lsar.Header.AdvertisingRouter,
					Prefix: stubPrefix[A](link.LinkID, link.LinkData),
					Metric: uint32(link.Metric),
				})
			}
		}
	}

	g.prune()
	return g
}

// prune drops any edge that fails the bidirectionality check of spec.md
// §4.3: "An edge Router-A -> X is included in SPF only if the reverse
// traversal exists."
func (g *spfGraph[A]) prune() {
	pruned := make(map[VertexID][]graphEdge, len(g.edges))

	for from, es := range g.edges {
		for _, e := range es {
			ok := false
			switch e.Kind {
			case edgeRouterRouter:
				for _, back := range g.edges[e.To] {
					if back.Kind == edgeRouterRouter && back.To == from {
						ok = true
						break
					}
				}
			case edgeRouterNetwork:
				for _, back := range g.edges[e.To] {
					if back.Kind == edgeNetworkRouter && back.To == from {
						ok = true
						break
					}
				}
			case edgeNetworkRouter:
				// The reverse direction is exactly the edgeRouterNetwork
				// edge checked above; a Network->Router edge is always
				// structurally well-formed since it was derived directly
				// from the Network-LSA's attached-router list.
				ok = true
			}
			if ok {
				pruned[from] = append(pruned[from], e)
			}
		}
	}

	g.edges = pruned
}

// linkStateIDUint32 interprets an ID as a big-endian uint32, the numeric
// form link_state_id takes for OSPFv2 Network-LSAs and RouterLink link_id
// fields.
func linkStateIDUint32(id ID) uint32 {
	return binary.BigEndian.Uint32(id[:])
}

// stubPrefix builds the IPNet a V2 stub RouterLink describes: link_id is
// the network number, link_data is the network mask (spec.md §4.3).
func stubPrefix[A Address](linkID, mask uint32) IPNet[A] {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], linkID)
	addr := netip.AddrFrom4(b)

	var zero A
	switch any(zero).(type) {
	case IPv4Address:
		return IPNet[A]{Addr: any(IPv4Address(addr)).(A), PrefixLen: maskBits(mask)}
	default:
		return IPNet[A]{}
	}
}

// maskBits converts a 32-bit netmask into a prefix length.
func maskBits(mask uint32) int {
	n := 0
	for i := 31; i >= 0; i-- {
		if mask&(1<<uint(i)) == 0 {
			break
		}
		n++
	}
	return n
}
