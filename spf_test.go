package ospf

import "testing"

// TestShortestPathTreeRouting2 reproduces routing2()'s topology and checks
// the settled tree matches the fixture's expected next hop (172.16.1.2,
// cost 2) for vertices reached through the peer router.
func TestShortestPathTreeRouting2(t *testing.T) {
	db, rootID, peerID := buildRouting2Graph(t)
	g := buildSpfGraph[IPv4Address](V2, db)
	root := routerVertex(rootID)

	settled := shortestPathTree(g, root)

	re, ok := settled[root]
	if !ok || re.Cost != 0 {
		t.Fatalf("settled[root] = %+v, ok=%v, want cost 0", re, ok)
	}

	net := networkVertex(peerID, binID("172.16.1.2"))
	ne, ok := settled[net]
	if !ok {
		t.Fatal("network vertex never settled")
	}
	if ne.Cost != 1 || !ne.HasPrev || ne.Previous != root {
		t.Fatalf("settled[net] = %+v, want cost 1 with Previous == root", ne)
	}

	peer := routerVertex(peerID)
	pe, ok := settled[peer]
	if !ok {
		t.Fatal("peer router vertex never settled")
	}
	// Network->Router edges carry weight 0 (spec.md §4.3): the full cost
	// to the peer is just the root's own transit-link metric (1), not the
	// stub-route metric (which layers on top in routingtable.go step 2).
	if pe.Cost != 1 {
		t.Fatalf("settled[peer].Cost = %d, want 1", pe.Cost)
	}
	if !pe.HasHop || pe.FirstHop != peer {
		t.Fatalf("settled[peer].FirstHop = %+v (HasHop=%v), want peer itself", pe.FirstHop, pe.HasHop)
	}
	if pe.LinkData != binID("172.16.1.2") {
		t.Fatalf("settled[peer].LinkData = %#x, want %#x (peer's own transit-link address)", pe.LinkData, binID("172.16.1.2"))
	}
}

func TestShortestPathTreeEmptyWithoutSelfLSA(t *testing.T) {
	db := newLSDB()
	g := buildSpfGraph[IPv4Address](V2, db)

	settled := shortestPathTree(g, routerVertex(MustParseID("0.0.0.1")))
	if len(settled) != 0 {
		t.Fatalf("settled tree for absent root = %v, want empty", settled)
	}
}

func TestShortestPathTreeEqualCostNeighbours(t *testing.T) {
	// Root has two equal-cost p2p links to B and C, each settling at cost
	// 1 independently: the basic shape addRouteEntry's ECMP detection
	// (spec.md §4.4) builds on once two such vertices feed the same
	// downstream prefix.
	db := newLSDB()
	root := MustParseID("0.0.0.1")
	b := MustParseID("0.0.0.2")
	c := MustParseID("0.0.0.3")

	db.admit(&LSA{
		Header: Header{Kind: KindRouter, LinkStateID: root, AdvertisingRouter: root, Sequence: 1},
		Body: &RouterLSA{Links: []RouterLink{
			{Kind: LinkP2P, Metric: 1, LinkID: binID("0.0.0.2"), LinkData: binID("10.0.0.1")},
			{Kind: LinkP2P, Metric: 1, LinkID: binID("0.0.0.3"), LinkData: binID("10.0.0.2")},
		}},
	})
	db.admit(&LSA{
		Header: Header{Kind: KindRouter, LinkStateID: b, AdvertisingRouter: b, Sequence: 1},
		Body: &RouterLSA{Links: []RouterLink{
			{Kind: LinkP2P, Metric: 1, LinkID: binID("0.0.0.1"), LinkData: binID("10.0.0.3")},
		}},
	})
	db.admit(&LSA{
		Header: Header{Kind: KindRouter, LinkStateID: c, AdvertisingRouter: c, Sequence: 1},
		Body: &RouterLSA{Links: []RouterLink{
			{Kind: LinkP2P, Metric: 1, LinkID: binID("0.0.0.1"), LinkData: binID("10.0.0.4")},
		}},
	})

	g := buildSpfGraph[IPv4Address](V2, db)
	settled := shortestPathTree(g, routerVertex(root))

	eb, ok := settled[routerVertex(b)]
	if !ok || eb.Cost != 1 {
		t.Fatalf("settled[b] = %+v, ok=%v, want cost 1", eb, ok)
	}
	ec, ok := settled[routerVertex(c)]
	if !ok || ec.Cost != 1 {
		t.Fatalf("settled[c] = %+v, ok=%v, want cost 1", ec, ok)
	}
}
