package ospf

import (
	"net/netip"
	"testing"
)

func TestRoutingTableSink(t *testing.T) {
	sink := NewRoutingTableSink[IPv4Address]()

	prefix := IPNet[IPv4Address]{Addr: NewIPv4Address(netip.MustParseAddr("10.0.0.0")), PrefixLen: 24}
	nexthop := NewIPv4Address(netip.MustParseAddr("192.0.2.1"))

	if err := sink.AddRoute(prefix, nexthop, 5, false, false); err != nil {
		t.Fatalf("AddRoute: %v", err)
	}
	if got := sink.RoutingTableSize(); got != 1 {
		t.Fatalf("RoutingTableSize() = %d, want 1", got)
	}
	if !sink.RoutingTableVerify(prefix, nexthop, 5, false, false) {
		t.Fatal("RoutingTableVerify returned false for the exact route just added")
	}
	if sink.RoutingTableVerify(prefix, nexthop, 6, false, false) {
		t.Fatal("RoutingTableVerify returned true for a mismatched metric")
	}

	route, ok := sink.Lookup(netip.MustParseAddr("10.0.0.5"))
	if !ok || route.Nexthop != nexthop {
		t.Fatalf("Lookup(10.0.0.5) = %+v, %v, want a hit via 10.0.0.0/24", route, ok)
	}

	if err := sink.DeleteRoute(prefix); err != nil {
		t.Fatalf("DeleteRoute: %v", err)
	}
	if got := sink.RoutingTableSize(); got != 0 {
		t.Fatalf("RoutingTableSize() after delete = %d, want 0", got)
	}
}

func TestRoutingTableSinkDeleteMissing(t *testing.T) {
	sink := NewRoutingTableSink[IPv4Address]()
	prefix := IPNet[IPv4Address]{Addr: NewIPv4Address(netip.MustParseAddr("10.0.0.0")), PrefixLen: 24}

	if err := sink.DeleteRoute(prefix); err == nil {
		t.Fatal("DeleteRoute of a never-installed prefix returned nil error")
	}
}

func TestRoutingTableSinkAddInvalidPrefix(t *testing.T) {
	sink := NewRoutingTableSink[IPv4Address]()
	if err := sink.AddRoute(IPNet[IPv4Address]{}, IPv4Address{}, 1, false, false); err == nil {
		t.Fatal("AddRoute of an invalid (zero-value) prefix returned nil error")
	}
}
