package ospf

import (
	"fmt"
	"net/netip"

	"github.com/sirupsen/logrus"
)

// AreaRouter owns one area's LSDB and derives its routing table from it
// (spec.md §4). It is parametric over the address family A: an OSPFv2
// deployment instantiates AreaRouter[IPv4Address], OSPFv3 instantiates
// AreaRouter[IPv6Address]. Not safe for concurrent use — spec.md §5
// dedicates a single event-loop goroutine to all LSDB and SPT mutation.
type AreaRouter[A Address] struct {
	area AreaID
	kind AreaKind
	self RouterID

	db       *LSDB
	codec    *LsaCodec
	sink     IoSink[A]
	previous map[netip.Prefix]routeEntry[A]

	dirty bool
	log   *logrus.Entry
}

// NewAreaRouter constructs an AreaRouter for area, of the given kind, with
// self identifying this router's own Router-LSA in the LSDB. sink
// receives routing-table diffs from RecomputeRoutingTable.
func NewAreaRouter[A Address](area AreaID, kind AreaKind, self RouterID, sink IoSink[A]) *AreaRouter[A] {
	return &AreaRouter[A]{
		area:     area,
		kind:     kind,
		self:     self,
		db:       newLSDB(),
		codec:    NewLsaCodec(versionForFamily[A]()),
		sink:     sink,
		previous: make(map[netip.Prefix]routeEntry[A]),
		log: logrus.WithFields(logrus.Fields{
			"component": "arearouter",
			"area":      area.String(),
		}),
	}
}

// ReplaceSelfRouterLSA installs (or replaces) this router's own Router-LSA
// in the area's LSDB, bumping the sequence number past whatever is
// already present. Marks the area dirty (spec.md §4.2).
func (ar *AreaRouter[A]) ReplaceSelfRouterLSA(body *RouterLSA) {
	key := Key{Kind: KindRouter, LinkStateID: ar.self, AdvertisingRouter: ar.self}

	seq := uint32(1)
	if existing, ok := ar.db.Get(key); ok {
		seq = existing.Header.Sequence + 1
	}

	lsar := &LSA{
		Header: Header{
			Version:           ar.codec.Version(),
			Kind:              KindRouter,
			LinkStateID:       ar.self,
			AdvertisingRouter: ar.self,
			Sequence:          seq,
			SelfOriginating:   true,
		},
		Body: body,
	}

	ar.db.admit(lsar)
	ar.dirty = true
	ar.log.WithField("sequence", seq).Debug("replaced self Router-LSA")
}

// AdmitLSA decodes and admits an on-wire LSA into the area's LSDB
// (spec.md §4.2). A stale-sequence arrival is dropped silently, matching
// the peer-facing contract of §7. Any decode failure (bad checksum,
// truncated, unknown type) is surfaced to the caller and leaves the LSDB
// untouched, per spec.md §7's contract.
func (ar *AreaRouter[A]) AdmitLSA(wire []byte) error {
	lsar, err := ar.codec.Decode(wire)
	if err != nil {
		ar.log.WithError(err).Warn("rejected LSA")
		return err
	}

	result := ar.db.admit(lsar)
	switch result {
	case admitInserted, admitReplaced, admitPurged:
		ar.dirty = true
		ar.log.WithFields(logrus.Fields{
			"kind":   lsar.Header.Kind,
			"result": result,
		}).Debug("admitted LSA")
	case admitStale:
		ar.log.WithField("kind", lsar.Header.Kind).Debug("dropped stale LSA")
	}
	return nil
}

// DeleteLSA removes the LSA at key from the area's LSDB. Idempotent
// (spec.md §4.2).
func (ar *AreaRouter[A]) DeleteLSA(key Key) {
	if ar.db.delete(key) {
		ar.dirty = true
		ar.log.WithField("key", key).Debug("deleted LSA")
	}
}

// Dirty reports whether the LSDB has changed since the last
// RecomputeRoutingTable.
func (ar *AreaRouter[A]) Dirty() bool { return ar.dirty }

// RecomputeRoutingTable runs the §4.3–§4.5 pipeline (SpfGraph, SPT,
// RoutingTableBuilder) and pushes the resulting diff to the IoSink,
// deletes before adds (spec.md §5's ordering guarantee). Clears the dirty
// flag. Never fails on account of LSDB contents; if the IoSink rejects a
// route change, the sink's error is returned wrapped in
// ErrInvariantViolation.
func (ar *AreaRouter[A]) RecomputeRoutingTable() error {
	g := buildSpfGraph[A](ar.codec.Version(), ar.db)
	root := routerVertex(ar.self)
	settled := shortestPathTree(g, root)
	next := buildRoutingTable(ar.codec.Version(), ar.db, g, root, settled)

	deletes, adds := routeDiff(ar.previous, next)

	for _, p := range deletes {
		prefix := IPNet[A]{Addr: addressFromNetipPrefix[A](p), PrefixLen: p.Bits()}
		if err := ar.sink.DeleteRoute(prefix); err != nil {
			return fmt.Errorf("ospf: %w: %w", ErrInvariantViolation, err)
		}
	}
	for _, r := range adds {
		if err := ar.sink.AddRoute(r.Prefix, r.Nexthop, r.Metric, r.IsDiscard, r.IsEqualCost); err != nil {
			return fmt.Errorf("ospf: %w: %w", ErrInvariantViolation, err)
		}
	}

	ar.previous = next
	ar.dirty = false
	ar.log.WithFields(logrus.Fields{"deletes": len(deletes), "adds": len(adds)}).Info("recomputed routing table")
	return nil
}

// PrintLinkStateDatabase writes a human-readable dump of every LSA
// currently in the area's LSDB. Debug-only; no semantic effect (spec.md
// §4.2).
func (ar *AreaRouter[A]) PrintLinkStateDatabase() string {
	out := ""
	for _, lsar := range ar.db.All() {
		out += fmt.Sprintf("%-18s link_state_id=%-15s advertising_router=%-15s seq=%#08x age=%d\n",
			lsar.Header.Kind, lsar.Header.LinkStateID, lsar.Header.AdvertisingRouter, lsar.Header.Sequence, lsar.Header.Age)
	}
	return out
}

// addressFromNetipPrefix extracts a prefix's address as A, used to
// reconstruct the IPNet<A> a bare netip.Prefix diff key represents.
func addressFromNetipPrefix[A Address](p netip.Prefix) A {
	var zero A
	switch any(zero).(type) {
	case IPv4Address:
		return any(IPv4Address(p.Addr())).(A)
	case IPv6Address:
		return any(IPv6Address(p.Addr())).(A)
	default:
		return zero
	}
}
