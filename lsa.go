package ospf

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// Fixed-size regions of an LSA, following the header-plus-trailer shape the
// teacher's message.go uses throughout (a const per fixed struct, then a
// marshal/unmarshal pair that packs or parses exactly that many bytes).
const (
	lsaHeaderLen = 20 // Age(2) Options/Type(2) LinkStateID(4) AdvertisingRouter(4) Sequence(4) Checksum(2) Length(2)

	// MaxAge is the reserved LS Age value (seconds) signalling "flush this
	// LSA from the LSDB" (spec.md §3, §4.1).
	MaxAge = 3600

	// LSInfinity is the metric value representing unreachability.
	LSInfinity = 0xffff
)

// LSKind is a version-independent tag for the payload carried by an LSA.
// It is the discriminant of the tagged union described in spec.md §3 and
// §9 ("Re-express as a tagged sum; every consumer exhaustively
// discriminates by tag").
type LSKind uint8

// Possible LSKind values.
const (
	KindRouter LSKind = iota
	KindNetwork
	KindSummaryNetwork
	KindSummaryASBR
	KindASExternal
	KindNSSA
	KindLink           // OSPFv3 only
	KindIntraAreaPrefix // OSPFv3 only
	KindOpaque          // unrecognized ls_type; round-trips via RawBody
)

func (k LSKind) String() string {
	switch k {
	case KindRouter:
		return "Router"
	case KindNetwork:
		return "Network"
	case KindSummaryNetwork:
		return "Summary-Network"
	case KindSummaryASBR:
		return "Summary-ASBR"
	case KindASExternal:
		return "AS-External"
	case KindNSSA:
		return "NSSA"
	case KindLink:
		return "Link"
	case KindIntraAreaPrefix:
		return "Intra-Area-Prefix"
	default:
		return "Opaque"
	}
}

// wireLSType maps an LSKind to the on-the-wire ls_type tag for a given
// Version. ok is false if the kind has no wire representation in that
// version (e.g. KindLink is OSPFv3-only).
func wireLSType(v Version, k LSKind) (uint16, bool) {
	switch v {
	case V2:
		switch k {
		case KindRouter:
			return 1, true
		case KindNetwork:
			return 2, true
		case KindSummaryNetwork:
			return 3, true
		case KindSummaryASBR:
			return 4, true
		case KindASExternal:
			return 5, true
		case KindNSSA:
			return 7, true
		}
	case V3:
		switch k {
		case KindRouter:
			return 0x2001, true
		case KindNetwork:
			return 0x2002, true
		case KindSummaryNetwork:
			return 0x2003, true
		case KindSummaryASBR:
			return 0x2004, true
		case KindASExternal:
			return 0x4005, true
		case KindNSSA:
			return 0x2007, true
		case KindLink:
			return 0x0008, true
		case KindIntraAreaPrefix:
			return 0x2009, true
		}
	}
	return 0, false
}

// lsKindFromWire is the inverse of wireLSType; ok is false for an
// unrecognized tag (the caller treats the LSA as KindOpaque).
func lsKindFromWire(v Version, t uint16) (LSKind, bool) {
	switch v {
	case V2:
		switch t {
		case 1:
			return KindRouter, true
		case 2:
			return KindNetwork, true
		case 3:
			return KindSummaryNetwork, true
		case 4:
			return KindSummaryASBR, true
		case 5:
			return KindASExternal, true
		case 7:
			return KindNSSA, true
		}
	case V3:
		switch t {
		case 0x2001:
			return KindRouter, true
		case 0x2002:
			return KindNetwork, true
		case 0x2003:
			return KindSummaryNetwork, true
		case 0x2004:
			return KindSummaryASBR, true
		case 0x4005:
			return KindASExternal, true
		case 0x2007:
			return KindNSSA, true
		case 0x0008:
			return KindLink, true
		case 0x2009:
			return KindIntraAreaPrefix, true
		}
	}
	return KindOpaque, false
}

// Header is the version- and kind-independent part of every LSA in the
// LSDB (spec.md §3 "LSA header").
type Header struct {
	Version           Version
	Kind              LSKind
	WireType          uint16 // raw ls_type, preserved verbatim for Opaque round-trip
	LinkStateID       ID
	AdvertisingRouter RouterID
	Sequence          uint32
	Age               uint16
	Checksum          uint16
	Length            uint16

	// SelfOriginating is bookkeeping only, never carried on the wire
	// (spec.md §3).
	SelfOriginating bool
}

// Key identifies an LSA's slot in the LSDB: (ls_type, link_state_id,
// advertising_router) per spec.md §3. Keys are comparable and usable as a
// map key directly.
type Key struct {
	Kind              LSKind
	LinkStateID       ID
	AdvertisingRouter RouterID
}

// Key returns the LSDB key for h.
func (h Header) Key() Key {
	return Key{Kind: h.Kind, LinkStateID: h.LinkStateID, AdvertisingRouter: h.AdvertisingRouter}
}

// IsMaxAge reports whether this LSA is flagged for flush (spec.md §4.1).
func (h Header) IsMaxAge() bool { return h.Age >= MaxAge }

// NewerThan implements the LSDB's "replace-on-newer-sequence" rule
// (spec.md §3). Equal sequence numbers are not newer.
func (h Header) NewerThan(other Header) bool {
	return int32(h.Sequence-other.Sequence) > 0
}

// Body is implemented by every concrete LSA payload type. Kind() reports
// the ls_type; routingtable.go also type-asserts a Body to its concrete
// type (*RouterLSA, *NetworkLSA, *SummaryLSA, *ASExternalLSA).
type Body interface {
	Kind() LSKind
	bodyLen(v Version) int
	marshalBody(b []byte, v Version)
	unmarshalBody(b []byte, v Version) error
}

// LSA is a decoded Link State Advertisement: the version/kind-independent
// Header plus its tagged-union Body.
type LSA struct {
	Header Header
	Body   Body
}

// RouterLinkKind is the kind of a RouterLink entry in a Router-LSA.
type RouterLinkKind uint8

// Possible RouterLinkKind values (spec.md §3).
const (
	LinkP2P RouterLinkKind = iota
	LinkTransit
	LinkStub // OSPFv2 only
	LinkVirtual
)

func (k RouterLinkKind) wire() uint8 {
	switch k {
	case LinkP2P:
		return 1
	case LinkTransit:
		return 2
	case LinkStub:
		return 3
	case LinkVirtual:
		return 4
	default:
		return 0
	}
}

func routerLinkKindFromWire(b uint8) RouterLinkKind {
	switch b {
	case 1:
		return LinkP2P
	case 2:
		return LinkTransit
	case 3:
		return LinkStub
	case 4:
		return LinkVirtual
	default:
		return LinkP2P
	}
}

// RouterLink is one link entry of a Router-LSA (spec.md §3). Only the
// fields relevant to the link's Kind and Version are meaningful; the
// others are zero.
type RouterLink struct {
	Kind   RouterLinkKind
	Metric uint16

	// OSPFv2 fields.
	LinkID   uint32 // neighbour RouterID (p2p/virtual), DR address (transit), network number (stub)
	LinkData uint32 // interface address (transit) or netmask (stub)

	// OSPFv3 fields.
	InterfaceID          uint32
	NeighbourInterfaceID uint32
	NeighbourRouterID    RouterID
}

// routerLinkLen is the OSPFv2 wire size of a RouterLink (no TOS entries).
const routerLinkLen = 12

// routerLinkLenV3 is the OSPFv3 wire size of a RouterLink.
const routerLinkLenV3 = 16

func marshalRouterLinkV2(l RouterLink, b []byte) {
	binary.BigEndian.PutUint32(b[0:4], l.LinkID)
	binary.BigEndian.PutUint32(b[4:8], l.LinkData)
	b[8] = l.Kind.wire()
	b[9] = 0 // # TOS entries; TOS routing is not supported
	binary.BigEndian.PutUint16(b[10:12], l.Metric)
}

func marshalRouterLinkV3(l RouterLink, b []byte) {
	b[0] = l.Kind.wire()
	b[1] = 0
	binary.BigEndian.PutUint16(b[2:4], l.Metric)
	binary.BigEndian.PutUint32(b[4:8], l.InterfaceID)
	binary.BigEndian.PutUint32(b[8:12], l.NeighbourInterfaceID)
	copy(b[12:16], l.NeighbourRouterID[:])
}

func parseRouterLinkV3(b []byte) RouterLink {
	l := RouterLink{
		Kind:                 routerLinkKindFromWire(b[0]),
		Metric:               binary.BigEndian.Uint16(b[2:4]),
		InterfaceID:          binary.BigEndian.Uint32(b[4:8]),
		NeighbourInterfaceID: binary.BigEndian.Uint32(b[8:12]),
	}
	copy(l.NeighbourRouterID[:], b[12:16])
	return l
}

func parseRouterLinkV2(b []byte) RouterLink {
	return RouterLink{
		LinkID:   binary.BigEndian.Uint32(b[0:4]),
		LinkData: binary.BigEndian.Uint32(b[4:8]),
		Kind:     routerLinkKindFromWire(b[8]),
		Metric:   binary.BigEndian.Uint16(b[10:12]),
	}
}

// RouterLSA is the Router-LSA body (spec.md §3).
type RouterLSA struct {
	// ABR is the B-bit: this router is an Area Border Router.
	ABR bool
	// ASBR is the E-bit: this router is an AS Boundary Router.
	ASBR bool
	// VirtualEndpoint is the V-bit: this router is a virtual-link endpoint.
	VirtualEndpoint bool
	Links           []RouterLink
}

func (RouterLSA) Kind() LSKind { return KindRouter }

func (r RouterLSA) bodyLen(v Version) int {
	switch v {
	case V2:
		return 4 + routerLinkLen*len(r.Links)
	default:
		return 4 + routerLinkLenV3*len(r.Links)
	}
}

func (r RouterLSA) marshalBody(b []byte, v Version) {
	var flags uint8
	if r.VirtualEndpoint {
		flags |= 1 << 2
	}
	if r.ASBR {
		flags |= 1 << 1
	}
	if r.ABR {
		flags |= 1 << 0
	}

	switch v {
	case V2:
		b[0] = flags
		b[1] = 0
		binary.BigEndian.PutUint16(b[2:4], uint16(len(r.Links)))
		off := 4
		for _, l := range r.Links {
			marshalRouterLinkV2(l, b[off:off+routerLinkLen])
			off += routerLinkLen
		}
	default: // V3: flags byte then 3 bytes of Options (left zero; not modeled)
		b[0] = flags
		b[1], b[2], b[3] = 0, 0, 0
		off := 4
		for _, l := range r.Links {
			marshalRouterLinkV3(l, b[off:off+routerLinkLenV3])
			off += routerLinkLenV3
		}
	}
}

func (r *RouterLSA) unmarshalBody(b []byte, v Version) error {
	if len(b) < 4 {
		return fmt.Errorf("ospf: Router-LSA body too short: %d: %w", len(b), ErrTruncated)
	}
	flags := b[0]
	r.VirtualEndpoint = flags&(1<<2) != 0
	r.ASBR = flags&(1<<1) != 0
	r.ABR = flags&(1<<0) != 0

	switch v {
	case V2:
		n := int(binary.BigEndian.Uint16(b[2:4]))
		want := 4 + n*routerLinkLen
		if len(b) != want {
			return fmt.Errorf("ospf: Router-LSA declares %d links but body is %d bytes: %w", n, len(b), ErrTruncated)
		}
		r.Links = make([]RouterLink, n)
		off := 4
		for i := 0; i < n; i++ {
			r.Links[i] = parseRouterLinkV2(b[off : off+routerLinkLen])
			off += routerLinkLen
		}
	default:
		if (len(b)-4)%routerLinkLenV3 != 0 {
			return fmt.Errorf("ospf: Router-LSA body %d bytes does not divide into V3 links: %w", len(b), ErrTruncated)
		}
		n := (len(b) - 4) / routerLinkLenV3
		r.Links = make([]RouterLink, n)
		off := 4
		for i := 0; i < n; i++ {
			r.Links[i] = parseRouterLinkV3(b[off : off+routerLinkLenV3])
			off += routerLinkLenV3
		}
	}
	return nil
}

// NetworkLSA is the Network-LSA body, originated by a transit LAN's
// Designated Router (spec.md §3).
type NetworkLSA struct {
	// Mask is the V2 network_mask field; zero and ignored for V3.
	Mask            uint32
	AttachedRouters []RouterID
}

func (NetworkLSA) Kind() LSKind { return KindNetwork }

func (n NetworkLSA) bodyLen(Version) int {
	return 4 + 4*len(n.AttachedRouters)
}

func (n NetworkLSA) marshalBody(b []byte, v Version) {
	if v == V2 {
		binary.BigEndian.PutUint32(b[0:4], n.Mask)
	} else {
		// 3 bytes Options + 1 reserved; Options is not modeled.
		b[0], b[1], b[2], b[3] = 0, 0, 0, 0
	}
	off := 4
	for _, r := range n.AttachedRouters {
		copy(b[off:off+4], r[:])
		off += 4
	}
}

func (n *NetworkLSA) unmarshalBody(b []byte, v Version) error {
	if len(b) < 4 || (len(b)-4)%4 != 0 {
		return fmt.Errorf("ospf: Network-LSA body malformed, %d bytes: %w", len(b), ErrTruncated)
	}
	if v == V2 {
		n.Mask = binary.BigEndian.Uint32(b[0:4])
	}
	count := (len(b) - 4) / 4
	n.AttachedRouters = make([]RouterID, count)
	off := 4
	for i := 0; i < count; i++ {
		copy(n.AttachedRouters[i][:], b[off:off+4])
		off += 4
	}
	return nil
}

// SummaryLSA is the body shared by Summary-Network-LSA and
// Summary-ASBR-LSA (spec.md §3): an inter-area prefix or router
// reachability summary from an ABR. Kind distinguishes the two arms.
type SummaryLSA struct {
	kind LSKind // KindSummaryNetwork or KindSummaryASBR

	// Mask is the V2 network_mask field; meaningful only for
	// KindSummaryNetwork (zero for KindSummaryASBR, per RFC 2328 §12.4.3).
	Mask   uint32
	Metric uint32 // 24-bit on the wire
}

// NewSummaryNetworkLSA constructs a Summary-Network-LSA body.
func NewSummaryNetworkLSA(mask, metric uint32) *SummaryLSA {
	return &SummaryLSA{kind: KindSummaryNetwork, Mask: mask, Metric: metric}
}

// NewSummaryASBRLSA constructs a Summary-ASBR-LSA body.
func NewSummaryASBRLSA(metric uint32) *SummaryLSA {
	return &SummaryLSA{kind: KindSummaryASBR, Metric: metric}
}

func (s *SummaryLSA) Kind() LSKind { return s.kind }

func (s *SummaryLSA) bodyLen(Version) int { return 8 }

func (s *SummaryLSA) marshalBody(b []byte, v Version) {
	binary.BigEndian.PutUint32(b[0:4], s.Mask)
	binary.BigEndian.PutUint32(b[4:8], s.Metric&0x00ffffff)
}

func (s *SummaryLSA) unmarshalBody(b []byte, v Version) error {
	if len(b) != 8 {
		return fmt.Errorf("ospf: Summary-LSA body must be 8 bytes, got %d: %w", len(b), ErrTruncated)
	}
	s.Mask = binary.BigEndian.Uint32(b[0:4])
	s.Metric = binary.BigEndian.Uint32(b[4:8]) & 0x00ffffff
	return nil
}

// MetricType distinguishes AS-External-LSA E1 vs E2 metrics (spec.md §4.5).
type MetricType uint8

// Possible MetricType values.
const (
	Type1 MetricType = 1
	Type2 MetricType = 2
)

// ASExternalLSA is the AS-External-LSA body (spec.md §3).
type ASExternalLSA struct {
	Mask              uint32 // V2 network_mask
	MetricType        MetricType
	Metric            uint32 // 24-bit on the wire
	ForwardingAddress netip.Addr
	ExternalRouteTag  uint32
}

func (ASExternalLSA) Kind() LSKind { return KindASExternal }

func (a ASExternalLSA) bodyLen(Version) int { return 16 }

func (a ASExternalLSA) marshalBody(b []byte, v Version) {
	binary.BigEndian.PutUint32(b[0:4], a.Mask)

	var flags uint32
	if a.MetricType == Type2 {
		flags = 1 << 31
	}
	binary.BigEndian.PutUint32(b[4:8], flags|(a.Metric&0x00ffffff))

	var fwd [4]byte
	if a.ForwardingAddress.Is4() {
		fwd = a.ForwardingAddress.As4()
	}
	copy(b[8:12], fwd[:])
	binary.BigEndian.PutUint32(b[12:16], a.ExternalRouteTag)
}

func (a *ASExternalLSA) unmarshalBody(b []byte, v Version) error {
	if len(b) != 16 {
		return fmt.Errorf("ospf: AS-External-LSA body must be 16 bytes, got %d: %w", len(b), ErrTruncated)
	}
	a.Mask = binary.BigEndian.Uint32(b[0:4])

	word := binary.BigEndian.Uint32(b[4:8])
	if word&(1<<31) != 0 {
		a.MetricType = Type2
	} else {
		a.MetricType = Type1
	}
	a.Metric = word & 0x00ffffff

	var fwd [4]byte
	copy(fwd[:], b[8:12])
	if fwd != [4]byte{} {
		a.ForwardingAddress = netip.AddrFrom4(fwd)
	}
	a.ExternalRouteTag = binary.BigEndian.Uint32(b[12:16])
	return nil
}

// OpaqueLSA is the round-trip-preserving arm for any ls_type this codec
// does not recognize, plus the not-yet-fully-modeled OSPFv3 Link-LSA and
// Intra-Area-Prefix-LSA (spec.md §3, §9). RawBody is exactly the bytes
// that followed the LSA header on the wire.
type OpaqueLSA struct {
	kind    LSKind
	RawBody []byte
}

func (o *OpaqueLSA) Kind() LSKind { return o.kind }

func (o *OpaqueLSA) bodyLen(Version) int { return len(o.RawBody) }

func (o *OpaqueLSA) marshalBody(b []byte, v Version) {
	copy(b, o.RawBody)
}

func (o *OpaqueLSA) unmarshalBody(b []byte, v Version) error {
	o.RawBody = append([]byte(nil), b...)
	return nil
}

var (
	_ Body = (*RouterLSA)(nil)
	_ Body = (*NetworkLSA)(nil)
	_ Body = (*SummaryLSA)(nil)
	_ Body = (*ASExternalLSA)(nil)
	_ Body = (*OpaqueLSA)(nil)
	_ Body = (*nssaLSA)(nil)
)
