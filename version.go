package ospf

import (
	"fmt"
	"net/netip"
)

// Version is the OSPF protocol version in use on an AreaRouter or PeerManager.
type Version uint8

// Supported OSPF versions.
const (
	V2 Version = 2
	V3 Version = 3
)

// String returns the string representation of a Version.
func (v Version) String() string {
	switch v {
	case V2:
		return "V2"
	case V3:
		return "V3"
	default:
		return fmt.Sprintf("Version(%d)", uint8(v))
	}
}

// LinkType describes the data-link type of a peer's interface, as passed to
// PeerManager.CreatePeer.
type LinkType uint8

// Possible LinkType values.
const (
	Broadcast LinkType = iota
	PointToPoint
	PointToMultiPoint
	VLink
)

// AreaKind selects the behavior of an area created via
// PeerManager.CreateAreaRouter.
type AreaKind uint8

// Possible AreaKind values.
const (
	Normal AreaKind = iota
	Stub
	NSSA
)

func (k AreaKind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Stub:
		return "stub"
	case NSSA:
		return "nssa"
	default:
		return "unknown"
	}
}

// ID is a four byte big-endian identifier, used as the concrete
// representation of both RouterID and AreaID. It is laid out and printed
// exactly as OSPFv2 prints an IPv4 address, even though the value carried
// is an opaque 32-bit number rather than a reachable address (spec.md §3).
type ID [4]byte

// String returns the dotted-decimal representation of id.
func (id ID) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", id[0], id[1], id[2], id[3])
}

// IsZero reports whether id is the all-zero identifier.
func (id ID) IsZero() bool {
	return id == ID{}
}

// RouterID identifies an OSPF router, distinct from any address it may also
// carry (spec.md §3: "Distinct from an IPv4 address semantically even when
// OSPFv2 uses the same 32 bits").
type RouterID = ID

// AreaID identifies an OSPF area. The zero value is the backbone area.
type AreaID = ID

// Backbone is the distinguished AreaID naming the backbone area.
var Backbone = AreaID{}

// ParseID parses a dotted-decimal identifier string into an ID, the
// textual form routing1..4 use in their fixtures ("0.0.0.6",
// "128.16.64.16"). A plain integer such as "6" is rejected.
func ParseID(s string) (ID, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return ID{}, fmt.Errorf("ospf: invalid identifier %q: %w", s, err)
	}
	if !addr.Is4() {
		return ID{}, fmt.Errorf("ospf: identifier %q is not a 4-byte value", s)
	}
	return ID(addr.As4()), nil
}

// MustParseID is like ParseID but panics on error; intended for use with
// fixed, known-good strings in tests and fixtures.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// Address is the constraint implemented by the two concrete address-family
// parameters every generic component in this module (AreaRouter[A],
// PeerManager[A], IPNet[A], ...) is instantiated with: IPv4Address for
// OSPFv2, IPv6Address for OSPFv3. spec.md §3 calls this parameter "A".
type Address interface {
	comparable
	// BitLen returns the fixed bit width of the family (32 or 128).
	BitLen() int
	// Netip returns the address as a net/netip value.
	Netip() netip.Addr
	// String returns the textual form of the address.
	String() string
	// IsZero reports whether this is the family's zero value.
	IsZero() bool
}

// IPv4Address is the Address implementation used by AreaRouter[IPv4Address]
// and PeerManager[IPv4Address] instances running OSPFv2.
type IPv4Address netip.Addr

// NewIPv4Address wraps a netip.Addr as an IPv4Address. It panics if addr is
// not a valid 4-byte address.
func NewIPv4Address(addr netip.Addr) IPv4Address {
	if addr.IsValid() && !addr.Is4() {
		panic("ospf: NewIPv4Address given a non-IPv4 address")
	}
	return IPv4Address(addr)
}

// ParseIPv4 parses s as an IPv4Address.
func ParseIPv4(s string) (IPv4Address, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return IPv4Address{}, err
	}
	return NewIPv4Address(addr), nil
}

func (a IPv4Address) BitLen() int        { return 32 }
func (a IPv4Address) Netip() netip.Addr  { return netip.Addr(a) }
func (a IPv4Address) String() string     { return netip.Addr(a).String() }
func (a IPv4Address) IsZero() bool       { return !netip.Addr(a).IsValid() || netip.Addr(a) == netip.IPv4Unspecified() }

// IPv6Address is the Address implementation used by AreaRouter[IPv6Address]
// and PeerManager[IPv6Address] instances running OSPFv3.
type IPv6Address netip.Addr

// NewIPv6Address wraps a netip.Addr as an IPv6Address. It panics if addr is
// not a valid 16-byte address.
func NewIPv6Address(addr netip.Addr) IPv6Address {
	if addr.IsValid() && !addr.Is6() {
		panic("ospf: NewIPv6Address given a non-IPv6 address")
	}
	return IPv6Address(addr)
}

// ParseIPv6 parses s as an IPv6Address.
func ParseIPv6(s string) (IPv6Address, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return IPv6Address{}, err
	}
	return NewIPv6Address(addr), nil
}

func (a IPv6Address) BitLen() int       { return 128 }
func (a IPv6Address) Netip() netip.Addr { return netip.Addr(a) }
func (a IPv6Address) String() string    { return netip.Addr(a).String() }
func (a IPv6Address) IsZero() bool      { return !netip.Addr(a).IsValid() || netip.Addr(a) == netip.IPv6Unspecified() }

// IPNet is a (address, prefix-length) pair parametric over the address
// family A, as described in spec.md §3.
type IPNet[A Address] struct {
	Addr      A
	PrefixLen int
}

// String returns the CIDR textual form of n, e.g. "10.0.0.0/24".
func (n IPNet[A]) String() string {
	return fmt.Sprintf("%s/%d", n.Addr, n.PrefixLen)
}

// Prefix converts n to a net/netip.Prefix, the representation
// github.com/gaissmai/bart's Table uses for longest-prefix-match storage.
func (n IPNet[A]) Prefix() netip.Prefix {
	return netip.PrefixFrom(n.Addr.Netip(), n.PrefixLen).Masked()
}

// versionForFamily returns the OSPF Version associated with an address
// family at compile time, used by components that must pick a dispatch
// table (LsaCodec.Initialise) from a type parameter alone.
func versionForFamily[A Address]() Version {
	var zero A
	switch any(zero).(type) {
	case IPv4Address:
		return V2
	case IPv6Address:
		return V3
	default:
		panic("ospf: unsupported Address implementation")
	}
}
