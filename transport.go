package ospf

import (
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// Fixed header parameters for Conn use (RFC 2328 appendix A.1 / RFC 5340
// appendix A.1).
const (
	tclass   = 0xc0 // DSCP CS6
	hopLimit = 1
)

// allSPFRoutersV2/allSPFRoutersV3 and allDRoutersV2/allDRoutersV3 are the
// per-family multicast groups every OSPF router (resp. DR/BDR) joins.
var (
	allSPFRoutersV2 = &net.IPAddr{IP: net.ParseIP("224.0.0.5")}
	allDRoutersV2   = &net.IPAddr{IP: net.ParseIP("224.0.0.6")}
	allSPFRoutersV3 = &net.IPAddr{IP: net.ParseIP("ff02::5")}
	allDRoutersV3   = &net.IPAddr{IP: net.ParseIP("ff02::6")}
)

// AllSPFRouters returns the all-SPF-routers multicast group address for
// the address family A.
func AllSPFRouters[A Address]() *net.IPAddr {
	if versionForFamily[A]() == V2 {
		return allSPFRoutersV2
	}
	return allSPFRoutersV3
}

// AllDRouters returns the all-designated-routers multicast group address
// for the address family A.
func AllDRouters[A Address]() *net.IPAddr {
	if versionForFamily[A]() == V2 {
		return allDRoutersV2
	}
	return allDRoutersV3
}

// Conn is a per-peer multicast transport: a single raw IP socket bound to
// one interface, joined to the OSPF multicast groups for its address
// family (spec.md §4.6's PeerManager attaches one Conn per Peer). It
// moves bytes only — LsaCodec and the message.go packet types handle
// framing above it — generalized from the teacher's IPv6-only conn.go to
// cover both golang.org/x/net/ipv4 and golang.org/x/net/ipv6. Not safe
// for concurrent use outside of one reader and one writer goroutine, as
// the teacher's own conn_test.go exercises.
type Conn[A Address] struct {
	ifi    *net.Interface
	groups []*net.IPAddr

	v4 *ipv4.PacketConn
	v6 *ipv6.PacketConn
}

// Listen creates a Conn bound to ifi. A point-to-point interface skips
// joining the DR/BDR group, matching RFC 2328/5340's guidance that
// adjacency election is meaningless there.
func Listen[A Address](ifi *net.Interface) (*Conn[A], error) {
	groups := []*net.IPAddr{AllSPFRouters[A]()}
	if ifi.Flags&net.FlagPointToPoint == 0 {
		groups = append(groups, AllDRouters[A]())
	}

	switch versionForFamily[A]() {
	case V2:
		return listenV4[A](ifi, groups)
	default:
		return listenV6[A](ifi, groups)
	}
}

func listenV4[A Address](ifi *net.Interface, groups []*net.IPAddr) (*Conn[A], error) {
	conn, err := net.ListenPacket("ip4:89", "0.0.0.0")
	if err != nil {
		return nil, err
	}
	c := ipv4.NewPacketConn(conn)

	if err := c.SetControlMessage(ipv4.FlagDst|ipv4.FlagInterface|ipv4.FlagTTL, true); err != nil {
		return nil, err
	}
	if err := c.SetTTL(hopLimit); err != nil {
		return nil, err
	}
	if err := c.SetMulticastTTL(hopLimit); err != nil {
		return nil, err
	}
	if err := c.SetTOS(tclass); err != nil {
		return nil, err
	}
	if err := c.SetMulticastInterface(ifi); err != nil {
		return nil, err
	}
	for _, g := range groups {
		if err := c.JoinGroup(ifi, g); err != nil {
			return nil, err
		}
	}
	if err := c.SetMulticastLoopback(false); err != nil {
		return nil, err
	}

	return &Conn[A]{ifi: ifi, groups: groups, v4: c}, nil
}

func listenV6[A Address](ifi *net.Interface, groups []*net.IPAddr) (*Conn[A], error) {
	conn, err := net.ListenPacket("ip6:89", "::")
	if err != nil {
		return nil, err
	}
	c := ipv6.NewPacketConn(conn)

	if err := c.SetControlMessage(^ipv6.ControlFlags(0), true); err != nil {
		return nil, err
	}
	// checksumOffset (14) is relative to an LSA's own body, not the OSPF
	// packet header; the packet-level checksum field (message.go's
	// PacketHeader.Checksum) sits at byte 12, which is what the kernel is
	// told to fill/verify here.
	if err := c.SetChecksum(true, 12); err != nil {
		return nil, err
	}
	if err := c.SetHopLimit(hopLimit); err != nil {
		return nil, err
	}
	if err := c.SetMulticastHopLimit(hopLimit); err != nil {
		return nil, err
	}
	if err := c.SetTrafficClass(tclass); err != nil {
		return nil, err
	}
	if err := c.SetMulticastInterface(ifi); err != nil {
		return nil, err
	}
	for _, g := range groups {
		if err := c.JoinGroup(ifi, g); err != nil {
			return nil, err
		}
	}
	if err := c.SetMulticastLoopback(false); err != nil {
		return nil, err
	}

	return &Conn[A]{ifi: ifi, groups: groups, v6: c}, nil
}

// Close leaves every joined multicast group and closes the underlying
// socket.
func (c *Conn[A]) Close() error {
	for _, g := range c.groups {
		var err error
		if c.v4 != nil {
			err = c.v4.LeaveGroup(c.ifi, g)
		} else {
			err = c.v6.LeaveGroup(c.ifi, g)
		}
		if err != nil {
			return err
		}
	}
	if c.v4 != nil {
		return c.v4.Close()
	}
	return c.v6.Close()
}

// SetReadDeadline sets the read deadline associated with the Conn.
func (c *Conn[A]) SetReadDeadline(t time.Time) error {
	if c.v4 != nil {
		return c.v4.SetReadDeadline(t)
	}
	return c.v6.SetReadDeadline(t)
}

// ReadFrom reads a single packet's raw bytes and its source address.
// Blocks until a timeout occurs or a packet is read.
func (c *Conn[A]) ReadFrom() ([]byte, *net.IPAddr, error) {
	b := make([]byte, c.ifi.MTU)
	if c.v4 != nil {
		n, _, src, err := c.v4.ReadFrom(b)
		if err != nil {
			return nil, nil, err
		}
		addr, ok := src.(*net.IPAddr)
		if !ok {
			return nil, nil, fmt.Errorf("ospf: unexpected source address type %T", src)
		}
		return b[:n], addr, nil
	}
	n, _, src, err := c.v6.ReadFrom(b)
	if err != nil {
		return nil, nil, err
	}
	addr, ok := src.(*net.IPAddr)
	if !ok {
		return nil, nil, fmt.Errorf("ospf: unexpected source address type %T", src)
	}
	return b[:n], addr, nil
}

// WriteTo writes b to dst, which may be a multicast group or a specific
// peer address.
func (c *Conn[A]) WriteTo(b []byte, dst *net.IPAddr) error {
	var err error
	if c.v4 != nil {
		_, err = c.v4.WriteTo(b, nil, dst)
	} else {
		_, err = c.v6.WriteTo(b, nil, dst)
	}
	return err
}
