package ospf

import (
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
)

// PeerState is a Peer's position in the Absent->Down->Up->Down->Absent
// lifecycle (spec.md §4.6).
type PeerState uint8

// Possible PeerState values.
const (
	PeerAbsent PeerState = iota
	PeerDown
	PeerUp
)

func (s PeerState) String() string {
	switch s {
	case PeerDown:
		return "down"
	case PeerUp:
		return "up"
	default:
		return "absent"
	}
}

// PeerID identifies a Peer created by PeerManager.CreatePeer.
type PeerID uint64

// Peer is one interface attachment a PeerManager tracks: its data-link
// parameters and current lifecycle state (spec.md §4.6).
type Peer[A Address] struct {
	ID        PeerID
	Iface     string
	Vif       string
	Src       A
	PrefixLen int
	MTU       int
	LinkType  LinkType
	Area      AreaID
	State     PeerState

	// conn is the multicast transport for this peer's interface, opened
	// by CreatePeer. It is nil when Iface could not be resolved to a
	// live net.Interface or the socket could not be opened (e.g. missing
	// privilege) — a degraded peer still participates in the lifecycle
	// state machine, just without a live socket to send/receive on.
	conn *Conn[A]
}

// PeerManager is the top-level object a process holding OSPF state on
// one address family constructs: it owns every Peer and lazily-created
// AreaRouter for that family (spec.md §4.6). Not safe for concurrent use
// (spec.md §5).
type PeerManager[A Address] struct {
	peers map[PeerID]*Peer[A]
	areas map[AreaID]*AreaRouter[A]
	kinds map[AreaID]AreaKind

	self    RouterID
	nextID  uint64
	sinkFor func(AreaID) IoSink[A]

	log *logrus.Entry
}

// NewPeerManager returns an empty PeerManager for self's own RouterID.
// sinkFor is called once per area, the first time CreateAreaRouter
// establishes it, to obtain that area's IoSink.
func NewPeerManager[A Address](self RouterID, sinkFor func(AreaID) IoSink[A]) *PeerManager[A] {
	return &PeerManager[A]{
		peers:   make(map[PeerID]*Peer[A]),
		areas:   make(map[AreaID]*AreaRouter[A]),
		kinds:   make(map[AreaID]AreaKind),
		self:    self,
		sinkFor: sinkFor,
		log:     logrus.WithField("component", "peermanager"),
	}
}

// CreatePeer registers a new Peer in state Down, attached to area (which
// must already exist via CreateAreaRouter), per spec.md §4.6. It also
// opens the per-peer multicast transport (transport.go's Conn) on iface,
// the create_peer transport surface spec.md §4.6/§6 calls for. A missing
// interface or a socket that can't be opened (no privilege, interface
// down) degrades the peer to transport-less rather than failing
// create_peer outright: the lifecycle state machine itself never depends
// on a live socket.
func (pm *PeerManager[A]) CreatePeer(iface, vif string, src A, prefixLen, mtu int, linkType LinkType, area AreaID) (PeerID, error) {
	if _, ok := pm.areas[area]; !ok {
		return 0, fmt.Errorf("ospf: create_peer: area %s: %w", area, ErrAreaNotFound)
	}

	var conn *Conn[A]
	if ifi, err := net.InterfaceByName(iface); err != nil {
		pm.log.WithError(err).WithField("iface", iface).Warn("create_peer: interface not found, continuing without a transport")
	} else if c, err := Listen[A](ifi); err != nil {
		pm.log.WithError(err).WithField("iface", iface).Warn("create_peer: failed to open transport")
	} else {
		conn = c
	}

	pm.nextID++
	id := PeerID(pm.nextID)
	pm.peers[id] = &Peer[A]{
		ID:        id,
		Iface:     iface,
		Vif:       vif,
		Src:       src,
		PrefixLen: prefixLen,
		MTU:       mtu,
		LinkType:  linkType,
		Area:      area,
		State:     PeerDown,
		conn:      conn,
	}

	pm.log.WithFields(logrus.Fields{"peer": id, "iface": iface, "area": area.String()}).Info("peer created")
	return id, nil
}

// SetStatePeer transitions a peer between Down and Up (spec.md §4.6).
// Setting the same state twice is a no-op.
func (pm *PeerManager[A]) SetStatePeer(id PeerID, up bool) error {
	p, ok := pm.peers[id]
	if !ok {
		return fmt.Errorf("ospf: set_state_peer: %w", ErrPeerNotFound)
	}

	want := PeerDown
	if up {
		want = PeerUp
	}
	if p.State == want {
		return nil
	}
	p.State = want
	pm.log.WithFields(logrus.Fields{"peer": id, "state": want}).Info("peer state changed")
	return nil
}

// DeletePeer removes a Down peer (spec.md §4.6). Rejects a peer that is
// still Up.
func (pm *PeerManager[A]) DeletePeer(id PeerID) error {
	p, ok := pm.peers[id]
	if !ok {
		return fmt.Errorf("ospf: delete_peer: %w", ErrPeerNotFound)
	}
	if p.State == PeerUp {
		return fmt.Errorf("ospf: delete_peer %d: peer is up: %w", id, ErrAreaBusy)
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			pm.log.WithError(err).WithField("peer", id).Warn("delete_peer: failed to close transport")
		}
	}
	delete(pm.peers, id)
	pm.log.WithField("peer", id).Info("peer deleted")
	return nil
}

// CreateAreaRouter lazily establishes the AreaRouter for area, of the
// given kind, if it does not already exist (spec.md §4.6).
func (pm *PeerManager[A]) CreateAreaRouter(area AreaID, kind AreaKind) *AreaRouter[A] {
	if ar, ok := pm.areas[area]; ok {
		return ar
	}
	ar := NewAreaRouter[A](area, kind, pm.self, pm.sinkFor(area))
	pm.areas[area] = ar
	pm.kinds[area] = kind
	pm.log.WithFields(logrus.Fields{"area": area.String(), "kind": kind}).Info("area router created")
	return ar
}

// DestroyAreaRouter removes area's AreaRouter. Rejects if any peer is
// still attached to the area (spec.md §4.6).
func (pm *PeerManager[A]) DestroyAreaRouter(area AreaID) error {
	for _, p := range pm.peers {
		if p.Area == area {
			return fmt.Errorf("ospf: destroy_area_router %s: peers attached: %w", area, ErrAreaBusy)
		}
	}
	if _, ok := pm.areas[area]; !ok {
		return fmt.Errorf("ospf: destroy_area_router: %w", ErrAreaNotFound)
	}
	delete(pm.areas, area)
	delete(pm.kinds, area)
	pm.log.WithField("area", area.String()).Info("area router destroyed")
	return nil
}

// AreaRouter returns the AreaRouter for area, if one exists.
func (pm *PeerManager[A]) AreaRouter(area AreaID) (*AreaRouter[A], bool) {
	ar, ok := pm.areas[area]
	return ar, ok
}

// Peer returns the Peer registered under id, if any.
func (pm *PeerManager[A]) Peer(id PeerID) (*Peer[A], bool) {
	p, ok := pm.peers[id]
	return p, ok
}
