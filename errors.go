package ospf

import "errors"

// Sentinel error kinds the core distinguishes, per spec.md §7. Callers use
// errors.Is against these exactly as the teacher's message_test.go checks
// errMarshal/errParse.
var (
	// ErrBadChecksum is returned by LsaCodec.Decode when an LSA's checksum
	// does not match its payload.
	ErrBadChecksum = errors.New("ospf: bad LSA checksum")

	// ErrTruncated is returned by LsaCodec.Decode when fewer bytes are
	// present than the LSA header or declared length requires.
	ErrTruncated = errors.New("ospf: truncated LSA")

	// ErrUnknownType is returned (alongside a decoded Opaque LSA) when the
	// ls_type tag is not one this codec understands.
	ErrUnknownType = errors.New("ospf: unknown LSA type")

	// ErrStaleSequence names the case of an LSA whose sequence number is not
	// newer than the one already installed. No operation returns it:
	// AdmitLSA drops such an LSA, logs it at debug level and returns nil.
	ErrStaleSequence = errors.New("ospf: stale LSA sequence number")

	// ErrPeerNotFound is returned by PeerManager operations given an
	// unknown PeerID.
	ErrPeerNotFound = errors.New("ospf: peer not found")

	// ErrAreaNotFound is returned by PeerManager operations given an
	// unknown AreaID.
	ErrAreaNotFound = errors.New("ospf: area not found")

	// ErrAreaBusy is returned by DestroyAreaRouter when the area still has
	// peers attached, and by DeletePeer when the peer is still Up.
	ErrAreaBusy = errors.New("ospf: area or peer busy")

	// ErrInvariantViolation is a fatal, internal-only error: SPF or
	// RoutingTableBuilder detected impossible state, e.g. a settled vertex
	// with no first hop. It is never caused by untrusted input.
	ErrInvariantViolation = errors.New("ospf: internal invariant violation")
)
