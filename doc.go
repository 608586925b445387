// Package ospf implements the core of an OSPFv2/OSPFv3 area router: LSA
// decoding and checksumming (RFC 2328 appendix A.4, RFC 2740), LSDB
// admission, SPF computation, and routing-table derivation, driven by a
// PeerManager/AreaRouter lifecycle independent of any particular socket
// layer.
package ospf

//go:generate stringer -type=FloodingScope,LSType -output=string.go
