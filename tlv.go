package ospf

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

// tlvType is the record tag of the test-driven LSA dump file format
// (spec.md §6).
type tlvType uint32

// Recognized tlvType values.
const (
	tlvVersion    tlvType = 1
	tlvSystemInfo tlvType = 2
	tlvOspfVersion tlvType = 3
	tlvArea       tlvType = 4
	tlvLSA        tlvType = 5
)

// DumpRecord is one decoded TLV record from a replay file.
type DumpRecord struct {
	Type    tlvType
	Payload []byte
}

// ReadDump parses r as a stream of (u32 type, u32 length, length bytes)
// records (spec.md §6). It stops at EOF or the first record carrying an
// unrecognized type; both are reported by returning the records read so
// far with a nil error, matching the format's "EOF or an unknown type
// ends the stream" rule.
func ReadDump(r io.Reader) ([]DumpRecord, error) {
	br := bufio.NewReader(r)
	var records []DumpRecord

	for {
		var header [8]byte
		if _, err := io.ReadFull(br, header[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return records, nil
			}
			return records, fmt.Errorf("ospf: dump read failed: %w", err)
		}

		typ := tlvType(binary.BigEndian.Uint32(header[0:4]))
		length := binary.BigEndian.Uint32(header[4:8])

		switch typ {
		case tlvVersion, tlvSystemInfo, tlvOspfVersion, tlvArea, tlvLSA:
		default:
			return records, nil
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(br, payload); err != nil {
			return records, fmt.Errorf("ospf: dump record type %d: %w", typ, ErrTruncated)
		}

		records = append(records, DumpRecord{Type: typ, Payload: payload})
	}
}

// DumpLoadResult is ReplayDump's structured summary of a parsed dump
// file, matching the layout spec.md §6 prescribes: a version preamble,
// then the self-originated Router-LSA, then zero or more admitted LSAs.
type DumpLoadResult struct {
	FileVersion  uint32
	SystemInfo   string
	OspfVersion  Version
	Area         AreaID
	SelfRouterLSA []byte
	Admitted     [][]byte
}

// ReplayDump interprets the records ReadDump produced according to
// spec.md §6's fixed ordering: TLV_VERSION, TLV_SYSTEM_INFO,
// TLV_OSPF_VERSION, TLV_AREA, then one or more TLV_LSA (the first of
// which is the router's own Router-LSA).
func ReplayDump(records []DumpRecord) (DumpLoadResult, error) {
	var out DumpLoadResult
	var lsaCount int

	for _, rec := range records {
		switch rec.Type {
		case tlvVersion:
			if len(rec.Payload) != 4 {
				return out, fmt.Errorf("ospf: TLV_VERSION malformed: %w", ErrTruncated)
			}
			out.FileVersion = binary.BigEndian.Uint32(rec.Payload)
		case tlvSystemInfo:
			out.SystemInfo = nulTerminatedString(rec.Payload)
		case tlvOspfVersion:
			if len(rec.Payload) != 4 {
				return out, fmt.Errorf("ospf: TLV_OSPF_VERSION malformed: %w", ErrTruncated)
			}
			switch binary.BigEndian.Uint32(rec.Payload) {
			case 2:
				out.OspfVersion = V2
			case 3:
				out.OspfVersion = V3
			default:
				return out, fmt.Errorf("ospf: TLV_OSPF_VERSION: unsupported version %d", binary.BigEndian.Uint32(rec.Payload))
			}
		case tlvArea:
			if len(rec.Payload) != 4 {
				return out, fmt.Errorf("ospf: TLV_AREA malformed: %w", ErrTruncated)
			}
			copy(out.Area[:], rec.Payload)
		case tlvLSA:
			if lsaCount == 0 {
				out.SelfRouterLSA = rec.Payload
			} else {
				out.Admitted = append(out.Admitted, rec.Payload)
			}
			lsaCount++
		}
	}

	return out, nil
}

func nulTerminatedString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// WriteDump serializes a DumpLoadResult back to the TLV format, used by
// tests that round-trip a captured LSDB.
func WriteDump(w io.Writer, d DumpLoadResult) error {
	writeRecord := func(typ tlvType, payload []byte) error {
		var header [8]byte
		binary.BigEndian.PutUint32(header[0:4], uint32(typ))
		binary.BigEndian.PutUint32(header[4:8], uint32(len(payload)))
		if _, err := w.Write(header[:]); err != nil {
			return err
		}
		_, err := w.Write(payload)
		return err
	}

	var versionBuf [4]byte
	binary.BigEndian.PutUint32(versionBuf[:], d.FileVersion)
	if err := writeRecord(tlvVersion, versionBuf[:]); err != nil {
		return err
	}

	sysInfo := append([]byte(d.SystemInfo), 0)
	if err := writeRecord(tlvSystemInfo, sysInfo); err != nil {
		return err
	}

	var ospfVerBuf [4]byte
	binary.BigEndian.PutUint32(ospfVerBuf[:], uint32(d.OspfVersion))
	if err := writeRecord(tlvOspfVersion, ospfVerBuf[:]); err != nil {
		return err
	}

	if err := writeRecord(tlvArea, d.Area[:]); err != nil {
		return err
	}

	if d.SelfRouterLSA != nil {
		if err := writeRecord(tlvLSA, d.SelfRouterLSA); err != nil {
			return err
		}
	}
	for _, lsa := range d.Admitted {
		if err := writeRecord(tlvLSA, lsa); err != nil {
			return err
		}
	}
	return nil
}
