package ospf

import (
	"bytes"
	"testing"
)

func TestWriteDumpReadDumpReplayDumpRoundTrip(t *testing.T) {
	codec := NewLsaCodec(V2)
	self := MustParseID("10.0.8.161")

	selfLSA, err := codec.Encode(&LSA{
		Header: Header{Kind: KindRouter, LinkStateID: self, AdvertisingRouter: self, Sequence: 1},
		Body:   &RouterLSA{},
	})
	if err != nil {
		t.Fatalf("Encode self Router-LSA: %v", err)
	}

	peer := MustParseID("172.16.1.2")
	peerLSA, err := codec.Encode(&LSA{
		Header: Header{Kind: KindRouter, LinkStateID: peer, AdvertisingRouter: peer, Sequence: 1},
		Body:   &RouterLSA{},
	})
	if err != nil {
		t.Fatalf("Encode peer Router-LSA: %v", err)
	}

	want := DumpLoadResult{
		FileVersion:   1,
		SystemInfo:    "ospfdtest",
		OspfVersion:   V2,
		Area:          Backbone,
		SelfRouterLSA: selfLSA,
		Admitted:      [][]byte{peerLSA},
	}

	var buf bytes.Buffer
	if err := WriteDump(&buf, want); err != nil {
		t.Fatalf("WriteDump: %v", err)
	}

	records, err := ReadDump(&buf)
	if err != nil {
		t.Fatalf("ReadDump: %v", err)
	}
	// preamble (version, system info, ospf version, area) + self LSA + 1 admitted LSA
	if len(records) != 6 {
		t.Fatalf("len(records) = %d, want 6", len(records))
	}

	got, err := ReplayDump(records)
	if err != nil {
		t.Fatalf("ReplayDump: %v", err)
	}

	if got.FileVersion != want.FileVersion {
		t.Fatalf("FileVersion = %d, want %d", got.FileVersion, want.FileVersion)
	}
	if got.SystemInfo != want.SystemInfo {
		t.Fatalf("SystemInfo = %q, want %q", got.SystemInfo, want.SystemInfo)
	}
	if got.OspfVersion != want.OspfVersion {
		t.Fatalf("OspfVersion = %s, want %s", got.OspfVersion, want.OspfVersion)
	}
	if got.Area != want.Area {
		t.Fatalf("Area = %s, want %s", got.Area, want.Area)
	}
	if !bytes.Equal(got.SelfRouterLSA, want.SelfRouterLSA) {
		t.Fatal("SelfRouterLSA bytes changed across the dump round trip")
	}
	if len(got.Admitted) != 1 || !bytes.Equal(got.Admitted[0], peerLSA) {
		t.Fatalf("Admitted = %v, want a single entry matching the peer's encoded LSA", got.Admitted)
	}
}

func TestReadDumpStopsAtUnknownType(t *testing.T) {
	var buf bytes.Buffer
	// A single well-formed record with an unrecognized type tag (99).
	buf.Write([]byte{0, 0, 0, 99, 0, 0, 0, 3})
	buf.WriteString("abc")

	records, err := ReadDump(&buf)
	if err != nil {
		t.Fatalf("ReadDump: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %v, want none (stream ends at first unrecognized type)", records)
	}
}

func TestReadDumpTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	// Declares a 10-byte TLV_VERSION payload but supplies none.
	buf.Write([]byte{0, 0, 0, byte(tlvVersion), 0, 0, 0, 10})

	if _, err := ReadDump(&buf); err == nil {
		t.Fatal("ReadDump of a record whose declared length exceeds what follows: got nil error")
	}
}
