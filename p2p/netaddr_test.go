package p2p

import (
	"bytes"
	"net/netip"
	"testing"
)

func TestNetAddressV1Layout(t *testing.T) {
	a := NetAddress{
		Time:     0x01020304,
		Services: NodeNetwork,
		Addr:     netip.AddrFrom4([4]byte{192, 0, 2, 1}),
		Port:     10605,
	}
	enc, err := appendNetAddress(nil, &a, true)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(enc) != 4+8+12+4+2 {
		t.Fatalf("encoded length %d, want 30", len(enc))
	}
	if !bytes.Equal(enc[:4], []byte{0x04, 0x03, 0x02, 0x01}) {
		t.Fatalf("time not little endian: % x", enc[:4])
	}
	// IPv4 sits in the last four bytes of the mapped field.
	if !bytes.Equal(enc[12:24], append(bytes.Repeat([]byte{0}, 10), 0xff, 0xff)) {
		t.Fatalf("mapped prefix wrong: % x", enc[12:24])
	}
	if !bytes.Equal(enc[24:28], []byte{192, 0, 2, 1}) {
		t.Fatalf("ip bytes wrong: % x", enc[24:28])
	}
	// Port is the one big endian field.
	if enc[28] != 0x29 || enc[29] != 0x6d {
		t.Fatalf("port bytes wrong: % x", enc[28:])
	}

	r := newReader(enc)
	dec, err := parseNetAddress(r, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if dec != a {
		t.Fatalf("round trip mismatch: %+v != %+v", dec, a)
	}
}

func TestNetAddressV1NoTime(t *testing.T) {
	a := testAddr(8333)
	enc, err := appendNetAddress(nil, &a, false)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(enc) != 26 {
		t.Fatalf("encoded length %d, want 26", len(enc))
	}
	r := newReader(enc)
	dec, err := parseNetAddress(r, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if dec.Time != 0 {
		t.Fatalf("time decoded without a time field")
	}
	if dec.Addr != a.Addr || dec.Port != a.Port || dec.Services != a.Services {
		t.Fatalf("round trip mismatch: %+v", dec)
	}
}

func TestNetAddressV2RoundTrip(t *testing.T) {
	a := testAddr(10605)
	enc, err := appendNetAddressV2(nil, &a)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	// time u32, compact services (5 bytes for a value above u16 range),
	// network byte, compact length, ip4, port.
	if len(enc) != 4+5+1+1+4+2 {
		t.Fatalf("encoded length %d, want 17", len(enc))
	}
	if enc[9] != netIPv4 || enc[10] != ipv4AddrBytes {
		t.Fatalf("network framing wrong: % x", enc[9:11])
	}

	r := newReader(enc)
	dec, err := parseNetAddressV2(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if dec != a {
		t.Fatalf("round trip mismatch: %+v != %+v", dec, a)
	}
}

func TestNetAddressRejectsIPv6(t *testing.T) {
	a := NetAddress{Addr: netip.MustParseAddr("2001:db8::1"), Port: 1}
	if _, err := appendNetAddress(nil, &a, true); err == nil {
		t.Fatalf("v1 encoded a non-IPv4 address")
	}
	if _, err := appendNetAddressV2(nil, &a); err == nil {
		t.Fatalf("v2 encoded a non-IPv4 address")
	}
}
