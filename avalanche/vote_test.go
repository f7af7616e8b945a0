package avalanche

import (
	"bytes"
	"encoding/hex"
	"testing"

	"lotus.dev/wire/consensus"
)

func TestPollRoundTrip(t *testing.T) {
	p := &Poll{
		Round: -7,
		Invs: []Inv{
			{Type: 2, Hash: consensus.Hash256([]byte("block"))},
			{Type: 1, Hash: consensus.Hash256([]byte("tx"))},
		},
	}
	enc := PollBytes(p)

	dec, err := ParsePollBytes(enc)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if dec.Round != -7 || len(dec.Invs) != 2 {
		t.Fatalf("field mismatch: round=%d invs=%d", dec.Round, len(dec.Invs))
	}
	if dec.Invs[0] != p.Invs[0] || dec.Invs[1] != p.Invs[1] {
		t.Fatalf("inv mismatch")
	}
	if !bytes.Equal(PollBytes(dec), enc) {
		t.Fatalf("re-encode mismatch")
	}

	if _, err := ParsePollBytes(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error for truncated input")
	}
	if _, err := ParsePollBytes(append(enc, 0x00)); err == nil {
		t.Fatalf("expected error for trailing byte")
	}
}

func TestPollWireLayout(t *testing.T) {
	p := &Poll{Round: 1, Invs: []Inv{{Type: 2}}}
	enc := PollBytes(p)
	// round(8) + count(1) + type(4) + hash(32)
	if len(enc) != 45 {
		t.Fatalf("length %d, want 45", len(enc))
	}
	if hex.EncodeToString(enc[:13]) != "01000000000000000102000000" {
		t.Fatalf("layout mismatch: %x", enc[:13])
	}
}

func TestResponseRoundTripAndSigHash(t *testing.T) {
	resp := &Response{
		Round:    12345,
		Cooldown: 100,
		Votes: []Vote{
			{Err: VoteAccepted, Hash: consensus.Hash256([]byte("a"))},
			{Err: VoteInvalid, Hash: consensus.Hash256([]byte("b"))},
			{Err: VotePending, Hash: consensus.Hash256([]byte("c"))},
		},
	}
	enc := ResponseBytes(resp)

	dec, err := ParseResponseBytes(enc)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if dec.Round != resp.Round || dec.Cooldown != resp.Cooldown {
		t.Fatalf("scalar mismatch")
	}
	if len(dec.Votes) != 3 || dec.Votes[2].Err != VotePending {
		t.Fatalf("vote mismatch: %+v", dec.Votes)
	}

	if dec.SigHash() != consensus.Hash256(enc) {
		t.Fatalf("sighash must cover the full serialization")
	}
}

func TestNegativeVoteErrWire(t *testing.T) {
	v := Vote{Err: VoteMissing}
	enc := appendVote(nil, v)
	// -2 as little-endian two's complement.
	if hex.EncodeToString(enc[:4]) != "feffffff" {
		t.Fatalf("vote error encoding mismatch: %x", enc[:4])
	}

	r := newReader(enc)
	dec, err := parseVote(r)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if dec.Err != VoteMissing {
		t.Fatalf("got %d want %d", dec.Err, VoteMissing)
	}
}

func TestTCPResponseRoundTripAndVerify(t *testing.T) {
	resp := Response{Round: 1, Votes: []Vote{{Err: VoteAccepted}}}

	key, err := KeyFromBytes(bytes.Repeat([]byte{0x55}, 32))
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	sig, err := SignDigest(key, resp.SigHash())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	tr := &TCPResponse{Response: resp, Sig: sig}

	enc := TCPResponseBytes(tr)
	dec, err := ParseTCPResponseBytes(enc)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !bytes.Equal(TCPResponseBytes(dec), enc) {
		t.Fatalf("re-encode mismatch")
	}
	if !VerifyDigest(CompressedPubKey(key), dec.Response.SigHash(), dec.Sig) {
		t.Fatalf("decoded response signature does not verify")
	}

	if _, err := ParseTCPResponseBytes(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error for truncated signature")
	}
}

func TestOversizedCountRejected(t *testing.T) {
	// A poll claiming 2^32 invs in a short buffer must fail cleanly instead
	// of allocating.
	enc := make([]byte, 0, 16)
	enc = appendU64le(enc, 1)
	enc = append(enc, 0xfe, 0xff, 0xff, 0xff, 0xff)
	if _, err := ParsePollBytes(enc); err == nil {
		t.Fatalf("expected error for oversized count")
	}
}
