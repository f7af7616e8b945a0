package avalanche

import (
	"bytes"
	"testing"

	"lotus.dev/wire/consensus"
)

func testDelegation(t *testing.T) (*Delegation, *Proof) {
	t.Helper()
	p, err := ParseProofBytes(mustDecodeHex(t, proofHex))
	if err != nil {
		t.Fatalf("parse proof: %v", err)
	}
	d := &Delegation{
		LimitedProofID: p.LimitedID(),
		ProofMaster:    append([]byte(nil), p.Master...),
	}
	return d, p
}

func TestDelegationProofIDMatchesProof(t *testing.T) {
	d, p := testDelegation(t)
	if d.ProofID() != p.ID() {
		t.Fatalf("delegation proof id %s does not match proof id %s", d.ProofID(), p.ID())
	}
	// With no levels, the delegation id is the proof id itself.
	if d.ID() != p.ID() {
		t.Fatalf("empty delegation id must equal the proof id")
	}
}

func TestDelegationIDFoldsLevels(t *testing.T) {
	d, _ := testDelegation(t)
	base := d.ID()

	key, err := KeyFromBytes(bytes.Repeat([]byte{0x11}, 32))
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	d.Levels = append(d.Levels, DelegationLevel{PubKey: CompressedPubKey(key)})

	oneLevel := d.ID()
	if oneLevel == base {
		t.Fatalf("delegation id ignored level")
	}

	// Manual fold over the proof id must agree.
	buf := append([]byte(nil), base[:]...)
	buf = appendVarBytes(buf, d.Levels[0].PubKey)
	if oneLevel != consensus.Hash256(buf) {
		t.Fatalf("level fold mismatch")
	}

	key2, err := KeyFromBytes(bytes.Repeat([]byte{0x22}, 32))
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	d.Levels = append(d.Levels, DelegationLevel{PubKey: CompressedPubKey(key2)})
	if d.ID() == oneLevel {
		t.Fatalf("delegation id ignored second level")
	}
}

func TestDelegationRoundTrip(t *testing.T) {
	d, _ := testDelegation(t)
	key, err := KeyFromBytes(bytes.Repeat([]byte{0x33}, 32))
	if err != nil {
		t.Fatalf("key: %v", err)
	}
	level := DelegationLevel{PubKey: CompressedPubKey(key)}
	level.Sig[0] = 0xaa
	d.Levels = []DelegationLevel{level}

	enc := DelegationBytes(d)
	dec, err := ParseDelegationBytes(enc)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !bytes.Equal(DelegationBytes(dec), enc) {
		t.Fatalf("re-encode mismatch")
	}
	if dec.ID() != d.ID() {
		t.Fatalf("id changed across round trip")
	}

	if _, err := ParseDelegationBytes(append(enc, 0x00)); err == nil {
		t.Fatalf("expected error for trailing byte")
	}
	if _, err := ParseDelegationBytes(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error for truncated input")
	}
}

func TestHelloRoundTripAndSigHash(t *testing.T) {
	d, _ := testDelegation(t)
	h := &Hello{Delegation: *d}
	h.Sig[63] = 0x01

	enc := HelloBytes(h)
	dec, err := ParseHelloBytes(enc)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !bytes.Equal(HelloBytes(dec), enc) {
		t.Fatalf("re-encode mismatch")
	}

	sighash := HelloSigHash(d.ID(), 1, 2, 3, 4)
	if sighash == HelloSigHash(d.ID(), 2, 1, 3, 4) {
		t.Fatalf("sighash must bind nonce roles")
	}
	if sighash != HelloSigHash(d.ID(), 1, 2, 3, 4) {
		t.Fatalf("sighash not deterministic")
	}
}

func TestHelloSignatureVerifies(t *testing.T) {
	d, _ := testDelegation(t)
	key, err := KeyFromBytes(bytes.Repeat([]byte{0x44}, 32))
	if err != nil {
		t.Fatalf("key: %v", err)
	}

	sighash := HelloSigHash(d.ID(), 11, 22, 33, 44)
	sig, err := SignDigest(key, sighash)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !VerifyDigest(CompressedPubKey(key), sighash, sig) {
		t.Fatalf("signature does not verify")
	}

	bad := sig
	bad[0] ^= 1
	if VerifyDigest(CompressedPubKey(key), sighash, bad) {
		t.Fatalf("corrupted signature verified")
	}
}
