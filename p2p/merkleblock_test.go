package p2p

import (
	"testing"

	"lotus.dev/wire/consensus"
)

func TestMerkleBlockRoundTrip(t *testing.T) {
	m := &MsgMerkleBlock{
		Header: testHeader(7),
		Proof: PartialMerkleTree{
			TotalTransactions: 5,
			Hashes: []consensus.Hash{
				consensus.Hash256([]byte("a")),
				consensus.Hash256([]byte("b")),
			},
			Bits: []bool{true, false, true, true, false, false, false, true},
		},
	}
	dec := roundTrip(t, m).(*MsgMerkleBlock)
	if dec.Header.Height != 7 || dec.Proof.TotalTransactions != 5 {
		t.Fatalf("merkleblock mismatch: %+v", dec)
	}
	if len(dec.Proof.Hashes) != 2 || dec.Proof.Hashes[1] != m.Proof.Hashes[1] {
		t.Fatalf("proof hashes mismatch")
	}
	for i, bit := range m.Proof.Bits {
		if dec.Proof.Bits[i] != bit {
			t.Fatalf("bit %d flipped", i)
		}
	}
}

func TestPartialMerkleTreeBitPacking(t *testing.T) {
	tree := PartialMerkleTree{
		TotalTransactions: 3,
		Bits:              []bool{true, false, false, true},
	}
	enc := appendPartialMerkleTree(nil, &tree)
	// u32 total, zero hash count, varbytes holding one packed byte.
	if len(enc) != 4+1+1+1 {
		t.Fatalf("encoded length %d, want 7", len(enc))
	}
	if enc[6] != 0b1001 {
		t.Fatalf("packed bits %08b, want 00001001", enc[6])
	}

	r := newReader(enc)
	dec, err := parsePartialMerkleTree(r)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Unpacking restores whole bytes, so the tail pads with zero bits.
	if len(dec.Bits) != 8 {
		t.Fatalf("decoded %d bits, want 8", len(dec.Bits))
	}
	want := []bool{true, false, false, true, false, false, false, false}
	for i := range want {
		if dec.Bits[i] != want[i] {
			t.Fatalf("bit %d mismatch", i)
		}
	}
}
