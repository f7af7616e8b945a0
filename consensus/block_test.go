package consensus

import (
	"bytes"
	"testing"
)

func sampleHeader() BlockHeader {
	return BlockHeader{
		PrevBlock:        Hash256([]byte("prev block")),
		Bits:             0x207fffff,
		Time:             0x0000_6543_21ab_cdef & 0xffff_ffff_ffff,
		Reserved:         0,
		Nonce:            7,
		HeaderVersion:    1,
		Size:             512,
		Height:           100,
		EpochBlock:       Hash256([]byte("epoch")),
		MerkleRoot:       Hash256([]byte("merkle")),
		ExtendedMetadata: Hash256([]byte("metadata")),
	}
}

func TestBlockHeaderFixedLength(t *testing.T) {
	enc := BlockHeaderBytes(sampleHeader())
	if len(enc) != BlockHeaderBytesLen {
		t.Fatalf("header length %d, want %d", len(enc), BlockHeaderBytesLen)
	}
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	h := sampleHeader()
	enc := BlockHeaderBytes(h)

	dec, err := ParseBlockHeaderBytes(enc)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if dec != h {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", dec, h)
	}

	if _, err := ParseBlockHeaderBytes(enc[:len(enc)-1]); err == nil {
		t.Fatalf("expected error for short header")
	}
	if _, err := ParseBlockHeaderBytes(append(enc, 0x00)); err == nil {
		t.Fatalf("expected error for trailing byte")
	}
}

func TestHeaderHashLayerSensitivity(t *testing.T) {
	h := sampleHeader()
	base := HeaderHash(h)

	// Every field must reach the final hash through its layer.
	mods := []func(*BlockHeader){
		func(h *BlockHeader) { h.PrevBlock[0] ^= 1 },
		func(h *BlockHeader) { h.Bits++ },
		func(h *BlockHeader) { h.Time++ },
		func(h *BlockHeader) { h.Reserved++ },
		func(h *BlockHeader) { h.Nonce++ },
		func(h *BlockHeader) { h.HeaderVersion++ },
		func(h *BlockHeader) { h.Size++ },
		func(h *BlockHeader) { h.Height++ },
		func(h *BlockHeader) { h.EpochBlock[0] ^= 1 },
		func(h *BlockHeader) { h.MerkleRoot[0] ^= 1 },
		func(h *BlockHeader) { h.ExtendedMetadata[0] ^= 1 },
	}
	for i, mod := range mods {
		m := sampleHeader()
		mod(&m)
		if HeaderHash(m) == base {
			t.Fatalf("field %d does not affect the header hash", i)
		}
	}

	if HeaderHash(sampleHeader()) != base {
		t.Fatalf("header hash not deterministic")
	}
}

func TestExtendedMetadataHash(t *testing.T) {
	empty := ExtendedMetadataHash(nil)
	// An empty vector serializes to a single zero count byte.
	if empty != Hash256([]byte{0x00}) {
		t.Fatalf("empty metadata hash mismatch")
	}

	fields := []MetadataField{{FieldID: 1, Data: []byte{0xaa, 0xbb}}}
	if ExtendedMetadataHash(fields) == empty {
		t.Fatalf("metadata hash ignored fields")
	}
}

func sampleBlock() *Block {
	coinbase := &Tx{
		Version: 1,
		Inputs: []TxIn{{
			PrevOut:   OutPoint{Index: 0xffffffff},
			ScriptSig: []byte{0x64, 0x00},
			Sequence:  0xffffffff,
		}},
		Outputs: []TxOut{{Value: 130 * Coin, ScriptPubKey: PayToPubKeyHash([]byte{0x03, 0x04})}},
	}
	b := &Block{
		Header: BlockHeader{
			PrevBlock:     Hash256([]byte("genesis")),
			Bits:          0x207fffff,
			Time:          1600000000,
			HeaderVersion: 1,
			Height:        100,
		},
		Metadata: nil,
		Txs:      []*Tx{coinbase, sampleTx()},
	}
	b.Header.MerkleRoot = BlockMerkleRoot(b)
	b.RehashExtendedMetadata()
	b.UpdateSize()
	return b
}

func TestBlockRoundTrip(t *testing.T) {
	b := sampleBlock()
	enc := BlockBytes(b)
	if uint64(len(enc)) != b.Header.Size {
		t.Fatalf("header size %d, serialized %d", b.Header.Size, len(enc))
	}

	dec, err := ParseBlockBytes(enc)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if dec.Header != b.Header {
		t.Fatalf("header mismatch")
	}
	if len(dec.Txs) != 2 {
		t.Fatalf("tx count %d, want 2", len(dec.Txs))
	}
	if !bytes.Equal(BlockBytes(dec), enc) {
		t.Fatalf("re-encode mismatch")
	}

	if _, err := ParseBlockBytes(append(enc, 0x00)); err == nil {
		t.Fatalf("expected error for trailing byte")
	}
	if _, err := ParseBlockBytes(enc[:len(enc)-3]); err == nil {
		t.Fatalf("expected error for truncated block")
	}
}

func TestBlockParseRejectsOversizedCounts(t *testing.T) {
	header := BlockHeaderBytes(sampleHeader())

	// Metadata count far beyond the buffer.
	buf := append([]byte(nil), header...)
	buf = append(buf, 0xff)
	buf = appendU64le(buf, 1<<40)
	if _, err := ParseBlockBytes(buf); !isStructural(err) {
		t.Fatalf("metadata count: got %v", err)
	}

	// Empty metadata, then an oversized tx count.
	buf = append([]byte(nil), header...)
	buf = append(buf, 0x00, 0xff)
	buf = appendU64le(buf, 1<<54)
	if _, err := ParseBlockBytes(buf); !isStructural(err) {
		t.Fatalf("tx count: got %v", err)
	}
}

func TestBlockMerkleRootCoversBothIdentities(t *testing.T) {
	b := sampleBlock()
	root := BlockMerkleRoot(b)

	// Changing a scriptSig leaves every txid intact but changes the
	// content hash, so the block root must move.
	b.Txs[1].Inputs[0].ScriptSig = []byte{0x00}
	if BlockMerkleRoot(b) == root {
		t.Fatalf("block root ignored content hash")
	}
}

func TestBlockSolveAndCheckValid(t *testing.T) {
	b := sampleBlock()
	b.Solve()
	if !CheckProofOfWork(HeaderHash(b.Header), b.Header.Bits) {
		t.Fatalf("solved header fails proof of work")
	}
	if !b.CheckValid() {
		t.Fatalf("solved block not valid")
	}

	b.Txs[1].Outputs[0].Value = MaxMoney + 1
	if b.CheckValid() {
		t.Fatalf("block with out-of-range value accepted")
	}
}

func TestBlockCheckValidDetectsMerkleMismatch(t *testing.T) {
	b := sampleBlock()
	b.Solve()
	b.Header.MerkleRoot[0] ^= 1
	b.Solve()
	if b.CheckValid() {
		t.Fatalf("block with wrong merkle root accepted")
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	b := sampleBlock()
	b.Metadata = []MetadataField{
		{FieldID: 1, Data: []byte{0x01}},
		{FieldID: 0xdeadbeef, Data: nil},
	}
	b.RehashExtendedMetadata()
	b.UpdateSize()

	dec, err := ParseBlockBytes(BlockBytes(b))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(dec.Metadata) != 2 {
		t.Fatalf("metadata count %d, want 2", len(dec.Metadata))
	}
	if dec.Metadata[1].FieldID != 0xdeadbeef {
		t.Fatalf("field id mismatch: %x", dec.Metadata[1].FieldID)
	}
}
