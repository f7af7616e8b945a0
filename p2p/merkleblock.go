package p2p

import "lotus.dev/wire/consensus"

// PartialMerkleTree proves the inclusion of a subset of a block's
// transactions. The traversal bits are packed LSB-first into the trailing
// byte vector.
type PartialMerkleTree struct {
	TotalTransactions uint32
	Hashes            []consensus.Hash
	Bits              []bool
}

func appendPartialMerkleTree(dst []byte, t *PartialMerkleTree) []byte {
	dst = appendU32le(dst, t.TotalTransactions)
	dst = consensus.AppendCompactSize(dst, uint64(len(t.Hashes)))
	for _, h := range t.Hashes {
		dst = append(dst, h[:]...)
	}
	packed := make([]byte, (len(t.Bits)+7)/8)
	for i, bit := range t.Bits {
		if bit {
			packed[i/8] |= 1 << (i % 8)
		}
	}
	return appendVarBytes(dst, packed)
}

func parsePartialMerkleTree(r *reader) (PartialMerkleTree, error) {
	var t PartialMerkleTree
	var err error
	if t.TotalTransactions, err = r.u32("merkleblock: total transactions"); err != nil {
		return t, err
	}
	count, err := r.count("merkleblock: hashes", uint64(len(r.b)))
	if err != nil {
		return t, err
	}
	t.Hashes = make([]consensus.Hash, 0, count)
	for i := 0; i < count; i++ {
		h, err := r.hash("merkleblock: hash")
		if err != nil {
			return t, err
		}
		t.Hashes = append(t.Hashes, h)
	}
	packed, err := r.varBytes("merkleblock: bits")
	if err != nil {
		return t, err
	}
	t.Bits = make([]bool, 0, len(packed)*8)
	for i := 0; i < len(packed)*8; i++ {
		t.Bits = append(t.Bits, packed[i/8]&(1<<(i%8)) != 0)
	}
	return t, nil
}

// MsgMerkleBlock answers a getdata for a filtered block.
type MsgMerkleBlock struct {
	Header consensus.BlockHeader
	Proof  PartialMerkleTree
}

func (*MsgMerkleBlock) Command() string { return CmdMerkleBlock }

func (m *MsgMerkleBlock) Encode() ([]byte, error) {
	out := consensus.AppendBlockHeader(make([]byte, 0, 256), m.Header)
	return appendPartialMerkleTree(out, &m.Proof), nil
}

func decodeMerkleBlock(b []byte) (*MsgMerkleBlock, error) {
	r := newReader(b)
	raw, err := r.exact(consensus.BlockHeaderBytesLen, "merkleblock: header")
	if err != nil {
		return nil, err
	}
	header, err := consensus.ParseBlockHeaderBytes(raw)
	if err != nil {
		return nil, err
	}
	proof, err := parsePartialMerkleTree(r)
	if err != nil {
		return nil, err
	}
	if err := r.finish("merkleblock"); err != nil {
		return nil, err
	}
	return &MsgMerkleBlock{Header: header, Proof: proof}, nil
}
