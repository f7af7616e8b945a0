package consensus

// BlockHeaderBytesLen is the fixed serialized length of a block header.
const BlockHeaderBytesLen = 160

// BlockHeader is the fixed 160-byte header. Time is a 48-bit value and Size
// a 56-bit value on the wire; the encoder keeps only the low bytes.
type BlockHeader struct {
	PrevBlock        Hash
	Bits             uint32
	Time             uint64
	Reserved         uint16
	Nonce            uint64
	HeaderVersion    uint8
	Size             uint64
	Height           uint32
	EpochBlock       Hash
	MerkleRoot       Hash
	ExtendedMetadata Hash
}

func AppendBlockHeader(dst []byte, h BlockHeader) []byte {
	dst = append(dst, h.PrevBlock[:]...)
	dst = appendU32le(dst, h.Bits)
	dst = appendU48le(dst, h.Time)
	dst = appendU16le(dst, h.Reserved)
	dst = appendU64le(dst, h.Nonce)
	dst = append(dst, h.HeaderVersion)
	dst = appendU56le(dst, h.Size)
	dst = appendU32le(dst, h.Height)
	dst = append(dst, h.EpochBlock[:]...)
	dst = append(dst, h.MerkleRoot[:]...)
	dst = append(dst, h.ExtendedMetadata[:]...)
	return dst
}

func BlockHeaderBytes(h BlockHeader) []byte {
	return AppendBlockHeader(make([]byte, 0, BlockHeaderBytesLen), h)
}

func parseBlockHeader(cur *cursor) (BlockHeader, error) {
	var h BlockHeader
	var err error
	if h.PrevBlock, err = cur.readHash(); err != nil {
		return h, err
	}
	if h.Bits, err = cur.readU32LE(); err != nil {
		return h, err
	}
	if h.Time, err = cur.readU48LE(); err != nil {
		return h, err
	}
	if h.Reserved, err = cur.readU16LE(); err != nil {
		return h, err
	}
	if h.Nonce, err = cur.readU64LE(); err != nil {
		return h, err
	}
	if h.HeaderVersion, err = cur.readU8(); err != nil {
		return h, err
	}
	if h.Size, err = cur.readU56LE(); err != nil {
		return h, err
	}
	if h.Height, err = cur.readU32LE(); err != nil {
		return h, err
	}
	if h.EpochBlock, err = cur.readHash(); err != nil {
		return h, err
	}
	if h.MerkleRoot, err = cur.readHash(); err != nil {
		return h, err
	}
	if h.ExtendedMetadata, err = cur.readHash(); err != nil {
		return h, err
	}
	return h, nil
}

// ParseBlockHeaderBytes parses a 160-byte header and rejects trailing bytes.
func ParseBlockHeaderBytes(b []byte) (BlockHeader, error) {
	cur := newCursor(b)
	h, err := parseBlockHeader(cur)
	if err != nil {
		return BlockHeader{}, err
	}
	if cur.pos != len(b) {
		return BlockHeader{}, codecErr(ERR_STRUCTURAL, "block header: trailing bytes")
	}
	return h, nil
}

// HeaderHash computes the three-layer header commitment. The innermost layer
// commits to the header metadata, the middle layer to the proof-of-work
// fields, the outer layer to the previous block. Re-mining only recomputes
// the two outer layers.
func HeaderHash(h BlockHeader) Hash {
	layer3 := make([]byte, 0, 1+7+4+3*HashBytes)
	layer3 = append(layer3, h.HeaderVersion)
	layer3 = appendU56le(layer3, h.Size)
	layer3 = appendU32le(layer3, h.Height)
	layer3 = append(layer3, h.EpochBlock[:]...)
	layer3 = append(layer3, h.MerkleRoot[:]...)
	layer3 = append(layer3, h.ExtendedMetadata[:]...)
	h3 := sha256Sum(layer3)

	layer2 := make([]byte, 0, 4+6+2+8+HashBytes)
	layer2 = appendU32le(layer2, h.Bits)
	layer2 = appendU48le(layer2, h.Time)
	layer2 = appendU16le(layer2, h.Reserved)
	layer2 = appendU64le(layer2, h.Nonce)
	layer2 = append(layer2, h3[:]...)
	h2 := sha256Sum(layer2)

	layer1 := make([]byte, 0, 2*HashBytes)
	layer1 = append(layer1, h.PrevBlock[:]...)
	layer1 = append(layer1, h2[:]...)
	return Hash(sha256Sum(layer1))
}

// MetadataField is one entry of the block's extended metadata vector.
type MetadataField struct {
	FieldID uint32
	Data    []byte
}

func appendMetadataField(dst []byte, f MetadataField) []byte {
	dst = appendU32le(dst, f.FieldID)
	return appendVarBytes(dst, f.Data)
}

// MetadataBytes serializes the metadata vector with its count prefix.
func MetadataBytes(fields []MetadataField) []byte {
	out := AppendCompactSize(make([]byte, 0, 9), uint64(len(fields)))
	for _, f := range fields {
		out = appendMetadataField(out, f)
	}
	return out
}

func parseMetadata(cur *cursor) ([]MetadataField, error) {
	count, err := cur.readCount("metadata count")
	if err != nil {
		return nil, err
	}
	fields := make([]MetadataField, 0, count)
	for i := 0; i < count; i++ {
		fieldID, err := cur.readU32LE()
		if err != nil {
			return nil, err
		}
		data, err := cur.readVarBytes()
		if err != nil {
			return nil, err
		}
		fields = append(fields, MetadataField{FieldID: fieldID, Data: data})
	}
	return fields, nil
}

// ExtendedMetadataHash is the header commitment to the metadata vector.
func ExtendedMetadataHash(fields []MetadataField) Hash {
	return Hash256(MetadataBytes(fields))
}

// Block is a header plus metadata fields and transactions. The first
// transaction is the coinbase.
type Block struct {
	Header   BlockHeader
	Metadata []MetadataField
	Txs      []*Tx
}

func AppendBlock(dst []byte, b *Block) []byte {
	dst = AppendBlockHeader(dst, b.Header)
	dst = append(dst, MetadataBytes(b.Metadata)...)
	dst = AppendCompactSize(dst, uint64(len(b.Txs)))
	for _, tx := range b.Txs {
		dst = AppendTx(dst, tx)
	}
	return dst
}

func BlockBytes(b *Block) []byte {
	return AppendBlock(make([]byte, 0, BlockHeaderBytesLen+64), b)
}

func ParseBlockBytes(buf []byte) (*Block, error) {
	cur := newCursor(buf)
	header, err := parseBlockHeader(cur)
	if err != nil {
		return nil, err
	}
	metadata, err := parseMetadata(cur)
	if err != nil {
		return nil, err
	}
	txCount, err := cur.readCount("tx count")
	if err != nil {
		return nil, err
	}
	txs := make([]*Tx, 0, txCount)
	for i := 0; i < txCount; i++ {
		tx, err := parseTx(cur)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if cur.pos != len(buf) {
		return nil, codecErr(ERR_STRUCTURAL, "block: trailing bytes")
	}
	return &Block{Header: header, Metadata: metadata, Txs: txs}, nil
}

// BlockMerkleRoot computes the header merkle root. Each leaf commits to both
// transaction identities: Hash256(contentHash ‖ structuralID).
func BlockMerkleRoot(b *Block) Hash {
	hashes := make([]Hash, 0, len(b.Txs))
	var pre [2 * HashBytes]byte
	for _, tx := range b.Txs {
		txhash := TxHash(tx)
		txid := TxID(tx)
		copy(pre[:HashBytes], txhash[:])
		copy(pre[HashBytes:], txid[:])
		hashes = append(hashes, Hash256(pre[:]))
	}
	root, _ := MerkleRoot(hashes)
	return root
}

// UpdateSize sets the header size field to the full serialized length.
func (b *Block) UpdateSize() {
	b.Header.Size = uint64(len(BlockBytes(b)))
}

// RehashExtendedMetadata recommits the header to the metadata vector.
func (b *Block) RehashExtendedMetadata() {
	b.Header.ExtendedMetadata = ExtendedMetadataHash(b.Metadata)
}

// Solve grinds the nonce until the header hash meets the compact target.
// This is a blocking CPU loop intended for tests and tooling; callers that
// need cancellation must wrap it.
func (b *Block) Solve() {
	target := CompactToTarget(b.Header.Bits)
	for HashToBig(HeaderHash(b.Header)).Cmp(target) > 0 {
		b.Header.Nonce++
	}
}

// CheckValid runs the lightweight structural checks: proof of work, output
// value bounds per transaction, and the merkle commitment. Failures are an
// expected outcome, so the result is a boolean rather than an error.
func (b *Block) CheckValid() bool {
	if !CheckProofOfWork(HeaderHash(b.Header), b.Header.Bits) {
		return false
	}
	for _, tx := range b.Txs {
		if !CheckOutputValues(tx) {
			return false
		}
	}
	return BlockMerkleRoot(b) == b.Header.MerkleRoot
}
