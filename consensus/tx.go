package consensus

// Monetary constants. Amounts are denominated in the smallest currency unit.
const (
	Lotus    = 1_000_000
	Coin     = Lotus
	MaxMoney = 2_100_000_000 * Coin
)

// OutPoint identifies a previous transaction output.
type OutPoint struct {
	TxHash Hash
	Index  uint32
}

func AppendOutPoint(dst []byte, o OutPoint) []byte {
	dst = append(dst, o.TxHash[:]...)
	return appendU32le(dst, o.Index)
}

func OutPointBytes(o OutPoint) []byte {
	return AppendOutPoint(make([]byte, 0, HashBytes+4), o)
}

func parseOutPoint(cur *cursor) (OutPoint, error) {
	var o OutPoint
	h, err := cur.readHash()
	if err != nil {
		return o, err
	}
	idx, err := cur.readU32LE()
	if err != nil {
		return o, err
	}
	o.TxHash = h
	o.Index = idx
	return o, nil
}

type TxIn struct {
	PrevOut   OutPoint
	ScriptSig []byte
	Sequence  uint32
}

type TxOut struct {
	Value        int64
	ScriptPubKey []byte
}

// Tx is a transaction. Hashes and ids are not cached: TxHash and TxID are
// pure functions of the current field values and may be called at any time.
type Tx struct {
	Version  int32
	Inputs   []TxIn
	Outputs  []TxOut
	LockTime uint32
}

func appendTxIn(dst []byte, in TxIn) []byte {
	dst = AppendOutPoint(dst, in.PrevOut)
	dst = appendVarBytes(dst, in.ScriptSig)
	return appendU32le(dst, in.Sequence)
}

func TxOutBytes(o TxOut) []byte {
	out := make([]byte, 0, 8+9+len(o.ScriptPubKey))
	out = appendU64le(out, uint64(o.Value))
	return appendVarBytes(out, o.ScriptPubKey)
}

func AppendTx(dst []byte, tx *Tx) []byte {
	dst = appendU32le(dst, uint32(tx.Version))
	dst = AppendCompactSize(dst, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		dst = appendTxIn(dst, in)
	}
	dst = AppendCompactSize(dst, uint64(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		dst = append(dst, TxOutBytes(o)...)
	}
	return appendU32le(dst, tx.LockTime)
}

// TxBytes returns the full wire serialization of tx.
func TxBytes(tx *Tx) []byte {
	return AppendTx(make([]byte, 0, 64), tx)
}

func parseTxIn(cur *cursor) (TxIn, error) {
	var in TxIn
	prev, err := parseOutPoint(cur)
	if err != nil {
		return in, err
	}
	script, err := cur.readVarBytes()
	if err != nil {
		return in, err
	}
	seq, err := cur.readU32LE()
	if err != nil {
		return in, err
	}
	in.PrevOut = prev
	in.ScriptSig = script
	in.Sequence = seq
	return in, nil
}

func parseTxOut(cur *cursor) (TxOut, error) {
	var o TxOut
	value, err := cur.readU64LE()
	if err != nil {
		return o, err
	}
	script, err := cur.readVarBytes()
	if err != nil {
		return o, err
	}
	o.Value = int64(value)
	o.ScriptPubKey = script
	return o, nil
}

func parseTx(cur *cursor) (*Tx, error) {
	version, err := cur.readU32LE()
	if err != nil {
		return nil, err
	}

	inputCount, err := cur.readCount("input count")
	if err != nil {
		return nil, err
	}
	inputs := make([]TxIn, 0, inputCount)
	for i := 0; i < inputCount; i++ {
		in, err := parseTxIn(cur)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}

	outputCount, err := cur.readCount("output count")
	if err != nil {
		return nil, err
	}
	outputs := make([]TxOut, 0, outputCount)
	for i := 0; i < outputCount; i++ {
		o, err := parseTxOut(cur)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, o)
	}

	lockTime, err := cur.readU32LE()
	if err != nil {
		return nil, err
	}

	return &Tx{
		Version:  int32(version),
		Inputs:   inputs,
		Outputs:  outputs,
		LockTime: lockTime,
	}, nil
}

// ParseTxBytes parses exactly one transaction and rejects trailing bytes.
func ParseTxBytes(b []byte) (*Tx, error) {
	cur := newCursor(b)
	tx, err := parseTx(cur)
	if err != nil {
		return nil, err
	}
	if cur.pos != len(b) {
		return nil, codecErr(ERR_STRUCTURAL, "tx: trailing bytes")
	}
	return tx, nil
}

// ParseTxBytesPrefix parses one transaction from the front of b and returns
// the number of bytes consumed.
func ParseTxBytesPrefix(b []byte) (*Tx, int, error) {
	cur := newCursor(b)
	tx, err := parseTx(cur)
	if err != nil {
		return nil, 0, err
	}
	return tx, cur.pos, nil
}

// TxHash is the content hash: double-SHA256 of the full serialization.
func TxHash(tx *Tx) Hash {
	return Hash256(TxBytes(tx))
}

// InputMerkleRoot computes the merkle root over the per-input commitment
// hashes. The per-input hash covers the previous outpoint and the sequence
// number only; the unlocking script is deliberately excluded so the id is
// stable across malleation of unlock data.
func InputMerkleRoot(tx *Tx) (Hash, uint8) {
	hashes := make([]Hash, 0, len(tx.Inputs))
	buf := make([]byte, 0, HashBytes+4+4)
	for _, in := range tx.Inputs {
		buf = buf[:0]
		buf = AppendOutPoint(buf, in.PrevOut)
		buf = appendU32le(buf, in.Sequence)
		hashes = append(hashes, Hash256(buf))
	}
	return MerkleRoot(hashes)
}

// OutputMerkleRoot computes the merkle root over per-output content hashes.
func OutputMerkleRoot(tx *Tx) (Hash, uint8) {
	hashes := make([]Hash, 0, len(tx.Outputs))
	for _, o := range tx.Outputs {
		hashes = append(hashes, Hash256(TxOutBytes(o)))
	}
	return MerkleRoot(hashes)
}

// TxID is the structural id: a double-SHA256 over the version, the input and
// output merkle roots with their layer counts, and the lock time. Callers
// must special-case transactions with no inputs or no outputs, whose merkle
// layer count of 0 makes the id meaningless.
func TxID(tx *Tx) Hash {
	inRoot, inLayers := InputMerkleRoot(tx)
	outRoot, outLayers := OutputMerkleRoot(tx)

	buf := make([]byte, 0, 4+HashBytes+1+HashBytes+1+4)
	buf = appendU32le(buf, uint32(tx.Version))
	buf = append(buf, inRoot[:]...)
	buf = append(buf, inLayers)
	buf = append(buf, outRoot[:]...)
	buf = append(buf, outLayers)
	buf = appendU32le(buf, tx.LockTime)
	return Hash256(buf)
}

// IsCoinbase reports whether the first input spends the null outpoint.
func (tx *Tx) IsCoinbase() bool {
	return len(tx.Inputs) > 0 && tx.Inputs[0].PrevOut.TxHash.IsZero()
}

// BillableSize is the serialized length used for fee-rate policy.
func (tx *Tx) BillableSize() int {
	return len(TxBytes(tx))
}

// CheckOutputValues reports whether every output value is within the money
// range. Empty-output transactions pass here; they are rejected by policy,
// not by the codec.
func CheckOutputValues(tx *Tx) bool {
	for _, o := range tx.Outputs {
		if o.Value < 0 || o.Value > MaxMoney {
			return false
		}
	}
	return true
}
