package p2p

import (
	"encoding/binary"

	"lotus.dev/wire/consensus"
)

func truncErr(msg string) error {
	return &consensus.CodecError{Code: consensus.ERR_TRUNCATED_INPUT, Msg: msg}
}

func structErr(msg string) error {
	return &consensus.CodecError{Code: consensus.ERR_STRUCTURAL, Msg: msg}
}

type reader struct {
	b   []byte
	pos int
}

func newReader(b []byte) *reader {
	return &reader{b: b}
}

func (r *reader) done() bool {
	return r.pos == len(r.b)
}

// finish rejects trailing bytes; every payload decoder ends with it.
func (r *reader) finish(what string) error {
	if !r.done() {
		return structErr(what + ": trailing bytes")
	}
	return nil
}

func (r *reader) exact(n int, what string) ([]byte, error) {
	if len(r.b)-r.pos < n {
		return nil, truncErr(what)
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

func (r *reader) u8(what string) (byte, error) {
	b, err := r.exact(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16be(what string) (uint16, error) {
	b, err := r.exact(2, what)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *reader) u32(what string) (uint32, error) {
	b, err := r.exact(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64(what string) (uint64, error) {
	b, err := r.exact(8, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *reader) i32(what string) (int32, error) {
	v, err := r.u32(what)
	return int32(v), err
}

func (r *reader) i64(what string) (int64, error) {
	v, err := r.u64(what)
	return int64(v), err
}

func (r *reader) hash(what string) (consensus.Hash, error) {
	var h consensus.Hash
	b, err := r.exact(consensus.HashBytes, what)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

func (r *reader) compactSize(what string) (uint64, error) {
	v, n, err := consensus.DecodeCompactSize(r.b[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

// count reads a CompactSize that prefixes a vector and bounds it against the
// remaining input so a hostile count cannot drive a huge allocation.
func (r *reader) count(what string, max uint64) (int, error) {
	v, err := r.compactSize(what)
	if err != nil {
		return 0, err
	}
	if v > max {
		return 0, structErr(what + ": count exceeds limit")
	}
	if v > uint64(len(r.b)-r.pos) {
		return 0, structErr(what + ": count exceeds input")
	}
	return int(v), nil
}

func (r *reader) varBytes(what string) ([]byte, error) {
	n, err := r.compactSize(what)
	if err != nil {
		return nil, err
	}
	if n > uint64(len(r.b)-r.pos) {
		return nil, truncErr(what)
	}
	b, err := r.exact(int(n), what)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

func appendU16be(dst []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(dst, v)
}

func appendU32le(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

func appendU64le(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

func appendVarBytes(dst, b []byte) []byte {
	dst = consensus.AppendCompactSize(dst, uint64(len(b)))
	return append(dst, b...)
}

func appendBool(dst []byte, v bool) []byte {
	if v {
		return append(dst, 1)
	}
	return append(dst, 0)
}
