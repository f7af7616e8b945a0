// Package avalanche implements the stake proof and voting primitives used by
// the avalanche pre-consensus protocol: stakes, proofs, delegations, and the
// poll/response vote records.
package avalanche

import (
	"encoding/binary"

	"lotus.dev/wire/consensus"
)

// SigBytes is the fixed wire width of every signature in this package.
const SigBytes = 64

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

func (r *reader) exact(n int, what string) ([]byte, error) {
	if len(r.b)-r.pos < n {
		return nil, truncErr(what)
	}
	out := r.b[r.pos : r.pos+n]
	r.pos += n
	return out, nil
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

func (r *reader) i64(what string) (int64, error) {
	v, err := r.u64(what)
	return int64(v), err
}

func (r *reader) i32(what string) (int32, error) {
	v, err := r.u32(what)
	return int32(v), err
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

func (r *reader) sig(what string) ([SigBytes]byte, error) {
	var s [SigBytes]byte
	b, err := r.exact(SigBytes, what)
	if err != nil {
		return s, err
	}
	copy(s[:], b)
	return s, nil
}

func (r *reader) compactSize(what string) (int, error) {
	v, n, err := consensus.DecodeCompactSize(r.b[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	if v > uint64(len(r.b)) {
		// Counts always describe data still to be read, so a count larger
		// than the whole buffer can never be satisfied.
		return 0, structErr(what + ": count exceeds input")
	}
	return int(v), nil
}

func (r *reader) varBytes(what string) ([]byte, error) {
	n, err := r.compactSize(what)
	if err != nil {
		return nil, err
	}
	b, err := r.exact(n, what)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
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
