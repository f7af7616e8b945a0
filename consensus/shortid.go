package consensus

import "encoding/binary"

// ShortIDBytes is the wire width of a compact-block short id: the low 6
// bytes of the SipHash output, little-endian.
const ShortIDBytes = 6

const shortIDMask = 0x0000_ffff_ffff_ffff

func sipRound(v0, v1, v2, v3 uint64) (uint64, uint64, uint64, uint64) {
	v0 += v1
	v1 = (v1 << 13) | (v1 >> (64 - 13))
	v1 ^= v0
	v0 = (v0 << 32) | (v0 >> (64 - 32))

	v2 += v3
	v3 = (v3 << 16) | (v3 >> (64 - 16))
	v3 ^= v2

	v0 += v3
	v3 = (v3 << 21) | (v3 >> (64 - 21))
	v3 ^= v0

	v2 += v1
	v1 = (v1 << 17) | (v1 >> (64 - 17))
	v1 ^= v2
	v2 = (v2 << 32) | (v2 >> (64 - 32))

	return v0, v1, v2, v3
}

// siphash24 computes SipHash-2-4 over msg with the 128-bit key (k0, k1).
func siphash24(msg []byte, k0, k1 uint64) uint64 {
	v0 := k0 ^ 0x736f6d6570736575
	v1 := k1 ^ 0x646f72616e646f6d
	v2 := k0 ^ 0x6c7967656e657261
	v3 := k1 ^ 0x7465646279746573

	i := 0
	for ; i+8 <= len(msg); i += 8 {
		m := binary.LittleEndian.Uint64(msg[i : i+8])
		v3 ^= m
		v0, v1, v2, v3 = sipRound(v0, v1, v2, v3)
		v0, v1, v2, v3 = sipRound(v0, v1, v2, v3)
		v0 ^= m
	}

	last := uint64(len(msg)) << 56
	rem := msg[i:]
	for j := 0; j < len(rem); j++ {
		last |= uint64(rem[j]) << (8 * j)
	}
	v3 ^= last
	v0, v1, v2, v3 = sipRound(v0, v1, v2, v3)
	v0, v1, v2, v3 = sipRound(v0, v1, v2, v3)
	v0 ^= last

	v2 ^= 0xff
	for j := 0; j < 4; j++ {
		v0, v1, v2, v3 = sipRound(v0, v1, v2, v3)
	}
	return v0 ^ v1 ^ v2 ^ v3
}

// ShortIDKeys derives the SipHash keys for a compact block: a single SHA-256
// over the serialized header followed by the relay nonce, split into two
// little-endian 64-bit words.
func ShortIDKeys(headerBytes []byte, nonce uint64) (uint64, uint64) {
	buf := make([]byte, 0, len(headerBytes)+8)
	buf = append(buf, headerBytes...)
	buf = appendU64le(buf, nonce)
	d := sha256Sum(buf)
	return binary.LittleEndian.Uint64(d[0:8]), binary.LittleEndian.Uint64(d[8:16])
}

// ShortID computes the 48-bit short id of a transaction content hash.
func ShortID(k0, k1 uint64, txhash Hash) uint64 {
	return siphash24(txhash[:], k0, k1) & shortIDMask
}

// AppendShortID appends the 6-byte wire form of a short id.
func AppendShortID(dst []byte, id uint64) []byte {
	return appendUintLE(dst, id&shortIDMask, ShortIDBytes)
}

// ReadShortID decodes the 6-byte wire form, zero-padding the high bytes.
func ReadShortID(b []byte) (uint64, error) {
	if len(b) < ShortIDBytes {
		return 0, codecErr(ERR_TRUNCATED_INPUT, "shortid: truncated")
	}
	var n uint64
	for i := 0; i < ShortIDBytes; i++ {
		n |= uint64(b[i]) << (8 * i)
	}
	return n, nil
}
