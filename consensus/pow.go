package consensus

import "math/big"

// CompactToTarget expands the compact-form target: the high byte is a size
// in bytes, the low 24 bits a mantissa placed at that size.
func CompactToTarget(bits uint32) *big.Int {
	mantissa := big.NewInt(int64(bits & 0xffffff))
	size := uint(bits >> 24)
	if size <= 3 {
		return mantissa.Rsh(mantissa, 8*(3-size))
	}
	return mantissa.Lsh(mantissa, 8*(size-3))
}

// HashToBig interprets h as a 256-bit little-endian integer.
func HashToBig(h Hash) *big.Int {
	var be [HashBytes]byte
	for i := 0; i < HashBytes; i++ {
		be[i] = h[HashBytes-1-i]
	}
	return new(big.Int).SetBytes(be[:])
}

// CheckProofOfWork reports whether h meets the compact target in bits.
func CheckProofOfWork(h Hash, bits uint32) bool {
	return HashToBig(h).Cmp(CompactToTarget(bits)) <= 0
}
