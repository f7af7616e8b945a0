package consensus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const HashBytes = 32

// Hash is a 256-bit hash in wire byte order (little-endian when interpreted
// as a 256-bit integer). The display form reverses the bytes.
type Hash [HashBytes]byte

func (h Hash) String() string {
	var rev [HashBytes]byte
	for i := 0; i < HashBytes; i++ {
		rev[i] = h[HashBytes-1-i]
	}
	return hex.EncodeToString(rev[:])
}

func (h Hash) IsZero() bool {
	return h == Hash{}
}

// HashFromHex parses the display (byte-reversed) hex form of a hash.
func HashFromHex(s string) (Hash, error) {
	var h Hash
	b, err := hex.DecodeString(s)
	if err != nil {
		return h, fmt.Errorf("hash: %w", err)
	}
	if len(b) != HashBytes {
		return h, fmt.Errorf("hash: invalid length %d", len(b))
	}
	for i := 0; i < HashBytes; i++ {
		h[i] = b[HashBytes-1-i]
	}
	return h, nil
}

// Hash256 is the double-SHA256 used for every identity hash in the protocol.
func Hash256(b []byte) Hash {
	first := sha256.Sum256(b)
	return Hash(sha256.Sum256(first[:]))
}

func sha256Sum(b []byte) [32]byte {
	return sha256.Sum256(b)
}
