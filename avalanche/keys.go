package avalanche

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"

	"lotus.dev/wire/consensus"
)

// NewKey generates a fresh secp256k1 key for signing stakes, proofs, and
// hello messages.
func NewKey() (*btcec.PrivateKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("avalanche: generate key: %w", err)
	}
	return priv, nil
}

// KeyFromBytes rebuilds a private key from its 32-byte scalar.
func KeyFromBytes(b []byte) (*btcec.PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("avalanche: private key must be 32 bytes, got %d", len(b))
	}
	priv, _ := btcec.PrivKeyFromBytes(b)
	return priv, nil
}

// CompressedPubKey returns the 33-byte compressed public key, the form
// carried in stakes, proofs, and delegation levels.
func CompressedPubKey(priv *btcec.PrivateKey) []byte {
	return priv.PubKey().SerializeCompressed()
}

// SignDigest produces the fixed 64-byte schnorr signature over a digest.
func SignDigest(priv *btcec.PrivateKey, digest consensus.Hash) ([SigBytes]byte, error) {
	var out [SigBytes]byte
	sig, err := schnorr.Sign(priv, digest[:])
	if err != nil {
		return out, fmt.Errorf("avalanche: sign: %w", err)
	}
	copy(out[:], sig.Serialize())
	return out, nil
}

// VerifyDigest checks a 64-byte schnorr signature against a compressed or
// uncompressed public key.
func VerifyDigest(pubkey []byte, digest consensus.Hash, sig [SigBytes]byte) bool {
	pub, err := btcec.ParsePubKey(pubkey)
	if err != nil {
		return false
	}
	parsed, err := schnorr.ParseSignature(sig[:])
	if err != nil {
		return false
	}
	return parsed.Verify(digest[:], pub)
}
