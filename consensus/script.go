package consensus

import (
	"crypto/sha256"

	"golang.org/x/crypto/ripemd160"
)

// Script opcodes used by the standard output templates.
const (
	OP_DUP         = 0x76
	OP_HASH160     = 0xa9
	OP_EQUALVERIFY = 0x88
	OP_CHECKSIG    = 0xac
)

// Hash160 is RIPEMD-160 of SHA-256, the pubkey hash used by P2PKH outputs.
func Hash160(b []byte) [20]byte {
	s := sha256.Sum256(b)
	r := ripemd160.New()
	r.Write(s[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}

// PayToPubKeyHash builds the standard P2PKH locking script for a pubkey.
func PayToPubKeyHash(pubkey []byte) []byte {
	h := Hash160(pubkey)
	script := make([]byte, 0, 25)
	script = append(script, OP_DUP, OP_HASH160, 20)
	script = append(script, h[:]...)
	script = append(script, OP_EQUALVERIFY, OP_CHECKSIG)
	return script
}

// PayToPubKey builds the bare pubkey locking script.
func PayToPubKey(pubkey []byte) []byte {
	script := make([]byte, 0, len(pubkey)+2)
	script = append(script, byte(len(pubkey)))
	script = append(script, pubkey...)
	script = append(script, OP_CHECKSIG)
	return script
}
