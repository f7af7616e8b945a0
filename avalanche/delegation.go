package avalanche

import "lotus.dev/wire/consensus"

// DelegationLevel is one hop in a delegation chain: the key being delegated
// to, and a signature by the previous level's key.
type DelegationLevel struct {
	PubKey []byte
	Sig    [SigBytes]byte
}

func appendDelegationLevel(dst []byte, l *DelegationLevel) []byte {
	dst = appendVarBytes(dst, l.PubKey)
	return append(dst, l.Sig[:]...)
}

func parseDelegationLevel(r *reader) (DelegationLevel, error) {
	var l DelegationLevel
	pubkey, err := r.varBytes("delegation: level pubkey")
	if err != nil {
		return l, err
	}
	sig, err := r.sig("delegation: level signature")
	if err != nil {
		return l, err
	}
	l.PubKey = pubkey
	l.Sig = sig
	return l, nil
}

// Delegation hands the right to sign avalanche messages from a proof's
// master key down a chain of keys. It carries the limited proof id rather
// than the full proof, so verifiers recompute the proof id with
// foldMasterKey and then fold in each level's key.
type Delegation struct {
	LimitedProofID consensus.Hash
	ProofMaster    []byte
	Levels         []DelegationLevel
}

func AppendDelegation(dst []byte, d *Delegation) []byte {
	dst = append(dst, d.LimitedProofID[:]...)
	dst = appendVarBytes(dst, d.ProofMaster)
	dst = consensus.AppendCompactSize(dst, uint64(len(d.Levels)))
	for i := range d.Levels {
		dst = appendDelegationLevel(dst, &d.Levels[i])
	}
	return dst
}

func DelegationBytes(d *Delegation) []byte {
	return AppendDelegation(make([]byte, 0, 128), d)
}

func parseDelegation(r *reader) (*Delegation, error) {
	d := &Delegation{}
	var err error
	if d.LimitedProofID, err = r.hash("delegation: limited proof id"); err != nil {
		return nil, err
	}
	if d.ProofMaster, err = r.varBytes("delegation: proof master"); err != nil {
		return nil, err
	}
	count, err := r.compactSize("delegation: level count")
	if err != nil {
		return nil, err
	}
	d.Levels = make([]DelegationLevel, 0, count)
	for i := 0; i < count; i++ {
		l, err := parseDelegationLevel(r)
		if err != nil {
			return nil, err
		}
		d.Levels = append(d.Levels, l)
	}
	return d, nil
}

// ParseDelegationBytes parses exactly one delegation and rejects trailing
// bytes.
func ParseDelegationBytes(b []byte) (*Delegation, error) {
	r := newReader(b)
	d, err := parseDelegation(r)
	if err != nil {
		return nil, err
	}
	if !r.done() {
		return nil, structErr("delegation: trailing bytes")
	}
	return d, nil
}

// ProofID recomputes the id of the proof this delegation descends from.
func (d *Delegation) ProofID() consensus.Hash {
	return foldMasterKey(d.LimitedProofID, d.ProofMaster)
}

// ID folds each level's public key onto the proof id in order. The result
// identifies the full chain, so adding or reordering levels changes it.
func (d *Delegation) ID() consensus.Hash {
	h := d.ProofID()
	for i := range d.Levels {
		buf := make([]byte, 0, consensus.HashBytes+9+len(d.Levels[i].PubKey))
		buf = append(buf, h[:]...)
		buf = appendVarBytes(buf, d.Levels[i].PubKey)
		h = consensus.Hash256(buf)
	}
	return h
}

// Hello announces a delegation on a connection, signed by the delegated key.
type Hello struct {
	Delegation Delegation
	Sig        [SigBytes]byte
}

func AppendHello(dst []byte, h *Hello) []byte {
	dst = AppendDelegation(dst, &h.Delegation)
	return append(dst, h.Sig[:]...)
}

func HelloBytes(h *Hello) []byte {
	return AppendHello(make([]byte, 0, 128), h)
}

func parseHello(r *reader) (*Hello, error) {
	d, err := parseDelegation(r)
	if err != nil {
		return nil, err
	}
	sig, err := r.sig("hello: signature")
	if err != nil {
		return nil, err
	}
	return &Hello{Delegation: *d, Sig: sig}, nil
}

// ParseHelloBytes parses exactly one hello and rejects trailing bytes.
func ParseHelloBytes(b []byte) (*Hello, error) {
	r := newReader(b)
	h, err := parseHello(r)
	if err != nil {
		return nil, err
	}
	if !r.done() {
		return nil, structErr("hello: trailing bytes")
	}
	return h, nil
}

// HelloSigHash is the digest a peer signs for its hello: the delegation id
// bound to both sides' connection nonces and extra entropy.
func HelloSigHash(delegationID consensus.Hash, remoteNonce, localNonce, remoteExtra, localExtra uint64) consensus.Hash {
	buf := make([]byte, 0, consensus.HashBytes+32)
	buf = append(buf, delegationID[:]...)
	buf = appendU64le(buf, remoteNonce)
	buf = appendU64le(buf, localNonce)
	buf = appendU64le(buf, remoteExtra)
	buf = appendU64le(buf, localExtra)
	return consensus.Hash256(buf)
}
