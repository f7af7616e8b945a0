package avalanche

import "lotus.dev/wire/consensus"

// Proof binds a set of signed stakes to a master key and a payout script.
// The identity hashes are derived from a dedicated preimage that covers the
// unsigned stakes only, so re-signing a stake never changes the proof id.
type Proof struct {
	Sequence     uint64
	Expiration   int64
	Master       []byte
	Stakes       []SignedStake
	PayoutScript []byte
	Signature    [SigBytes]byte
}

func AppendProof(dst []byte, p *Proof) []byte {
	dst = appendU64le(dst, p.Sequence)
	dst = appendU64le(dst, uint64(p.Expiration))
	dst = appendVarBytes(dst, p.Master)
	dst = consensus.AppendCompactSize(dst, uint64(len(p.Stakes)))
	for i := range p.Stakes {
		dst = AppendSignedStake(dst, &p.Stakes[i])
	}
	dst = appendVarBytes(dst, p.PayoutScript)
	return append(dst, p.Signature[:]...)
}

func ProofBytes(p *Proof) []byte {
	return AppendProof(make([]byte, 0, 128), p)
}

func parseProof(r *reader) (*Proof, error) {
	p := &Proof{}
	var err error
	if p.Sequence, err = r.u64("proof: sequence"); err != nil {
		return nil, err
	}
	if p.Expiration, err = r.i64("proof: expiration"); err != nil {
		return nil, err
	}
	if p.Master, err = r.varBytes("proof: master"); err != nil {
		return nil, err
	}
	count, err := r.compactSize("proof: stake count")
	if err != nil {
		return nil, err
	}
	p.Stakes = make([]SignedStake, 0, count)
	for i := 0; i < count; i++ {
		ss, err := parseSignedStake(r)
		if err != nil {
			return nil, err
		}
		p.Stakes = append(p.Stakes, ss)
	}
	if p.PayoutScript, err = r.varBytes("proof: payout script"); err != nil {
		return nil, err
	}
	if p.Signature, err = r.sig("proof: signature"); err != nil {
		return nil, err
	}
	return p, nil
}

// ParseProofBytes parses exactly one proof and rejects trailing bytes.
func ParseProofBytes(b []byte) (*Proof, error) {
	r := newReader(b)
	p, err := parseProof(r)
	if err != nil {
		return nil, err
	}
	if !r.done() {
		return nil, structErr("proof: trailing bytes")
	}
	return p, nil
}

// LimitedID hashes the proof fields that are independent of the master key:
// sequence, expiration, payout script, and the unsigned stakes.
func (p *Proof) LimitedID() consensus.Hash {
	buf := make([]byte, 0, 64)
	buf = appendU64le(buf, p.Sequence)
	buf = appendU64le(buf, uint64(p.Expiration))
	buf = appendVarBytes(buf, p.PayoutScript)
	buf = consensus.AppendCompactSize(buf, uint64(len(p.Stakes)))
	for i := range p.Stakes {
		buf = AppendStake(buf, &p.Stakes[i].Stake)
	}
	return consensus.Hash256(buf)
}

// ID chains the master key onto the limited id.
func (p *Proof) ID() consensus.Hash {
	return foldMasterKey(p.LimitedID(), p.Master)
}

// foldMasterKey derives a proof id from a limited id and the master key.
// Delegations recompute the same value without access to the stakes.
func foldMasterKey(limited consensus.Hash, master []byte) consensus.Hash {
	buf := make([]byte, 0, consensus.HashBytes+9+len(master))
	buf = append(buf, limited[:]...)
	buf = appendVarBytes(buf, master)
	return consensus.Hash256(buf)
}

// LegacyProof is the pre-payout proof format: no payout script on the wire
// or in the limited id preimage, and no proof-level signature.
type LegacyProof struct {
	Sequence   uint64
	Expiration int64
	Master     []byte
	Stakes     []SignedStake
}

func AppendLegacyProof(dst []byte, p *LegacyProof) []byte {
	dst = appendU64le(dst, p.Sequence)
	dst = appendU64le(dst, uint64(p.Expiration))
	dst = appendVarBytes(dst, p.Master)
	dst = consensus.AppendCompactSize(dst, uint64(len(p.Stakes)))
	for i := range p.Stakes {
		dst = AppendSignedStake(dst, &p.Stakes[i])
	}
	return dst
}

func LegacyProofBytes(p *LegacyProof) []byte {
	return AppendLegacyProof(make([]byte, 0, 128), p)
}

func parseLegacyProof(r *reader) (*LegacyProof, error) {
	p := &LegacyProof{}
	var err error
	if p.Sequence, err = r.u64("proof: sequence"); err != nil {
		return nil, err
	}
	if p.Expiration, err = r.i64("proof: expiration"); err != nil {
		return nil, err
	}
	if p.Master, err = r.varBytes("proof: master"); err != nil {
		return nil, err
	}
	count, err := r.compactSize("proof: stake count")
	if err != nil {
		return nil, err
	}
	p.Stakes = make([]SignedStake, 0, count)
	for i := 0; i < count; i++ {
		ss, err := parseSignedStake(r)
		if err != nil {
			return nil, err
		}
		p.Stakes = append(p.Stakes, ss)
	}
	return p, nil
}

// ParseLegacyProofBytes parses exactly one legacy proof and rejects trailing
// bytes.
func ParseLegacyProofBytes(b []byte) (*LegacyProof, error) {
	r := newReader(b)
	p, err := parseLegacyProof(r)
	if err != nil {
		return nil, err
	}
	if !r.done() {
		return nil, structErr("proof: trailing bytes")
	}
	return p, nil
}

func (p *LegacyProof) LimitedID() consensus.Hash {
	buf := make([]byte, 0, 64)
	buf = appendU64le(buf, p.Sequence)
	buf = appendU64le(buf, uint64(p.Expiration))
	buf = consensus.AppendCompactSize(buf, uint64(len(p.Stakes)))
	for i := range p.Stakes {
		buf = AppendStake(buf, &p.Stakes[i].Stake)
	}
	return consensus.Hash256(buf)
}

func (p *LegacyProof) ID() consensus.Hash {
	return foldMasterKey(p.LimitedID(), p.Master)
}
