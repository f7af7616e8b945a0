package avalanche

import "lotus.dev/wire/consensus"

// Stake commits a single unspent output to a proof. Height and the coinbase
// flag share a 32-bit word on the wire: height in the upper 31 bits, the
// flag in bit 0.
type Stake struct {
	UTXO       consensus.OutPoint
	Amount     int64
	Height     uint32
	IsCoinbase bool
	PubKey     []byte
}

func AppendStake(dst []byte, s *Stake) []byte {
	dst = consensus.AppendOutPoint(dst, s.UTXO)
	dst = appendU64le(dst, uint64(s.Amount))
	packed := s.Height << 1
	if s.IsCoinbase {
		packed |= 1
	}
	dst = appendU32le(dst, packed)
	return appendVarBytes(dst, s.PubKey)
}

func StakeBytes(s *Stake) []byte {
	return AppendStake(make([]byte, 0, consensus.HashBytes+4+8+4+9+len(s.PubKey)), s)
}

func parseStake(r *reader) (Stake, error) {
	var s Stake
	h, err := r.hash("stake: utxo hash")
	if err != nil {
		return s, err
	}
	idx, err := r.u32("stake: utxo index")
	if err != nil {
		return s, err
	}
	amount, err := r.i64("stake: amount")
	if err != nil {
		return s, err
	}
	packed, err := r.u32("stake: height")
	if err != nil {
		return s, err
	}
	pubkey, err := r.varBytes("stake: pubkey")
	if err != nil {
		return s, err
	}
	s.UTXO = consensus.OutPoint{TxHash: h, Index: idx}
	s.Amount = amount
	s.Height = packed >> 1
	s.IsCoinbase = packed&1 != 0
	s.PubKey = pubkey
	return s, nil
}

// SignedStake is a stake plus its owner's signature.
type SignedStake struct {
	Stake Stake
	Sig   [SigBytes]byte
}

func AppendSignedStake(dst []byte, ss *SignedStake) []byte {
	dst = AppendStake(dst, &ss.Stake)
	return append(dst, ss.Sig[:]...)
}

func parseSignedStake(r *reader) (SignedStake, error) {
	var ss SignedStake
	stake, err := parseStake(r)
	if err != nil {
		return ss, err
	}
	sig, err := r.sig("stake: signature")
	if err != nil {
		return ss, err
	}
	ss.Stake = stake
	ss.Sig = sig
	return ss, nil
}
