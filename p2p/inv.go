package p2p

import "lotus.dev/wire/consensus"

// Inventory object types.
const (
	InvTx            = 1
	InvBlock         = 2
	InvFilteredBlock = 3
	InvCmpctBlock    = 4
	InvAvaProof      = 0x1f000001
)

// InvVect names one object a peer has or wants.
type InvVect struct {
	Type uint32
	Hash consensus.Hash
}

func appendInvVector(dst []byte, invs []InvVect) []byte {
	dst = consensus.AppendCompactSize(dst, uint64(len(invs)))
	for _, inv := range invs {
		dst = appendU32le(dst, inv.Type)
		dst = append(dst, inv.Hash[:]...)
	}
	return dst
}

func parseInvVector(r *reader, what string) ([]InvVect, error) {
	count, err := r.count(what, MaxInvEntries)
	if err != nil {
		return nil, err
	}
	invs := make([]InvVect, 0, count)
	for i := 0; i < count; i++ {
		t, err := r.u32(what + ": type")
		if err != nil {
			return nil, err
		}
		h, err := r.hash(what + ": hash")
		if err != nil {
			return nil, err
		}
		invs = append(invs, InvVect{Type: t, Hash: h})
	}
	return invs, nil
}

func encodeInvVector(invs []InvVect) ([]byte, error) {
	if len(invs) > MaxInvEntries {
		return nil, structErr("inv: too many entries")
	}
	return appendInvVector(make([]byte, 0, 9+36*len(invs)), invs), nil
}

// MsgInv announces objects the peer has.
type MsgInv struct {
	Invs []InvVect
}

func (*MsgInv) Command() string { return CmdInv }

func (m *MsgInv) Encode() ([]byte, error) { return encodeInvVector(m.Invs) }

func decodeInv(b []byte) (*MsgInv, error) {
	r := newReader(b)
	invs, err := parseInvVector(r, "inv")
	if err != nil {
		return nil, err
	}
	if err := r.finish("inv"); err != nil {
		return nil, err
	}
	return &MsgInv{Invs: invs}, nil
}

// MsgGetData requests objects by inventory vector.
type MsgGetData struct {
	Invs []InvVect
}

func (*MsgGetData) Command() string { return CmdGetData }

func (m *MsgGetData) Encode() ([]byte, error) { return encodeInvVector(m.Invs) }

func decodeGetData(b []byte) (*MsgGetData, error) {
	r := newReader(b)
	invs, err := parseInvVector(r, "getdata")
	if err != nil {
		return nil, err
	}
	if err := r.finish("getdata"); err != nil {
		return nil, err
	}
	return &MsgGetData{Invs: invs}, nil
}

// MsgNotFound answers a getdata for objects the peer no longer has.
type MsgNotFound struct {
	Invs []InvVect
}

func (*MsgNotFound) Command() string { return CmdNotFound }

func (m *MsgNotFound) Encode() ([]byte, error) { return encodeInvVector(m.Invs) }

func decodeNotFound(b []byte) (*MsgNotFound, error) {
	r := newReader(b)
	invs, err := parseInvVector(r, "notfound")
	if err != nil {
		return nil, err
	}
	if err := r.finish("notfound"); err != nil {
		return nil, err
	}
	return &MsgNotFound{Invs: invs}, nil
}

// MsgAddr relays known peer addresses in the legacy encoding.
type MsgAddr struct {
	Addrs []NetAddress
}

func (*MsgAddr) Command() string { return CmdAddr }

func (m *MsgAddr) Encode() ([]byte, error) {
	out := consensus.AppendCompactSize(make([]byte, 0, 9+30*len(m.Addrs)), uint64(len(m.Addrs)))
	var err error
	for i := range m.Addrs {
		if out, err = appendNetAddress(out, &m.Addrs[i], true); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeAddr(b []byte) (*MsgAddr, error) {
	r := newReader(b)
	count, err := r.count("addr", MaxAddrEntries)
	if err != nil {
		return nil, err
	}
	addrs := make([]NetAddress, 0, count)
	for i := 0; i < count; i++ {
		a, err := parseNetAddress(r, true)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	if err := r.finish("addr"); err != nil {
		return nil, err
	}
	return &MsgAddr{Addrs: addrs}, nil
}

// MsgAddrV2 relays peer addresses in the tagged v2 encoding.
type MsgAddrV2 struct {
	Addrs []NetAddress
}

func (*MsgAddrV2) Command() string { return CmdAddrV2 }

func (m *MsgAddrV2) Encode() ([]byte, error) {
	out := consensus.AppendCompactSize(make([]byte, 0, 9+16*len(m.Addrs)), uint64(len(m.Addrs)))
	var err error
	for i := range m.Addrs {
		if out, err = appendNetAddressV2(out, &m.Addrs[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodeAddrV2(b []byte) (*MsgAddrV2, error) {
	r := newReader(b)
	count, err := r.count("addrv2", MaxAddrEntries)
	if err != nil {
		return nil, err
	}
	addrs := make([]NetAddress, 0, count)
	for i := 0; i < count; i++ {
		a, err := parseNetAddressV2(r)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	if err := r.finish("addrv2"); err != nil {
		return nil, err
	}
	return &MsgAddrV2{Addrs: addrs}, nil
}
