package p2p

import "lotus.dev/wire/consensus"

// Bloom filter update flags carried by filterload.
const (
	BloomUpdateNone         = 0
	BloomUpdateAll          = 1
	BloomUpdateP2PubKeyOnly = 2
)

// MsgFilterLoad installs a bloom filter on the connection.
type MsgFilterLoad struct {
	Data      []byte
	HashFuncs uint32
	Tweak     uint32
	Flags     byte
}

func (*MsgFilterLoad) Command() string { return CmdFilterLoad }

func (m *MsgFilterLoad) Encode() ([]byte, error) {
	if len(m.Data) > MaxBloomFilter {
		return nil, structErr("filterload: filter too large")
	}
	if m.HashFuncs > MaxBloomHashFuncs {
		return nil, structErr("filterload: too many hash functions")
	}
	out := appendVarBytes(make([]byte, 0, 16+len(m.Data)), m.Data)
	out = appendU32le(out, m.HashFuncs)
	out = appendU32le(out, m.Tweak)
	return append(out, m.Flags), nil
}

func decodeFilterLoad(b []byte) (*MsgFilterLoad, error) {
	r := newReader(b)
	m := &MsgFilterLoad{}
	var err error
	if m.Data, err = r.varBytes("filterload: data"); err != nil {
		return nil, err
	}
	if len(m.Data) > MaxBloomFilter {
		return nil, structErr("filterload: filter too large")
	}
	if m.HashFuncs, err = r.u32("filterload: hash funcs"); err != nil {
		return nil, err
	}
	if m.HashFuncs > MaxBloomHashFuncs {
		return nil, structErr("filterload: too many hash functions")
	}
	if m.Tweak, err = r.u32("filterload: tweak"); err != nil {
		return nil, err
	}
	if m.Flags, err = r.u8("filterload: flags"); err != nil {
		return nil, err
	}
	if err := r.finish("filterload"); err != nil {
		return nil, err
	}
	return m, nil
}

// MsgFilterAdd adds one element to the connection's bloom filter.
type MsgFilterAdd struct {
	Data []byte
}

func (*MsgFilterAdd) Command() string { return CmdFilterAdd }

func (m *MsgFilterAdd) Encode() ([]byte, error) {
	return appendVarBytes(make([]byte, 0, 9+len(m.Data)), m.Data), nil
}

func decodeFilterAdd(b []byte) (*MsgFilterAdd, error) {
	r := newReader(b)
	data, err := r.varBytes("filteradd: data")
	if err != nil {
		return nil, err
	}
	if err := r.finish("filteradd"); err != nil {
		return nil, err
	}
	return &MsgFilterAdd{Data: data}, nil
}

// MsgGetCFilters requests compact filters for a height range.
type MsgGetCFilters struct {
	FilterType  byte
	StartHeight uint32
	StopHash    consensus.Hash
}

func (*MsgGetCFilters) Command() string { return CmdGetCFilters }

func (m *MsgGetCFilters) Encode() ([]byte, error) {
	out := append(make([]byte, 0, 37), m.FilterType)
	out = appendU32le(out, m.StartHeight)
	return append(out, m.StopHash[:]...), nil
}

func decodeGetCFilters(b []byte) (*MsgGetCFilters, error) {
	r := newReader(b)
	m := &MsgGetCFilters{}
	var err error
	if m.FilterType, err = r.u8("getcfilters: filter type"); err != nil {
		return nil, err
	}
	if m.StartHeight, err = r.u32("getcfilters: start height"); err != nil {
		return nil, err
	}
	if m.StopHash, err = r.hash("getcfilters: stop hash"); err != nil {
		return nil, err
	}
	if err := r.finish("getcfilters"); err != nil {
		return nil, err
	}
	return m, nil
}

// MsgCFilter carries one compact filter.
type MsgCFilter struct {
	FilterType byte
	BlockHash  consensus.Hash
	FilterData []byte
}

func (*MsgCFilter) Command() string { return CmdCFilter }

func (m *MsgCFilter) Encode() ([]byte, error) {
	out := append(make([]byte, 0, 42+len(m.FilterData)), m.FilterType)
	out = append(out, m.BlockHash[:]...)
	return appendVarBytes(out, m.FilterData), nil
}

func decodeCFilter(b []byte) (*MsgCFilter, error) {
	r := newReader(b)
	m := &MsgCFilter{}
	var err error
	if m.FilterType, err = r.u8("cfilter: filter type"); err != nil {
		return nil, err
	}
	if m.BlockHash, err = r.hash("cfilter: block hash"); err != nil {
		return nil, err
	}
	if m.FilterData, err = r.varBytes("cfilter: data"); err != nil {
		return nil, err
	}
	if err := r.finish("cfilter"); err != nil {
		return nil, err
	}
	return m, nil
}

// MsgGetCFHeaders requests compact filter headers for a height range.
type MsgGetCFHeaders struct {
	FilterType  byte
	StartHeight uint32
	StopHash    consensus.Hash
}

func (*MsgGetCFHeaders) Command() string { return CmdGetCFHeaders }

func (m *MsgGetCFHeaders) Encode() ([]byte, error) {
	out := append(make([]byte, 0, 37), m.FilterType)
	out = appendU32le(out, m.StartHeight)
	return append(out, m.StopHash[:]...), nil
}

func decodeGetCFHeaders(b []byte) (*MsgGetCFHeaders, error) {
	r := newReader(b)
	m := &MsgGetCFHeaders{}
	var err error
	if m.FilterType, err = r.u8("getcfheaders: filter type"); err != nil {
		return nil, err
	}
	if m.StartHeight, err = r.u32("getcfheaders: start height"); err != nil {
		return nil, err
	}
	if m.StopHash, err = r.hash("getcfheaders: stop hash"); err != nil {
		return nil, err
	}
	if err := r.finish("getcfheaders"); err != nil {
		return nil, err
	}
	return m, nil
}

// MsgCFHeaders carries a run of filter hashes anchored to a previous filter
// header.
type MsgCFHeaders struct {
	FilterType byte
	StopHash   consensus.Hash
	PrevHeader consensus.Hash
	Hashes     []consensus.Hash
}

func (*MsgCFHeaders) Command() string { return CmdCFHeaders }

func (m *MsgCFHeaders) Encode() ([]byte, error) {
	out := append(make([]byte, 0, 74+32*len(m.Hashes)), m.FilterType)
	out = append(out, m.StopHash[:]...)
	out = append(out, m.PrevHeader[:]...)
	out = consensus.AppendCompactSize(out, uint64(len(m.Hashes)))
	for _, h := range m.Hashes {
		out = append(out, h[:]...)
	}
	return out, nil
}

func decodeCFHeaders(b []byte) (*MsgCFHeaders, error) {
	r := newReader(b)
	m := &MsgCFHeaders{}
	var err error
	if m.FilterType, err = r.u8("cfheaders: filter type"); err != nil {
		return nil, err
	}
	if m.StopHash, err = r.hash("cfheaders: stop hash"); err != nil {
		return nil, err
	}
	if m.PrevHeader, err = r.hash("cfheaders: prev header"); err != nil {
		return nil, err
	}
	count, err := r.count("cfheaders", MaxHeadersResults)
	if err != nil {
		return nil, err
	}
	m.Hashes = make([]consensus.Hash, 0, count)
	for i := 0; i < count; i++ {
		h, err := r.hash("cfheaders: filter hash")
		if err != nil {
			return nil, err
		}
		m.Hashes = append(m.Hashes, h)
	}
	if err := r.finish("cfheaders"); err != nil {
		return nil, err
	}
	return m, nil
}

// MsgGetCFCheckpt requests evenly spaced filter header checkpoints.
type MsgGetCFCheckpt struct {
	FilterType byte
	StopHash   consensus.Hash
}

func (*MsgGetCFCheckpt) Command() string { return CmdGetCFCheckpt }

func (m *MsgGetCFCheckpt) Encode() ([]byte, error) {
	out := append(make([]byte, 0, 33), m.FilterType)
	return append(out, m.StopHash[:]...), nil
}

func decodeGetCFCheckpt(b []byte) (*MsgGetCFCheckpt, error) {
	r := newReader(b)
	m := &MsgGetCFCheckpt{}
	var err error
	if m.FilterType, err = r.u8("getcfcheckpt: filter type"); err != nil {
		return nil, err
	}
	if m.StopHash, err = r.hash("getcfcheckpt: stop hash"); err != nil {
		return nil, err
	}
	if err := r.finish("getcfcheckpt"); err != nil {
		return nil, err
	}
	return m, nil
}

// MsgCFCheckpt carries the checkpointed filter headers.
type MsgCFCheckpt struct {
	FilterType byte
	StopHash   consensus.Hash
	Headers    []consensus.Hash
}

func (*MsgCFCheckpt) Command() string { return CmdCFCheckpt }

func (m *MsgCFCheckpt) Encode() ([]byte, error) {
	out := append(make([]byte, 0, 42+32*len(m.Headers)), m.FilterType)
	out = append(out, m.StopHash[:]...)
	out = consensus.AppendCompactSize(out, uint64(len(m.Headers)))
	for _, h := range m.Headers {
		out = append(out, h[:]...)
	}
	return out, nil
}

func decodeCFCheckpt(b []byte) (*MsgCFCheckpt, error) {
	r := newReader(b)
	m := &MsgCFCheckpt{}
	var err error
	if m.FilterType, err = r.u8("cfcheckpt: filter type"); err != nil {
		return nil, err
	}
	if m.StopHash, err = r.hash("cfcheckpt: stop hash"); err != nil {
		return nil, err
	}
	count, err := r.count("cfcheckpt", MaxHeadersResults)
	if err != nil {
		return nil, err
	}
	m.Headers = make([]consensus.Hash, 0, count)
	for i := 0; i < count; i++ {
		h, err := r.hash("cfcheckpt: header")
		if err != nil {
			return nil, err
		}
		m.Headers = append(m.Headers, h)
	}
	if err := r.finish("cfcheckpt"); err != nil {
		return nil, err
	}
	return m, nil
}
