package p2p

import "lotus.dev/wire/consensus"

// MsgSendCmpct negotiates compact block relay.
type MsgSendCmpct struct {
	Announce bool
	Version  uint64
}

func (*MsgSendCmpct) Command() string { return CmdSendCmpct }

func (m *MsgSendCmpct) Encode() ([]byte, error) {
	out := appendBool(make([]byte, 0, 9), m.Announce)
	return appendU64le(out, m.Version), nil
}

func decodeSendCmpct(b []byte) (*MsgSendCmpct, error) {
	r := newReader(b)
	announce, err := r.u8("sendcmpct: announce")
	if err != nil {
		return nil, err
	}
	version, err := r.u64("sendcmpct: version")
	if err != nil {
		return nil, err
	}
	if err := r.finish("sendcmpct"); err != nil {
		return nil, err
	}
	return &MsgSendCmpct{Announce: announce != 0, Version: version}, nil
}

// PrefilledTx is a transaction sent along with a compact block. On the wire
// the index is differential: the gap since the previous prefilled index.
// In memory it is always absolute.
type PrefilledTx struct {
	Index uint64
	Tx    *consensus.Tx
}

// HeaderAndShortIDs is the body of a cmpctblock message: the header, the
// block metadata, 48-bit short ids for most transactions, and a handful of
// prefilled ones the sender expects the receiver to be missing.
type HeaderAndShortIDs struct {
	Header    consensus.BlockHeader
	Metadata  []consensus.MetadataField
	Nonce     uint64
	ShortIDs  []uint64
	Prefilled []PrefilledTx
}

// SipHashKeys derives the short id keys for this compact block.
func (h *HeaderAndShortIDs) SipHashKeys() (uint64, uint64) {
	return consensus.ShortIDKeys(consensus.BlockHeaderBytes(h.Header), h.Nonce)
}

// BuildHeaderAndShortIDs condenses a block. Transactions at the prefill
// indices are carried whole; every other transaction is reduced to the
// 48-bit short id of its content hash.
func BuildHeaderAndShortIDs(b *consensus.Block, nonce uint64, prefill []int) *HeaderAndShortIDs {
	h := &HeaderAndShortIDs{
		Header:   b.Header,
		Metadata: b.Metadata,
		Nonce:    nonce,
	}
	prefilled := make(map[int]bool, len(prefill))
	for _, i := range prefill {
		prefilled[i] = true
		h.Prefilled = append(h.Prefilled, PrefilledTx{Index: uint64(i), Tx: b.Txs[i]})
	}
	k0, k1 := h.SipHashKeys()
	for i, tx := range b.Txs {
		if !prefilled[i] {
			h.ShortIDs = append(h.ShortIDs, consensus.ShortID(k0, k1, consensus.TxHash(tx)))
		}
	}
	return h
}

func appendHeaderAndShortIDs(dst []byte, h *HeaderAndShortIDs) []byte {
	dst = consensus.AppendBlockHeader(dst, h.Header)
	dst = append(dst, consensus.MetadataBytes(h.Metadata)...)
	dst = appendU64le(dst, h.Nonce)
	dst = consensus.AppendCompactSize(dst, uint64(len(h.ShortIDs)))
	for _, id := range h.ShortIDs {
		dst = consensus.AppendShortID(dst, id)
	}
	dst = consensus.AppendCompactSize(dst, uint64(len(h.Prefilled)))
	last := -1
	for _, p := range h.Prefilled {
		dst = consensus.AppendCompactSize(dst, p.Index-uint64(last)-1)
		dst = consensus.AppendTx(dst, p.Tx)
		last = int(p.Index)
	}
	return dst
}

func parseHeaderAndShortIDs(r *reader) (*HeaderAndShortIDs, error) {
	raw, err := r.exact(consensus.BlockHeaderBytesLen, "cmpctblock: header")
	if err != nil {
		return nil, err
	}
	header, err := consensus.ParseBlockHeaderBytes(raw)
	if err != nil {
		return nil, err
	}
	h := &HeaderAndShortIDs{Header: header}

	metaCount, err := r.count("cmpctblock: metadata", uint64(len(r.b)))
	if err != nil {
		return nil, err
	}
	h.Metadata = make([]consensus.MetadataField, 0, metaCount)
	for i := 0; i < metaCount; i++ {
		fieldID, err := r.u32("cmpctblock: metadata field id")
		if err != nil {
			return nil, err
		}
		data, err := r.varBytes("cmpctblock: metadata data")
		if err != nil {
			return nil, err
		}
		h.Metadata = append(h.Metadata, consensus.MetadataField{FieldID: fieldID, Data: data})
	}

	if h.Nonce, err = r.u64("cmpctblock: nonce"); err != nil {
		return nil, err
	}

	idCount, err := r.count("cmpctblock: shortids", uint64(len(r.b)))
	if err != nil {
		return nil, err
	}
	h.ShortIDs = make([]uint64, 0, idCount)
	for i := 0; i < idCount; i++ {
		raw, err := r.exact(consensus.ShortIDBytes, "cmpctblock: shortid")
		if err != nil {
			return nil, err
		}
		id, err := consensus.ReadShortID(raw)
		if err != nil {
			return nil, err
		}
		h.ShortIDs = append(h.ShortIDs, id)
	}

	prefillCount, err := r.count("cmpctblock: prefilled", uint64(len(r.b)))
	if err != nil {
		return nil, err
	}
	h.Prefilled = make([]PrefilledTx, 0, prefillCount)
	last := -1
	for i := 0; i < prefillCount; i++ {
		delta, err := r.compactSize("cmpctblock: prefilled index")
		if err != nil {
			return nil, err
		}
		tx, n, err := consensus.ParseTxBytesPrefix(r.b[r.pos:])
		if err != nil {
			return nil, err
		}
		r.pos += n
		index := uint64(last) + delta + 1
		h.Prefilled = append(h.Prefilled, PrefilledTx{Index: index, Tx: tx})
		last = int(index)
	}
	return h, nil
}

// MsgCmpctBlock announces a block in compact form.
type MsgCmpctBlock struct {
	HeaderAndShortIDs HeaderAndShortIDs
}

func (*MsgCmpctBlock) Command() string { return CmdCmpctBlock }

func (m *MsgCmpctBlock) Encode() ([]byte, error) {
	return appendHeaderAndShortIDs(make([]byte, 0, 256), &m.HeaderAndShortIDs), nil
}

func decodeCmpctBlock(b []byte) (*MsgCmpctBlock, error) {
	r := newReader(b)
	h, err := parseHeaderAndShortIDs(r)
	if err != nil {
		return nil, err
	}
	if err := r.finish("cmpctblock"); err != nil {
		return nil, err
	}
	return &MsgCmpctBlock{HeaderAndShortIDs: *h}, nil
}

// BlockTransactionsRequest asks for the transactions a compact block could
// not reconstruct. Indexes are differential on the wire and absolute in
// memory.
type BlockTransactionsRequest struct {
	BlockHash consensus.Hash
	Indexes   []uint64
}

func appendBlockTxRequest(dst []byte, req *BlockTransactionsRequest) []byte {
	dst = append(dst, req.BlockHash[:]...)
	dst = consensus.AppendCompactSize(dst, uint64(len(req.Indexes)))
	last := -1
	for _, idx := range req.Indexes {
		dst = consensus.AppendCompactSize(dst, idx-uint64(last)-1)
		last = int(idx)
	}
	return dst
}

func parseBlockTxRequest(r *reader) (*BlockTransactionsRequest, error) {
	req := &BlockTransactionsRequest{}
	var err error
	if req.BlockHash, err = r.hash("getblocktxn: block hash"); err != nil {
		return nil, err
	}
	count, err := r.count("getblocktxn: indexes", uint64(len(r.b)))
	if err != nil {
		return nil, err
	}
	req.Indexes = make([]uint64, 0, count)
	last := -1
	for i := 0; i < count; i++ {
		delta, err := r.compactSize("getblocktxn: index")
		if err != nil {
			return nil, err
		}
		idx := uint64(last) + delta + 1
		req.Indexes = append(req.Indexes, idx)
		last = int(idx)
	}
	return req, nil
}

// MsgGetBlockTxn requests missing compact block transactions.
type MsgGetBlockTxn struct {
	Request BlockTransactionsRequest
}

func (*MsgGetBlockTxn) Command() string { return CmdGetBlockTxn }

func (m *MsgGetBlockTxn) Encode() ([]byte, error) {
	return appendBlockTxRequest(make([]byte, 0, 64), &m.Request), nil
}

func decodeGetBlockTxn(b []byte) (*MsgGetBlockTxn, error) {
	r := newReader(b)
	req, err := parseBlockTxRequest(r)
	if err != nil {
		return nil, err
	}
	if err := r.finish("getblocktxn"); err != nil {
		return nil, err
	}
	return &MsgGetBlockTxn{Request: *req}, nil
}

// MsgBlockTxn answers a getblocktxn with the requested transactions.
type MsgBlockTxn struct {
	BlockHash    consensus.Hash
	Transactions []*consensus.Tx
}

func (*MsgBlockTxn) Command() string { return CmdBlockTxn }

func (m *MsgBlockTxn) Encode() ([]byte, error) {
	out := append(make([]byte, 0, 64), m.BlockHash[:]...)
	out = consensus.AppendCompactSize(out, uint64(len(m.Transactions)))
	for _, tx := range m.Transactions {
		out = consensus.AppendTx(out, tx)
	}
	return out, nil
}

func decodeBlockTxn(b []byte) (*MsgBlockTxn, error) {
	r := newReader(b)
	m := &MsgBlockTxn{}
	var err error
	if m.BlockHash, err = r.hash("blocktxn: block hash"); err != nil {
		return nil, err
	}
	count, err := r.count("blocktxn: transactions", uint64(len(r.b)))
	if err != nil {
		return nil, err
	}
	m.Transactions = make([]*consensus.Tx, 0, count)
	for i := 0; i < count; i++ {
		tx, n, err := consensus.ParseTxBytesPrefix(r.b[r.pos:])
		if err != nil {
			return nil, err
		}
		r.pos += n
		m.Transactions = append(m.Transactions, tx)
	}
	if err := r.finish("blocktxn"); err != nil {
		return nil, err
	}
	return m, nil
}
