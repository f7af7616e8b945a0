package p2p

import "lotus.dev/wire/consensus"

// BlockLocator is a sparse list of known block hashes, newest first, used to
// find the fork point with a peer.
type BlockLocator struct {
	Version int32
	Hashes  []consensus.Hash
}

func appendLocator(dst []byte, l *BlockLocator) []byte {
	dst = appendU32le(dst, uint32(l.Version))
	dst = consensus.AppendCompactSize(dst, uint64(len(l.Hashes)))
	for _, h := range l.Hashes {
		dst = append(dst, h[:]...)
	}
	return dst
}

func parseLocator(r *reader, what string) (BlockLocator, error) {
	var l BlockLocator
	var err error
	if l.Version, err = r.i32(what + ": version"); err != nil {
		return l, err
	}
	count, err := r.count(what+": locator", MaxLocatorHashes)
	if err != nil {
		return l, err
	}
	l.Hashes = make([]consensus.Hash, 0, count)
	for i := 0; i < count; i++ {
		h, err := r.hash(what + ": locator hash")
		if err != nil {
			return l, err
		}
		l.Hashes = append(l.Hashes, h)
	}
	return l, nil
}

// MsgGetBlocks requests block invs following the locator's fork point, up to
// HashStop or the inv limit.
type MsgGetBlocks struct {
	Locator  BlockLocator
	HashStop consensus.Hash
}

func (*MsgGetBlocks) Command() string { return CmdGetBlocks }

func (m *MsgGetBlocks) Encode() ([]byte, error) {
	if len(m.Locator.Hashes) > MaxLocatorHashes {
		return nil, structErr("getblocks: locator too long")
	}
	out := appendLocator(make([]byte, 0, 64), &m.Locator)
	return append(out, m.HashStop[:]...), nil
}

func decodeGetBlocks(b []byte) (*MsgGetBlocks, error) {
	r := newReader(b)
	loc, err := parseLocator(r, "getblocks")
	if err != nil {
		return nil, err
	}
	stop, err := r.hash("getblocks: hash stop")
	if err != nil {
		return nil, err
	}
	if err := r.finish("getblocks"); err != nil {
		return nil, err
	}
	return &MsgGetBlocks{Locator: loc, HashStop: stop}, nil
}

// MsgGetHeaders is the headers-first form of getblocks.
type MsgGetHeaders struct {
	Locator  BlockLocator
	HashStop consensus.Hash
}

func (*MsgGetHeaders) Command() string { return CmdGetHeaders }

func (m *MsgGetHeaders) Encode() ([]byte, error) {
	if len(m.Locator.Hashes) > MaxLocatorHashes {
		return nil, structErr("getheaders: locator too long")
	}
	out := appendLocator(make([]byte, 0, 64), &m.Locator)
	return append(out, m.HashStop[:]...), nil
}

func decodeGetHeaders(b []byte) (*MsgGetHeaders, error) {
	r := newReader(b)
	loc, err := parseLocator(r, "getheaders")
	if err != nil {
		return nil, err
	}
	stop, err := r.hash("getheaders: hash stop")
	if err != nil {
		return nil, err
	}
	if err := r.finish("getheaders"); err != nil {
		return nil, err
	}
	return &MsgGetHeaders{Locator: loc, HashStop: stop}, nil
}

// MsgHeaders answers getheaders with bare fixed-size headers.
type MsgHeaders struct {
	Headers []consensus.BlockHeader
}

func (*MsgHeaders) Command() string { return CmdHeaders }

func (m *MsgHeaders) Encode() ([]byte, error) {
	if len(m.Headers) > MaxHeadersResults {
		return nil, structErr("headers: too many headers")
	}
	out := consensus.AppendCompactSize(
		make([]byte, 0, 9+consensus.BlockHeaderBytesLen*len(m.Headers)),
		uint64(len(m.Headers)))
	for _, h := range m.Headers {
		out = consensus.AppendBlockHeader(out, h)
	}
	return out, nil
}

func decodeHeaders(b []byte) (*MsgHeaders, error) {
	r := newReader(b)
	count, err := r.count("headers", MaxHeadersResults)
	if err != nil {
		return nil, err
	}
	headers := make([]consensus.BlockHeader, 0, count)
	for i := 0; i < count; i++ {
		raw, err := r.exact(consensus.BlockHeaderBytesLen, "headers: header")
		if err != nil {
			return nil, err
		}
		h, err := consensus.ParseBlockHeaderBytes(raw)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	if err := r.finish("headers"); err != nil {
		return nil, err
	}
	return &MsgHeaders{Headers: headers}, nil
}

// MsgBlock carries a full block.
type MsgBlock struct {
	Block *consensus.Block
}

func (*MsgBlock) Command() string { return CmdBlock }

func (m *MsgBlock) Encode() ([]byte, error) {
	return consensus.BlockBytes(m.Block), nil
}

func decodeBlock(b []byte) (*MsgBlock, error) {
	blk, err := consensus.ParseBlockBytes(b)
	if err != nil {
		return nil, err
	}
	return &MsgBlock{Block: blk}, nil
}

// MsgTx carries a single transaction.
type MsgTx struct {
	Tx *consensus.Tx
}

func (*MsgTx) Command() string { return CmdTx }

func (m *MsgTx) Encode() ([]byte, error) {
	return consensus.TxBytes(m.Tx), nil
}

func decodeTx(b []byte) (*MsgTx, error) {
	tx, err := consensus.ParseTxBytes(b)
	if err != nil {
		return nil, err
	}
	return &MsgTx{Tx: tx}, nil
}
