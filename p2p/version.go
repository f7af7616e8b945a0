package p2p

import (
	"encoding/binary"
	"time"

	"lukechampine.com/frand"
)

const maxUserAgentBytes = 256

func randNonce() uint64 {
	var b [8]byte
	frand.Read(b[:])
	return binary.LittleEndian.Uint64(b[:])
}

// MsgVersion opens the handshake. Both address fields use the legacy
// encoding without the time prefix.
type MsgVersion struct {
	Version      int32
	Services     uint64
	Timestamp    int64
	AddrTo       NetAddress
	AddrFrom     NetAddress
	Nonce        uint64
	UserAgent    string
	StartHeight  int32
	Relay        bool
	ExtraEntropy uint64
}

// NewMsgVersion fills a version message with fresh handshake entropy. The
// nonce and extra entropy both come from a CSPRNG so self-connection
// detection cannot be gamed by a predictable seed.
func NewMsgVersion(services uint64, userAgent string, startHeight int32) *MsgVersion {
	return &MsgVersion{
		Version:      ProtocolVersion,
		Services:     services,
		Timestamp:    time.Now().Unix(),
		Nonce:        randNonce(),
		UserAgent:    userAgent,
		StartHeight:  startHeight,
		Relay:        true,
		ExtraEntropy: randNonce(),
	}
}

func (*MsgVersion) Command() string { return CmdVersion }

func (m *MsgVersion) Encode() ([]byte, error) {
	if len(m.UserAgent) > maxUserAgentBytes {
		return nil, structErr("version: user agent too long")
	}
	out := make([]byte, 0, 128)
	out = appendU32le(out, uint32(m.Version))
	out = appendU64le(out, m.Services)
	out = appendU64le(out, uint64(m.Timestamp))
	var err error
	if out, err = appendNetAddress(out, &m.AddrTo, false); err != nil {
		return nil, err
	}
	if out, err = appendNetAddress(out, &m.AddrFrom, false); err != nil {
		return nil, err
	}
	out = appendU64le(out, m.Nonce)
	out = appendVarBytes(out, []byte(m.UserAgent))
	out = appendU32le(out, uint32(m.StartHeight))
	out = appendBool(out, m.Relay)
	out = appendU64le(out, m.ExtraEntropy)
	return out, nil
}

func decodeVersion(b []byte) (*MsgVersion, error) {
	r := newReader(b)
	m := &MsgVersion{}
	var err error
	if m.Version, err = r.i32("version: version"); err != nil {
		return nil, err
	}
	if m.Services, err = r.u64("version: services"); err != nil {
		return nil, err
	}
	if m.Timestamp, err = r.i64("version: timestamp"); err != nil {
		return nil, err
	}
	if m.AddrTo, err = parseNetAddress(r, false); err != nil {
		return nil, err
	}
	if m.AddrFrom, err = parseNetAddress(r, false); err != nil {
		return nil, err
	}
	if m.Nonce, err = r.u64("version: nonce"); err != nil {
		return nil, err
	}
	ua, err := r.varBytes("version: user agent")
	if err != nil {
		return nil, err
	}
	if len(ua) > maxUserAgentBytes {
		return nil, structErr("version: user agent too long")
	}
	m.UserAgent = string(ua)
	if m.StartHeight, err = r.i32("version: start height"); err != nil {
		return nil, err
	}
	relay, err := r.u8("version: relay")
	if err != nil {
		return nil, err
	}
	m.Relay = relay != 0
	if m.ExtraEntropy, err = r.u64("version: extra entropy"); err != nil {
		return nil, err
	}
	if err := r.finish("version"); err != nil {
		return nil, err
	}
	return m, nil
}

// MsgPing probes liveness; the nonce ties the pong back to it.
type MsgPing struct {
	Nonce uint64
}

// NewMsgPing draws a random nonce.
func NewMsgPing() *MsgPing {
	return &MsgPing{Nonce: randNonce()}
}

func (*MsgPing) Command() string { return CmdPing }

func (m *MsgPing) Encode() ([]byte, error) {
	return appendU64le(nil, m.Nonce), nil
}

func decodePing(b []byte) (*MsgPing, error) {
	r := newReader(b)
	nonce, err := r.u64("ping: nonce")
	if err != nil {
		return nil, err
	}
	if err := r.finish("ping"); err != nil {
		return nil, err
	}
	return &MsgPing{Nonce: nonce}, nil
}

// MsgPong answers a ping with the same nonce.
type MsgPong struct {
	Nonce uint64
}

func (*MsgPong) Command() string { return CmdPong }

func (m *MsgPong) Encode() ([]byte, error) {
	return appendU64le(nil, m.Nonce), nil
}

func decodePong(b []byte) (*MsgPong, error) {
	r := newReader(b)
	nonce, err := r.u64("pong: nonce")
	if err != nil {
		return nil, err
	}
	if err := r.finish("pong"); err != nil {
		return nil, err
	}
	return &MsgPong{Nonce: nonce}, nil
}

// MsgFeeFilter announces the minimum fee rate the peer will relay.
type MsgFeeFilter struct {
	FeeRate uint64
}

func (*MsgFeeFilter) Command() string { return CmdFeeFilter }

func (m *MsgFeeFilter) Encode() ([]byte, error) {
	return appendU64le(nil, m.FeeRate), nil
}

func decodeFeeFilter(b []byte) (*MsgFeeFilter, error) {
	r := newReader(b)
	rate, err := r.u64("feefilter: fee rate")
	if err != nil {
		return nil, err
	}
	if err := r.finish("feefilter"); err != nil {
		return nil, err
	}
	return &MsgFeeFilter{FeeRate: rate}, nil
}
