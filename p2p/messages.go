package p2p

import "fmt"

// Protocol version parameters.
const (
	ProtocolVersion     = 70014
	MinSupportedVersion = 60001
)

// Service flags advertised in version and addr messages.
const (
	NodeNetwork        = 1 << 0
	NodeGetUTXO        = 1 << 1
	NodeBloom          = 1 << 2
	NodeCompactFilters = 1 << 6
	NodeNetworkLimited = 1 << 10
	NodeAvalanche      = 1 << 24
)

// Catalog limits.
const (
	MaxInvEntries     = 50_000
	MaxAddrEntries    = 1_000
	MaxLocatorHashes  = 101
	MaxHeadersResults = 2_000
	MaxBloomFilter    = 36_000
	MaxBloomHashFuncs = 50
)

// Compact filter types.
const FilterTypeBasic = 0

// Wire commands.
const (
	CmdVersion    = "version"
	CmdVerack     = "verack"
	CmdAddr       = "addr"
	CmdAddrV2     = "addrv2"
	CmdSendAddrV2 = "sendaddrv2"
	CmdGetAddr    = "getaddr"

	CmdInv        = "inv"
	CmdGetData    = "getdata"
	CmdNotFound   = "notfound"
	CmdGetBlocks  = "getblocks"
	CmdGetHeaders = "getheaders"
	CmdHeaders    = "headers"
	CmdBlock      = "block"
	CmdTx         = "tx"
	CmdMempool    = "mempool"

	CmdPing        = "ping"
	CmdPong        = "pong"
	CmdSendHeaders = "sendheaders"
	CmdFeeFilter   = "feefilter"

	CmdFilterLoad  = "filterload"
	CmdFilterAdd   = "filteradd"
	CmdFilterClear = "filterclear"
	CmdMerkleBlock = "merkleblock"

	CmdSendCmpct   = "sendcmpct"
	CmdCmpctBlock  = "cmpctblock"
	CmdGetBlockTxn = "getblocktxn"
	CmdBlockTxn    = "blocktxn"

	CmdGetCFilters  = "getcfilters"
	CmdCFilter      = "cfilter"
	CmdGetCFHeaders = "getcfheaders"
	CmdCFHeaders    = "cfheaders"
	CmdGetCFCheckpt = "getcfcheckpt"
	CmdCFCheckpt    = "cfcheckpt"

	CmdAvaPoll     = "avapoll"
	CmdAvaResponse = "avaresponse"
	CmdAvaHello    = "avahello"
	CmdAvaProof    = "avaproof"
)

// Payload is one decoded wire message body.
type Payload interface {
	Command() string
	Encode() ([]byte, error)
}

// UnknownMessageError reports a command with no decoder. Peers may speak
// newer protocol revisions, so this is not ban-worthy by itself.
type UnknownMessageError struct {
	Cmd string
}

func (e *UnknownMessageError) Error() string {
	return fmt.Sprintf("p2p: unknown command %q", e.Cmd)
}

// DecodePayload decodes a payload body by its command name.
func DecodePayload(command string, b []byte) (Payload, error) {
	switch command {
	case CmdVersion:
		return decodeVersion(b)
	case CmdVerack:
		return decodeEmpty(b, &MsgVerack{})
	case CmdAddr:
		return decodeAddr(b)
	case CmdAddrV2:
		return decodeAddrV2(b)
	case CmdSendAddrV2:
		return decodeEmpty(b, &MsgSendAddrV2{})
	case CmdGetAddr:
		return decodeEmpty(b, &MsgGetAddr{})
	case CmdInv:
		return decodeInv(b)
	case CmdGetData:
		return decodeGetData(b)
	case CmdNotFound:
		return decodeNotFound(b)
	case CmdGetBlocks:
		return decodeGetBlocks(b)
	case CmdGetHeaders:
		return decodeGetHeaders(b)
	case CmdHeaders:
		return decodeHeaders(b)
	case CmdBlock:
		return decodeBlock(b)
	case CmdTx:
		return decodeTx(b)
	case CmdMempool:
		return decodeEmpty(b, &MsgMempool{})
	case CmdPing:
		return decodePing(b)
	case CmdPong:
		return decodePong(b)
	case CmdSendHeaders:
		return decodeEmpty(b, &MsgSendHeaders{})
	case CmdFeeFilter:
		return decodeFeeFilter(b)
	case CmdFilterLoad:
		return decodeFilterLoad(b)
	case CmdFilterAdd:
		return decodeFilterAdd(b)
	case CmdFilterClear:
		return decodeEmpty(b, &MsgFilterClear{})
	case CmdMerkleBlock:
		return decodeMerkleBlock(b)
	case CmdSendCmpct:
		return decodeSendCmpct(b)
	case CmdCmpctBlock:
		return decodeCmpctBlock(b)
	case CmdGetBlockTxn:
		return decodeGetBlockTxn(b)
	case CmdBlockTxn:
		return decodeBlockTxn(b)
	case CmdGetCFilters:
		return decodeGetCFilters(b)
	case CmdCFilter:
		return decodeCFilter(b)
	case CmdGetCFHeaders:
		return decodeGetCFHeaders(b)
	case CmdCFHeaders:
		return decodeCFHeaders(b)
	case CmdGetCFCheckpt:
		return decodeGetCFCheckpt(b)
	case CmdCFCheckpt:
		return decodeCFCheckpt(b)
	case CmdAvaPoll:
		return decodeAvaPoll(b)
	case CmdAvaResponse:
		return decodeAvaResponse(b)
	case CmdAvaHello:
		return decodeAvaHello(b)
	case CmdAvaProof:
		return decodeAvaProof(b)
	default:
		return nil, &UnknownMessageError{Cmd: command}
	}
}

func decodeEmpty(b []byte, p Payload) (Payload, error) {
	if len(b) != 0 {
		return nil, structErr(p.Command() + ": unexpected payload")
	}
	return p, nil
}

// MsgVerack acknowledges a version message.
type MsgVerack struct{}

func (*MsgVerack) Command() string         { return CmdVerack }
func (*MsgVerack) Encode() ([]byte, error) { return nil, nil }

// MsgSendAddrV2 signals that the peer prefers addrv2 announcements.
type MsgSendAddrV2 struct{}

func (*MsgSendAddrV2) Command() string         { return CmdSendAddrV2 }
func (*MsgSendAddrV2) Encode() ([]byte, error) { return nil, nil }

// MsgGetAddr requests known peer addresses.
type MsgGetAddr struct{}

func (*MsgGetAddr) Command() string         { return CmdGetAddr }
func (*MsgGetAddr) Encode() ([]byte, error) { return nil, nil }

// MsgMempool requests the peer's mempool contents as inv announcements.
type MsgMempool struct{}

func (*MsgMempool) Command() string         { return CmdMempool }
func (*MsgMempool) Encode() ([]byte, error) { return nil, nil }

// MsgSendHeaders requests direct header announcements instead of invs.
type MsgSendHeaders struct{}

func (*MsgSendHeaders) Command() string         { return CmdSendHeaders }
func (*MsgSendHeaders) Encode() ([]byte, error) { return nil, nil }

// MsgFilterClear removes the peer's bloom filter.
type MsgFilterClear struct{}

func (*MsgFilterClear) Command() string         { return CmdFilterClear }
func (*MsgFilterClear) Encode() ([]byte, error) { return nil, nil }
