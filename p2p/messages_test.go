package p2p

import (
	"bytes"
	"errors"
	"net/netip"
	"testing"

	"lotus.dev/wire/avalanche"
	"lotus.dev/wire/consensus"
)

func reencode(t *testing.T, p Payload) []byte {
	t.Helper()
	b, err := p.Encode()
	if err != nil {
		t.Fatalf("%s: encode error: %v", p.Command(), err)
	}
	return b
}

// roundTrip encodes p, decodes it through the catalog, and re-encodes; the
// two serializations must be identical.
func roundTrip(t *testing.T, p Payload) Payload {
	t.Helper()
	enc := reencode(t, p)
	dec, err := DecodePayload(p.Command(), enc)
	if err != nil {
		t.Fatalf("%s: decode error: %v", p.Command(), err)
	}
	if dec.Command() != p.Command() {
		t.Fatalf("command changed: %q -> %q", p.Command(), dec.Command())
	}
	if !bytes.Equal(reencode(t, dec), enc) {
		t.Fatalf("%s: re-encode mismatch", p.Command())
	}
	return dec
}

func testAddr(port uint16) NetAddress {
	return NetAddress{
		Time:     1600000000,
		Services: NodeNetwork | NodeAvalanche,
		Addr:     netip.AddrFrom4([4]byte{203, 0, 113, 7}),
		Port:     port,
	}
}

func TestVersionRoundTrip(t *testing.T) {
	m := &MsgVersion{
		Version:      ProtocolVersion,
		Services:     NodeNetwork,
		Timestamp:    1700000000,
		AddrTo:       testAddr(10605),
		AddrFrom:     testAddr(10606),
		Nonce:        0xdeadbeef,
		UserAgent:    "/lotus-wire:0.1.0/",
		StartHeight:  -1,
		Relay:        true,
		ExtraEntropy: 42,
	}
	dec := roundTrip(t, m).(*MsgVersion)
	if dec.Version != ProtocolVersion || dec.StartHeight != -1 {
		t.Fatalf("scalar mismatch: %+v", dec)
	}
	if dec.UserAgent != m.UserAgent {
		t.Fatalf("user agent mismatch: %q", dec.UserAgent)
	}
	if dec.AddrTo.Port != 10605 || dec.AddrFrom.Port != 10606 {
		t.Fatalf("address mismatch: %+v %+v", dec.AddrTo, dec.AddrFrom)
	}
	if dec.AddrTo.Addr != m.AddrTo.Addr {
		t.Fatalf("ip mismatch: %s", dec.AddrTo.Addr)
	}
	// The legacy address form inside version carries no timestamp.
	if dec.AddrTo.Time != 0 {
		t.Fatalf("version addresses must not carry time")
	}
}

func TestNewMsgVersionEntropy(t *testing.T) {
	a := NewMsgVersion(NodeNetwork, "/lotus-wire:0.1.0/", 0)
	b := NewMsgVersion(NodeNetwork, "/lotus-wire:0.1.0/", 0)
	if a.Nonce == b.Nonce && a.ExtraEntropy == b.ExtraEntropy {
		t.Fatalf("handshake entropy repeated across messages")
	}
}

func TestEmptyPayloads(t *testing.T) {
	empties := []Payload{
		&MsgVerack{}, &MsgSendAddrV2{}, &MsgGetAddr{},
		&MsgMempool{}, &MsgSendHeaders{}, &MsgFilterClear{},
	}
	for _, p := range empties {
		if len(reencode(t, p)) != 0 {
			t.Fatalf("%s: payload must be empty", p.Command())
		}
		roundTrip(t, p)
		if _, err := DecodePayload(p.Command(), []byte{0x00}); err == nil {
			t.Fatalf("%s: accepted unexpected payload", p.Command())
		}
	}
}

func TestAddrRoundTrips(t *testing.T) {
	addrs := []NetAddress{testAddr(1), testAddr(2)}

	dec := roundTrip(t, &MsgAddr{Addrs: addrs}).(*MsgAddr)
	if len(dec.Addrs) != 2 || dec.Addrs[0].Time != 1600000000 {
		t.Fatalf("addr mismatch: %+v", dec.Addrs)
	}

	decV2 := roundTrip(t, &MsgAddrV2{Addrs: addrs}).(*MsgAddrV2)
	if len(decV2.Addrs) != 2 || decV2.Addrs[1].Port != 2 {
		t.Fatalf("addrv2 mismatch: %+v", decV2.Addrs)
	}
	if decV2.Addrs[0].Services != NodeNetwork|NodeAvalanche {
		t.Fatalf("addrv2 services mismatch: %x", decV2.Addrs[0].Services)
	}
}

func TestInvFamilyRoundTrips(t *testing.T) {
	invs := []InvVect{
		{Type: InvTx, Hash: consensus.Hash256([]byte("tx"))},
		{Type: InvBlock, Hash: consensus.Hash256([]byte("block"))},
		{Type: InvAvaProof, Hash: consensus.Hash256([]byte("proof"))},
	}
	dec := roundTrip(t, &MsgInv{Invs: invs}).(*MsgInv)
	if len(dec.Invs) != 3 || dec.Invs[2].Type != InvAvaProof {
		t.Fatalf("inv mismatch: %+v", dec.Invs)
	}
	roundTrip(t, &MsgGetData{Invs: invs})
	roundTrip(t, &MsgNotFound{Invs: invs[:1]})

	if _, err := (&MsgInv{Invs: make([]InvVect, MaxInvEntries+1)}).Encode(); err == nil {
		t.Fatalf("oversized inv encoded")
	}
}

func TestLocatorMessagesRoundTrip(t *testing.T) {
	loc := BlockLocator{
		Version: ProtocolVersion,
		Hashes: []consensus.Hash{
			consensus.Hash256([]byte("tip")),
			consensus.Hash256([]byte("fork")),
		},
	}
	stop := consensus.Hash256([]byte("stop"))

	gb := roundTrip(t, &MsgGetBlocks{Locator: loc, HashStop: stop}).(*MsgGetBlocks)
	if gb.HashStop != stop || len(gb.Locator.Hashes) != 2 {
		t.Fatalf("getblocks mismatch: %+v", gb)
	}
	gh := roundTrip(t, &MsgGetHeaders{Locator: loc, HashStop: stop}).(*MsgGetHeaders)
	if gh.Locator.Version != ProtocolVersion {
		t.Fatalf("getheaders locator version mismatch")
	}

	long := BlockLocator{Hashes: make([]consensus.Hash, MaxLocatorHashes+1)}
	if _, err := (&MsgGetHeaders{Locator: long}).Encode(); err == nil {
		t.Fatalf("oversized locator encoded")
	}
}

func testHeader(height uint32) consensus.BlockHeader {
	return consensus.BlockHeader{
		PrevBlock:     consensus.Hash256([]byte("prev")),
		Bits:          0x207fffff,
		Time:          1600000000,
		HeaderVersion: 1,
		Height:        height,
		MerkleRoot:    consensus.Hash256([]byte("root")),
	}
}

func TestHeadersRoundTrip(t *testing.T) {
	m := &MsgHeaders{Headers: []consensus.BlockHeader{testHeader(1), testHeader(2)}}
	dec := roundTrip(t, m).(*MsgHeaders)
	if len(dec.Headers) != 2 || dec.Headers[1].Height != 2 {
		t.Fatalf("headers mismatch: %+v", dec.Headers)
	}

	if _, err := (&MsgHeaders{Headers: make([]consensus.BlockHeader, MaxHeadersResults+1)}).Encode(); err == nil {
		t.Fatalf("oversized headers encoded")
	}
}

func testTx(lock uint32) *consensus.Tx {
	return &consensus.Tx{
		Version: 1,
		Inputs: []consensus.TxIn{{
			PrevOut:   consensus.OutPoint{TxHash: consensus.Hash256([]byte("prev")), Index: 1},
			ScriptSig: []byte{0x51},
			Sequence:  0xffffffff,
		}},
		Outputs:  []consensus.TxOut{{Value: 1000, ScriptPubKey: []byte{0xac}}},
		LockTime: lock,
	}
}

func testBlock(t *testing.T) *consensus.Block {
	t.Helper()
	coinbase := &consensus.Tx{
		Version: 1,
		Inputs: []consensus.TxIn{{
			PrevOut:   consensus.OutPoint{Index: 0xffffffff},
			ScriptSig: []byte{0x01},
			Sequence:  0xffffffff,
		}},
		Outputs: []consensus.TxOut{{Value: 130 * consensus.Coin, ScriptPubKey: []byte{0xac}}},
	}
	b := &consensus.Block{
		Header: testHeader(10),
		Txs:    []*consensus.Tx{coinbase, testTx(1), testTx(2)},
	}
	b.Header.MerkleRoot = consensus.BlockMerkleRoot(b)
	b.RehashExtendedMetadata()
	b.UpdateSize()
	return b
}

func TestBlockAndTxMessages(t *testing.T) {
	blk := testBlock(t)
	dec := roundTrip(t, &MsgBlock{Block: blk}).(*MsgBlock)
	if len(dec.Block.Txs) != 3 {
		t.Fatalf("block tx count mismatch: %d", len(dec.Block.Txs))
	}

	decTx := roundTrip(t, &MsgTx{Tx: testTx(9)}).(*MsgTx)
	if decTx.Tx.LockTime != 9 {
		t.Fatalf("tx locktime mismatch: %d", decTx.Tx.LockTime)
	}
}

func TestControlMessages(t *testing.T) {
	ping := roundTrip(t, &MsgPing{Nonce: 0x0102030405060708}).(*MsgPing)
	if ping.Nonce != 0x0102030405060708 {
		t.Fatalf("ping nonce mismatch")
	}
	roundTrip(t, &MsgPong{Nonce: 1})
	ff := roundTrip(t, &MsgFeeFilter{FeeRate: 1000}).(*MsgFeeFilter)
	if ff.FeeRate != 1000 {
		t.Fatalf("feefilter rate mismatch")
	}
}

func TestFilterMessages(t *testing.T) {
	fl := roundTrip(t, &MsgFilterLoad{
		Data:      []byte{0xff, 0x00, 0xff},
		HashFuncs: 11,
		Tweak:     0xcafe,
		Flags:     BloomUpdateAll,
	}).(*MsgFilterLoad)
	if fl.HashFuncs != 11 || fl.Flags != BloomUpdateAll {
		t.Fatalf("filterload mismatch: %+v", fl)
	}

	if _, err := (&MsgFilterLoad{Data: make([]byte, MaxBloomFilter+1)}).Encode(); err == nil {
		t.Fatalf("oversized filter encoded")
	}
	if _, err := (&MsgFilterLoad{HashFuncs: MaxBloomHashFuncs + 1}).Encode(); err == nil {
		t.Fatalf("too many hash funcs encoded")
	}

	roundTrip(t, &MsgFilterAdd{Data: []byte{0x01, 0x02}})
}

func TestCompactFilterMessages(t *testing.T) {
	stop := consensus.Hash256([]byte("stop"))

	roundTrip(t, &MsgGetCFilters{FilterType: FilterTypeBasic, StartHeight: 100, StopHash: stop})
	cf := roundTrip(t, &MsgCFilter{
		FilterType: FilterTypeBasic,
		BlockHash:  stop,
		FilterData: []byte{0x01, 0x02, 0x03},
	}).(*MsgCFilter)
	if !bytes.Equal(cf.FilterData, []byte{0x01, 0x02, 0x03}) {
		t.Fatalf("cfilter data mismatch")
	}

	roundTrip(t, &MsgGetCFHeaders{FilterType: FilterTypeBasic, StartHeight: 1, StopHash: stop})
	ch := roundTrip(t, &MsgCFHeaders{
		FilterType: FilterTypeBasic,
		StopHash:   stop,
		PrevHeader: consensus.Hash256([]byte("prev")),
		Hashes:     []consensus.Hash{consensus.Hash256([]byte("f1"))},
	}).(*MsgCFHeaders)
	if len(ch.Hashes) != 1 {
		t.Fatalf("cfheaders hashes mismatch")
	}

	roundTrip(t, &MsgGetCFCheckpt{FilterType: FilterTypeBasic, StopHash: stop})
	roundTrip(t, &MsgCFCheckpt{
		FilterType: FilterTypeBasic,
		StopHash:   stop,
		Headers:    []consensus.Hash{consensus.Hash256([]byte("c1")), consensus.Hash256([]byte("c2"))},
	})
}

func TestAvalancheMessages(t *testing.T) {
	poll := roundTrip(t, &MsgAvaPoll{Poll: avalanche.Poll{
		Round: 3,
		Invs:  []avalanche.Inv{{Type: InvBlock, Hash: consensus.Hash256([]byte("b"))}},
	}}).(*MsgAvaPoll)
	if poll.Poll.Round != 3 || len(poll.Poll.Invs) != 1 {
		t.Fatalf("avapoll mismatch: %+v", poll.Poll)
	}

	resp := roundTrip(t, &MsgAvaResponse{Response: avalanche.TCPResponse{
		Response: avalanche.Response{
			Round: 3,
			Votes: []avalanche.Vote{{Err: avalanche.VoteAccepted, Hash: consensus.Hash256([]byte("b"))}},
		},
	}}).(*MsgAvaResponse)
	if len(resp.Response.Response.Votes) != 1 {
		t.Fatalf("avaresponse mismatch")
	}

	hello := roundTrip(t, &MsgAvaHello{Hello: avalanche.Hello{
		Delegation: avalanche.Delegation{
			LimitedProofID: consensus.Hash256([]byte("limited")),
			ProofMaster:    []byte{0x02, 0x01},
		},
	}}).(*MsgAvaHello)
	if hello.Hello.Delegation.ProofID().IsZero() {
		t.Fatalf("avahello delegation lost")
	}

	proof := roundTrip(t, &MsgAvaProof{Proof: avalanche.LegacyProof{
		Sequence:   1,
		Expiration: 2,
		Master:     []byte{0x03, 0x04},
		Stakes: []avalanche.SignedStake{{
			Stake: avalanche.Stake{Amount: 5, Height: 6, PubKey: []byte{0x02}},
		}},
	}}).(*MsgAvaProof)
	if proof.Proof.Sequence != 1 || len(proof.Proof.Stakes) != 1 {
		t.Fatalf("avaproof mismatch")
	}
}

func TestDecodePayloadUnknownCommand(t *testing.T) {
	_, err := DecodePayload("nonsense", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	var unknown *UnknownMessageError
	if !errors.As(err, &unknown) || unknown.Cmd != "nonsense" {
		t.Fatalf("unexpected error: %v", err)
	}
}
