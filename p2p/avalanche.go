package p2p

import "lotus.dev/wire/avalanche"

// MsgAvaPoll asks a peer to vote on a set of items.
type MsgAvaPoll struct {
	Poll avalanche.Poll
}

func (*MsgAvaPoll) Command() string { return CmdAvaPoll }

func (m *MsgAvaPoll) Encode() ([]byte, error) {
	return avalanche.PollBytes(&m.Poll), nil
}

func decodeAvaPoll(b []byte) (*MsgAvaPoll, error) {
	p, err := avalanche.ParsePollBytes(b)
	if err != nil {
		return nil, err
	}
	return &MsgAvaPoll{Poll: *p}, nil
}

// MsgAvaResponse answers a poll. On TCP connections the response always
// carries the responder's signature.
type MsgAvaResponse struct {
	Response avalanche.TCPResponse
}

func (*MsgAvaResponse) Command() string { return CmdAvaResponse }

func (m *MsgAvaResponse) Encode() ([]byte, error) {
	return avalanche.TCPResponseBytes(&m.Response), nil
}

func decodeAvaResponse(b []byte) (*MsgAvaResponse, error) {
	tr, err := avalanche.ParseTCPResponseBytes(b)
	if err != nil {
		return nil, err
	}
	return &MsgAvaResponse{Response: *tr}, nil
}

// MsgAvaHello announces the sender's delegation on a connection.
type MsgAvaHello struct {
	Hello avalanche.Hello
}

func (*MsgAvaHello) Command() string { return CmdAvaHello }

func (m *MsgAvaHello) Encode() ([]byte, error) {
	return avalanche.HelloBytes(&m.Hello), nil
}

func decodeAvaHello(b []byte) (*MsgAvaHello, error) {
	h, err := avalanche.ParseHelloBytes(b)
	if err != nil {
		return nil, err
	}
	return &MsgAvaHello{Hello: *h}, nil
}

// MsgAvaProof relays a stake proof. The message still uses the legacy proof
// framing.
type MsgAvaProof struct {
	Proof avalanche.LegacyProof
}

func (*MsgAvaProof) Command() string { return CmdAvaProof }

func (m *MsgAvaProof) Encode() ([]byte, error) {
	return avalanche.LegacyProofBytes(&m.Proof), nil
}

func decodeAvaProof(b []byte) (*MsgAvaProof, error) {
	p, err := avalanche.ParseLegacyProofBytes(b)
	if err != nil {
		return nil, err
	}
	return &MsgAvaProof{Proof: *p}, nil
}
