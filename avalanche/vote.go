package avalanche

import "lotus.dev/wire/consensus"

// Vote verdicts. Negative values mean the target could not be judged yet.
const (
	VoteAccepted int32 = 0
	VoteInvalid  int32 = 1
	VoteParked   int32 = 2
	VoteFork     int32 = 3
	VoteUnknown  int32 = -1
	VoteMissing  int32 = -2
	VotePending  int32 = -3
)

// Inv names one item a poll asks about, in the same shape as an inventory
// vector entry.
type Inv struct {
	Type uint32
	Hash consensus.Hash
}

func appendInv(dst []byte, inv Inv) []byte {
	dst = appendU32le(dst, inv.Type)
	return append(dst, inv.Hash[:]...)
}

func parseInv(r *reader) (Inv, error) {
	var inv Inv
	t, err := r.u32("poll: inv type")
	if err != nil {
		return inv, err
	}
	h, err := r.hash("poll: inv hash")
	if err != nil {
		return inv, err
	}
	inv.Type = t
	inv.Hash = h
	return inv, nil
}

// Poll asks a peer to vote on a set of items. Round numbers are signed to
// match the response layout.
type Poll struct {
	Round int64
	Invs  []Inv
}

func AppendPoll(dst []byte, p *Poll) []byte {
	dst = appendU64le(dst, uint64(p.Round))
	dst = consensus.AppendCompactSize(dst, uint64(len(p.Invs)))
	for _, inv := range p.Invs {
		dst = appendInv(dst, inv)
	}
	return dst
}

func PollBytes(p *Poll) []byte {
	return AppendPoll(make([]byte, 0, 8+1+36*len(p.Invs)), p)
}

func parsePoll(r *reader) (*Poll, error) {
	round, err := r.i64("poll: round")
	if err != nil {
		return nil, err
	}
	count, err := r.compactSize("poll: inv count")
	if err != nil {
		return nil, err
	}
	invs := make([]Inv, 0, count)
	for i := 0; i < count; i++ {
		inv, err := parseInv(r)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return &Poll{Round: round, Invs: invs}, nil
}

// ParsePollBytes parses exactly one poll and rejects trailing bytes.
func ParsePollBytes(b []byte) (*Poll, error) {
	r := newReader(b)
	p, err := parsePoll(r)
	if err != nil {
		return nil, err
	}
	if !r.done() {
		return nil, structErr("poll: trailing bytes")
	}
	return p, nil
}

// Vote is one verdict in a response.
type Vote struct {
	Err  int32
	Hash consensus.Hash
}

func appendVote(dst []byte, v Vote) []byte {
	dst = appendU32le(dst, uint32(v.Err))
	return append(dst, v.Hash[:]...)
}

func parseVote(r *reader) (Vote, error) {
	var v Vote
	e, err := r.i32("response: vote error")
	if err != nil {
		return v, err
	}
	h, err := r.hash("response: vote hash")
	if err != nil {
		return v, err
	}
	v.Err = e
	v.Hash = h
	return v, nil
}

// Response carries one vote per item of the poll it answers.
type Response struct {
	Round    int64
	Cooldown int32
	Votes    []Vote
}

func AppendResponse(dst []byte, resp *Response) []byte {
	dst = appendU64le(dst, uint64(resp.Round))
	dst = appendU32le(dst, uint32(resp.Cooldown))
	dst = consensus.AppendCompactSize(dst, uint64(len(resp.Votes)))
	for _, v := range resp.Votes {
		dst = appendVote(dst, v)
	}
	return dst
}

func ResponseBytes(resp *Response) []byte {
	return AppendResponse(make([]byte, 0, 8+4+1+36*len(resp.Votes)), resp)
}

func parseResponse(r *reader) (*Response, error) {
	round, err := r.i64("response: round")
	if err != nil {
		return nil, err
	}
	cooldown, err := r.i32("response: cooldown")
	if err != nil {
		return nil, err
	}
	count, err := r.compactSize("response: vote count")
	if err != nil {
		return nil, err
	}
	votes := make([]Vote, 0, count)
	for i := 0; i < count; i++ {
		v, err := parseVote(r)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return &Response{Round: round, Cooldown: cooldown, Votes: votes}, nil
}

// ParseResponseBytes parses exactly one response and rejects trailing bytes.
func ParseResponseBytes(b []byte) (*Response, error) {
	r := newReader(b)
	resp, err := parseResponse(r)
	if err != nil {
		return nil, err
	}
	if !r.done() {
		return nil, structErr("response: trailing bytes")
	}
	return resp, nil
}

// SigHash is the digest a peer signs over a response.
func (resp *Response) SigHash() consensus.Hash {
	return consensus.Hash256(ResponseBytes(resp))
}

// TCPResponse is a response plus the responder's signature, as carried on a
// TCP connection.
type TCPResponse struct {
	Response Response
	Sig      [SigBytes]byte
}

func AppendTCPResponse(dst []byte, tr *TCPResponse) []byte {
	dst = AppendResponse(dst, &tr.Response)
	return append(dst, tr.Sig[:]...)
}

func TCPResponseBytes(tr *TCPResponse) []byte {
	return AppendTCPResponse(make([]byte, 0, 128), tr)
}

func parseTCPResponse(r *reader) (*TCPResponse, error) {
	resp, err := parseResponse(r)
	if err != nil {
		return nil, err
	}
	sig, err := r.sig("response: signature")
	if err != nil {
		return nil, err
	}
	return &TCPResponse{Response: *resp, Sig: sig}, nil
}

// ParseTCPResponseBytes parses exactly one signed response and rejects
// trailing bytes.
func ParseTCPResponseBytes(b []byte) (*TCPResponse, error) {
	r := newReader(b)
	tr, err := parseTCPResponse(r)
	if err != nil {
		return nil, err
	}
	if !r.done() {
		return nil, structErr("response: trailing bytes")
	}
	return tr, nil
}
