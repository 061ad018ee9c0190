package transport

import "github.com/poyrazK/dnscore/internal/dnsmsg"

// outcomeKind classifies a raw request buffer before it reaches the
// handler: a full message, a header-only partial decode (enough to
// preserve the transaction id in an error reply), or a parse failure
// too broken to reply to at all.
type outcomeKind int

const (
	outcomeFullMessage outcomeKind = iota
	outcomeHeaderOnly
	outcomeParseErr
)

type decodeOutcome struct {
	kind   outcomeKind
	msg    *dnsmsg.Message
	header *dnsmsg.Header
	err    error
}

// decodeRequest tries a full decode first; on failure it falls back to
// decoding just the 12-byte header so an error response can still echo
// the client's transaction id. If even that fails, the request is
// dropped silently — there is nothing reliable to reply with.
func decodeRequest(data []byte) decodeOutcome {
	msg, err := dnsmsg.DecodeMessage(data)
	if err == nil {
		return decodeOutcome{kind: outcomeFullMessage, msg: msg}
	}

	hdr, hdrErr := dnsmsg.HeaderOnly(data)
	if hdrErr != nil {
		return decodeOutcome{kind: outcomeParseErr, err: err}
	}
	return decodeOutcome{kind: outcomeHeaderOnly, header: hdr, err: err}
}
