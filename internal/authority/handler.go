// Package authority implements the authoritative query handler: it answers
// decoded requests directly against a ManagedZone, with no recursion and no
// upstream I/O.
package authority

import (
	"errors"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
	"github.com/poyrazK/dnscore/internal/zone"
)

// Handler answers requests against a single, read-only ManagedZone. The
// zone is safe to share across worker goroutines: it is never mutated
// after load.
type Handler struct {
	zone *zone.ManagedZone
}

// NewHandler returns a Handler serving mz.
func NewHandler(mz *zone.ManagedZone) *Handler {
	return &Handler{zone: mz}
}

// Handle answers req. It always returns a response; errors are expressed as
// RCODEs per the reply, never as a Go error.
func (h *Handler) Handle(req *dnsmsg.Message) *dnsmsg.Message {
	resp := reply(req)

	if req.Header.QR || req.Header.AnswerCount != 0 || req.Header.AuthorityCount != 0 {
		resp.Header.RCode = dnsmsg.RCodeFormErr
		return resp
	}
	if len(req.Questions) != 1 {
		resp.Header.RCode = dnsmsg.RCodeFormErr
		return resp
	}

	q := req.Questions[0]
	auth := h.zone.Auth

	if !q.Name.IsInZone(auth.Top) {
		resp.Header.RCode = dnsmsg.RCodeRefused
		return resp
	}

	if sz := h.zone.SubZoneFor(q.Name); sz != nil {
		ns := sz.NSRecordsAt(sz.Top)
		resp.Header.AA = false
		resp.Authorities = ns
		resp.Additionals = glueFor(h.zone, ns)
		return resp
	}

	if recs, ok := auth.Lookup(q.Name, q.Type); ok {
		resp.Header.AA = true
		resp.Answers = recs
		return resp
	}

	if cname, ok := auth.Lookup(q.Name, dnsmsg.TypeCNAME); ok && len(cname) > 0 {
		resp.Header.AA = true
		resp.Answers = cname[:1]
		return resp
	}

	resp.Header.AA = true
	resp.Header.RCode = dnsmsg.RCodeNxDomain
	if soa, ok := auth.Lookup(auth.Top, dnsmsg.TypeSOA); ok {
		resp.Authorities = soa
	}
	return resp
}

// reply builds the response shell echoing the request's id, opcode,
// recursion-desired bit, and question.
func reply(req *dnsmsg.Message) *dnsmsg.Message {
	return &dnsmsg.Message{
		Header: dnsmsg.Header{
			ID:     req.Header.ID,
			QR:     true,
			OpCode: req.Header.OpCode,
			RD:     req.Header.RD,
			RCode:  dnsmsg.RCodeNoError,
		},
		Questions: req.Questions,
	}
}

// glueFor collects the A records (from any sub-zone) owned by NS targets
// that fall within a sub-zone.
func glueFor(mz *zone.ManagedZone, ns []*dnsmsg.Record) []*dnsmsg.Record {
	var out []*dnsmsg.Record
	for _, n := range ns {
		target := n.Host
		for _, sz := range mz.SubZones {
			if !target.IsInZone(sz.Top) {
				continue
			}
			if a, ok := sz.Lookup(target, dnsmsg.TypeA); ok {
				out = append(out, a...)
			}
		}
	}
	return out
}

// HandleDecodeError composes a minimal error response when only the header
// decoded successfully. cause is the error from the rest of the decode;
// an unsupported opcode/class/type yields NotImp, everything else FormErr.
func HandleDecodeError(hdr *dnsmsg.Header, cause error) *dnsmsg.Message {
	rcode := dnsmsg.RCodeFormErr
	if isUnsupportedCause(cause) {
		rcode = dnsmsg.RCodeNotImp
	}
	return &dnsmsg.Message{
		Header: dnsmsg.Header{
			ID:     hdr.ID,
			QR:     true,
			OpCode: hdr.OpCode,
			RD:     hdr.RD,
			RCode:  rcode,
		},
	}
}

func isUnsupportedCause(err error) bool {
	return errors.Is(err, dnsmsg.ErrUnsupportedOpCode) ||
		errors.Is(err, dnsmsg.ErrUnsupportedClass) ||
		errors.Is(err, dnsmsg.ErrUnsupportedType)
}
