package main

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
	"github.com/poyrazK/dnscore/internal/metrics"
	"github.com/poyrazK/dnscore/internal/resolver"
	"github.com/poyrazK/dnscore/internal/trace"
)

// queryHandler answers a decoded request by running it through a
// Resolver, mapping the recursive lookup's outcome onto the reply's
// RCODE and sections.
type queryHandler struct {
	res    *resolver.Resolver
	logger *slog.Logger
	color  bool
}

func newQueryHandler(res *resolver.Resolver, logger *slog.Logger, color bool) *queryHandler {
	return &queryHandler{res: res, logger: logger, color: color}
}

// Handle implements internal/transport.Handler.
func (h *queryHandler) Handle(req *dnsmsg.Message) *dnsmsg.Message {
	reqID := uuid.New().String()
	start := time.Now()
	resp := reply(req)

	if req.Header.QR || len(req.Questions) != 1 {
		resp.Header.RCode = dnsmsg.RCodeFormErr
		return resp
	}

	q := req.Questions[0]
	result, tr, err := h.res.Lookup(q.Name, q.Type)
	tr.SetID(reqID)

	duration := time.Since(start)
	metrics.QueryDuration.WithLabelValues("resolver").Observe(duration.Seconds())

	if err != nil {
		// Every sentinel in internal/resolver (loop guards, retry budget,
		// malformed upstream data, a SubLookupError from a nested
		// nameserver-address lookup) signals a bound was hit rather than a
		// malformed request, so all of them answer SERVFAIL.
		resp.Header.RCode = dnsmsg.RCodeServFail
		metrics.QueriesTotal.WithLabelValues(q.Type.String(), rcodeLabel(resp.Header.RCode), "resolver").Inc()
		h.logTrace(reqID, q, duration, resp.Header.RCode, err, tr)
		return resp
	}

	resp.Header.AA = false
	if result.NoDomain {
		resp.Header.RCode = dnsmsg.RCodeNxDomain
		resp.Authorities = result.Authorities
	} else {
		resp.Answers = result.Answers
		resp.Authorities = result.Authorities
		resp.Additionals = result.Additionals
	}

	metrics.QueriesTotal.WithLabelValues(q.Type.String(), rcodeLabel(resp.Header.RCode), "resolver").Inc()
	h.logTrace(reqID, q, duration, resp.Header.RCode, nil, tr)
	return resp
}

func (h *queryHandler) logTrace(reqID string, q *dnsmsg.Question, d time.Duration, rcode dnsmsg.RCode, err error, tr *trace.Trace) {
	attrs := []any{
		"request_id", reqID, "name", string(q.Name), "qtype", q.Type.String(),
		"rcode", rcodeLabel(rcode), "duration", d,
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	h.logger.Debug("lookup answered", attrs...)
	if !tr.IsEmpty() {
		h.logger.Debug("lookup trace", "request_id", reqID, "trace", renderTrace(tr, h.color))
	}
}

func rcodeLabel(rc dnsmsg.RCode) string {
	switch rc {
	case dnsmsg.RCodeNoError:
		return "NOERROR"
	case dnsmsg.RCodeFormErr:
		return "FORMERR"
	case dnsmsg.RCodeServFail:
		return "SERVFAIL"
	case dnsmsg.RCodeNxDomain:
		return "NXDOMAIN"
	case dnsmsg.RCodeNotImp:
		return "NOTIMP"
	case dnsmsg.RCodeRefused:
		return "REFUSED"
	default:
		return "UNKNOWN"
	}
}

func reply(req *dnsmsg.Message) *dnsmsg.Message {
	return &dnsmsg.Message{
		Header: dnsmsg.Header{
			ID:     req.Header.ID,
			QR:     true,
			OpCode: req.Header.OpCode,
			RD:     req.Header.RD,
			RA:     true,
			RCode:  dnsmsg.RCodeNoError,
		},
		Questions: req.Questions,
	}
}
