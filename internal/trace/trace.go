// Package trace collects a structured record of a resolver lookup as it
// happens, for later rendering. Rendering is plain text; there is no
// terminal coloring here, it's out of scope.
package trace

import (
	"fmt"
	"strings"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

// Params controls whether a Trace collects anything at all, and whether it
// keeps the pre-filter raw nameserver response alongside the classified one.
type Params struct {
	Silent  bool
	Verbose bool
}

type kind int

const (
	kResolutionStart kind = iota
	kCacheHit
	kCacheMiss
	kNSRequest
	kNSResponse
	kNSError
	kRawResponse
	kSubResolution
)

type line struct {
	kind   kind
	header string
	body   []string
	sub    []line
}

// Trace is an ordered list of resolution events. A silent Trace records
// nothing and is cheap to carry around unconditionally.
type Trace struct {
	conf  Params
	id    string
	lines []line
}

// New returns an empty Trace governed by conf.
func New(conf Params) *Trace {
	return &Trace{conf: conf}
}

// SetID attaches a caller-supplied correlation id (typically a per-request
// uuid minted at the transport layer) so a rendered trace can be matched
// back to the log lines for the same request.
func (t *Trace) SetID(id string) {
	t.id = id
}

// CloneEmpty returns a fresh Trace sharing conf and id but none of t's
// lines, used to seed a sub-lookup's own trace.
func (t *Trace) CloneEmpty() *Trace {
	sub := New(t.conf)
	sub.id = t.id
	return sub
}

// IsEmpty reports whether any event has been recorded.
func (t *Trace) IsEmpty() bool {
	return len(t.lines) == 0
}

func formatRecords(recs []*dnsmsg.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = fmt.Sprintf("%+v", *r)
	}
	return out
}

// Start records the beginning of a lookup for (node, kind).
func (t *Trace) Start(node dnsmsg.Name, rt dnsmsg.RecordType) {
	if t.conf.Silent {
		return
	}
	t.lines = append(t.lines, line{kind: kResolutionStart,
		header: fmt.Sprintf("starting resolution of %s records for %s", rt, node)})
}

// CacheHit records a cache hit for (node, kind).
func (t *Trace) CacheHit(node dnsmsg.Name, rt dnsmsg.RecordType, recs []*dnsmsg.Record) {
	if t.conf.Silent {
		return
	}
	t.lines = append(t.lines, line{kind: kCacheHit,
		header: fmt.Sprintf("cache hit for %s (type %s)", node, rt), body: formatRecords(recs)})
}

// CacheMiss records a cache miss for (node, kind).
func (t *Trace) CacheMiss(node dnsmsg.Name, rt dnsmsg.RecordType) {
	if t.conf.Silent {
		return
	}
	t.lines = append(t.lines, line{kind: kCacheMiss,
		header: fmt.Sprintf("cache miss for %s (type %s)", node, rt)})
}

// CacheNSHit records a cache hit while seeding the candidate NS set.
func (t *Trace) CacheNSHit(node dnsmsg.Name, nss []*dnsmsg.Record, glue []*dnsmsg.Record) {
	if t.conf.Silent {
		return
	}
	body := formatRecords(nss)
	body = append(body, formatRecords(glue)...)
	t.lines = append(t.lines, line{kind: kCacheHit,
		header: fmt.Sprintf("cache hit searching nameservers for %s", node), body: body})
}

// CacheNSMiss records a cache miss while seeding the candidate NS set.
func (t *Trace) CacheNSMiss(node dnsmsg.Name) {
	if t.conf.Silent {
		return
	}
	t.lines = append(t.lines, line{kind: kCacheMiss,
		header: fmt.Sprintf("cache miss searching nameservers for %s", node)})
}

// NSRequest records a query about to be sent to a nameserver.
func (t *Trace) NSRequest(node dnsmsg.Name, rt dnsmsg.RecordType, nsNode, nsZone dnsmsg.Name) {
	if t.conf.Silent {
		return
	}
	t.lines = append(t.lines, line{kind: kNSRequest, header: fmt.Sprintf(
		"asking %s (type %s) to nameserver %s (authoritative over %s)", node, rt, nsNode, nsZone)})
}

// NSAnswer records a terminal Answer classification.
func (t *Trace) NSAnswer(answers, additionals []*dnsmsg.Record) {
	if t.conf.Silent {
		return
	}
	body := []string{"answers found:"}
	body = append(body, formatRecords(answers)...)
	if len(additionals) > 0 {
		body = append(body, "additionals found:")
		body = append(body, formatRecords(additionals)...)
	}
	t.lines = append(t.lines, line{kind: kNSResponse, header: "answer", body: body})
}

// NSAlias records an Alias (CNAME redirect) classification.
func (t *Trace) NSAlias(cname *dnsmsg.Record, hintNs []*dnsmsg.Record) {
	if t.conf.Silent {
		return
	}
	body := formatRecords([]*dnsmsg.Record{cname})
	if len(hintNs) > 0 {
		body = append(body, "delegation hints found:")
		body = append(body, formatRecords(hintNs)...)
	}
	t.lines = append(t.lines, line{kind: kNSResponse, header: "alias to canonical name", body: body})
}

// NSDelegation records a Delegation classification.
func (t *Trace) NSDelegation(nss []*dnsmsg.Record) {
	if t.conf.Silent {
		return
	}
	t.lines = append(t.lines, line{kind: kNSResponse, header: "delegation to sub-zone", body: formatRecords(nss)})
}

// NSNoDomain records a NoDomain classification.
func (t *Trace) NSNoDomain(soa *dnsmsg.Record) {
	if t.conf.Silent {
		return
	}
	if soa == nil {
		t.lines = append(t.lines, line{kind: kNSResponse, header: "no domain, no SOA record"})
		return
	}
	t.lines = append(t.lines, line{kind: kNSResponse, header: "no domain, SOA record:", body: formatRecords([]*dnsmsg.Record{soa})})
}

// NSError records a failed nameserver round-trip.
func (t *Trace) NSError(err error) {
	if t.conf.Silent {
		return
	}
	t.lines = append(t.lines, line{kind: kNSError, header: fmt.Sprintf("asking nameserver failed: %v", err)})
}

// RawResponse records the unfiltered message from a nameserver, verbose
// mode only.
func (t *Trace) RawResponse(msg *dnsmsg.Message) {
	if t.conf.Silent || !t.conf.Verbose {
		return
	}
	body := []string{fmt.Sprintf("header: %+v", msg.Header), "answers:"}
	body = append(body, formatRecords(msg.Answers)...)
	body = append(body, "authorities:")
	body = append(body, formatRecords(msg.Authorities)...)
	body = append(body, "additionals:")
	body = append(body, formatRecords(msg.Additionals)...)
	t.lines = append(t.lines, line{kind: kRawResponse, body: body})
}

// AddSubTrace folds a sub-lookup's trace in as a nested resolution.
func (t *Trace) AddSubTrace(sub *Trace) {
	if sub == nil || t.conf.Silent {
		return
	}
	t.lines = append(t.lines, line{kind: kSubResolution, sub: sub.lines})
}

// String renders the trace as indented plain text.
func (t *Trace) String() string {
	if t.IsEmpty() {
		return "<no trace>"
	}
	var b strings.Builder
	if t.id != "" {
		b.WriteString("trace ")
		b.WriteString(t.id)
		b.WriteString("\n")
	}
	renderLines(&b, t.lines, 0)
	return b.String()
}

func renderLines(b *strings.Builder, lines []line, depth int) {
	indent := strings.Repeat("\t", depth)
	for _, l := range lines {
		if l.kind == kSubResolution {
			renderLines(b, l.sub, depth+1)
			b.WriteString("\n")
			continue
		}
		if l.header != "" {
			b.WriteString(indent)
			b.WriteString(l.header)
			b.WriteString("\n")
		}
		for _, body := range l.body {
			b.WriteString(indent)
			b.WriteString(body)
			b.WriteString("\n")
		}
	}
}
