package resolver

import (
	"time"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

// Config bounds a recursive lookup: how wide it fans out per zone, how many
// times it retries an unanswered nameserver, how many CNAME redirections it
// follows, and how long it waits on each UDP round-trip.
type Config struct {
	MaxNSQueried  int
	MaxNSRetries  int
	MaxCnameRedir int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// DefaultConfig returns the bounds a resolver runs with absent explicit
// configuration.
func DefaultConfig() Config {
	return Config{
		MaxNSQueried:  3,
		MaxNSRetries:  3,
		MaxCnameRedir: 10,
		ReadTimeout:   2 * time.Second,
		WriteTimeout:  2 * time.Second,
	}
}

// NextSubzoneNs is a nameserver candidate for the next zone down: its NS
// record plus whatever A glue records accompanied it.
type NextSubzoneNs struct {
	NSRecord *dnsmsg.Record
	ARecords []*dnsmsg.Record
}

// Node is the nameserver's own hostname.
func (n NextSubzoneNs) Node() dnsmsg.Name { return n.NSRecord.Host }

// Zone is the zone this nameserver is authoritative over.
func (n NextSubzoneNs) Zone() dnsmsg.Name { return n.NSRecord.Name }

// Addrs lists the known IPv4 addresses for this nameserver, if any.
func (n NextSubzoneNs) Addrs() []dnsmsg.Addr4 {
	out := make([]dnsmsg.Addr4, 0, len(n.ARecords))
	for _, a := range n.ARecords {
		out = append(out, a.A)
	}
	return out
}

// LookupResult is the outcome of a completed lookup: any CNAMEs followed to
// get there, the final answers (empty if NoDomain), and whatever authority/
// additional data came with the terminal response.
type LookupResult struct {
	Answers     []*dnsmsg.Record
	Authorities []*dnsmsg.Record
	Additionals []*dnsmsg.Record
	NoDomain    bool
}

// QueryFunc sends one query for (node, rt) to the nameserver reachable at
// addr ("host:port") and returns its decoded reply. Resolver.sendQuery is
// the real UDP implementation; tests substitute a stub here to script
// multi-hop referral chains without any network I/O.
type QueryFunc func(addr string, node dnsmsg.Name, rt dnsmsg.RecordType) (*dnsmsg.Message, error)
