// Package resolver implements iterative recursive resolution: starting from
// the root hints (or whatever closer nameservers the cache already knows),
// it walks referrals down to an authoritative answer, following CNAMEs as
// it goes, caching everything it learns along the way.
package resolver

import (
	"fmt"
	"net"
	"sort"

	"github.com/poyrazK/dnscore/internal/cache"
	"github.com/poyrazK/dnscore/internal/dnsmsg"
	"github.com/poyrazK/dnscore/internal/rootserver"
	"github.com/poyrazK/dnscore/internal/trace"
)

// Resolver holds the shared record cache and resolution bounds; it is safe
// for concurrent use, one Lookup call per in-flight query.
type Resolver struct {
	cache     *cache.RecordCache
	conf      Config
	traceConf trace.Params
	queryFn   QueryFunc
}

// New returns a Resolver backed by c. queryFn defaults to the real UDP
// implementation; tests reach into the struct directly to override it, the
// same way the teacher's Server.queryFn field works.
func New(c *cache.RecordCache, conf Config, traceConf trace.Params) *Resolver {
	r := &Resolver{cache: c, conf: conf, traceConf: traceConf}
	r.queryFn = r.sendQuery
	return r
}

// Lookup resolves rt records for node, following CNAMEs and referrals as
// needed, and returns a trace of every step taken alongside the result.
func (r *Resolver) Lookup(node dnsmsg.Name, rt dnsmsg.RecordType) (*LookupResult, *trace.Trace, error) {
	l := &lookup{
		r:            r,
		searchedNode: node,
		searchedType: rt,
		visited:      []dnsmsg.Name{node},
		trace:        trace.New(r.traceConf),
	}
	res, err := l.perform()
	return res, l.trace, err
}

// lookup is the mutable state of one resolution, including any nested
// lookup spawned to find a nameserver's own address.
type lookup struct {
	r              *Resolver
	searchedNode   dnsmsg.Name
	searchedType   dnsmsg.RecordType
	previousZones  []dnsmsg.Name
	previousCnames []*dnsmsg.Record
	visited        []dnsmsg.Name
	nextNss        []NextSubzoneNs
	noFollowCname  bool
	trace          *trace.Trace
}

func (l *lookup) perform() (*LookupResult, error) {
	cnameRedirs := 0
	for {
		l.trace.Start(l.searchedNode, l.searchedType)

		if recs, ok := l.r.cache.Get(l.searchedNode, l.searchedType); ok {
			l.trace.CacheHit(l.searchedNode, l.searchedType, recs)
			return l.finish(recs, nil, nil, false), nil
		}
		l.trace.CacheMiss(l.searchedNode, l.searchedType)

		if l.searchedType != dnsmsg.TypeCNAME {
			if cnames, ok := l.r.cache.Get(l.searchedNode, dnsmsg.TypeCNAME); ok && len(cnames) > 0 {
				cnameRedirs++
				if cnameRedirs > l.r.conf.MaxCnameRedir {
					return nil, fmt.Errorf("%w: %s", ErrMaxCnameRedir, l.searchedNode)
				}
				if err := l.handleCname(cnames[0], nil); err != nil {
					return nil, err
				}
				continue
			}
		}

		l.seedNextNss()

		outcome, err := l.queryNameserversIteratively()
		if err != nil {
			return nil, err
		}

		switch outcome.kind {
		case kindAnswer:
			l.r.cache.Set(outcome.answers)
			return l.finish(outcome.answers, nil, outcome.additionals, false), nil
		case kindNoDomain:
			var authorities []*dnsmsg.Record
			if outcome.soa != nil {
				authorities = []*dnsmsg.Record{outcome.soa}
			}
			return l.finish(nil, authorities, nil, true), nil
		case kindAlias:
			cnameRedirs++
			if cnameRedirs > l.r.conf.MaxCnameRedir {
				return nil, fmt.Errorf("%w: %s", ErrMaxCnameRedir, l.searchedNode)
			}
			l.r.cache.Set([]*dnsmsg.Record{outcome.cname})
			if err := l.handleCname(outcome.cname, outcome.nextNss); err != nil {
				return nil, err
			}
		case kindDelegation:
			l.cacheDelegation(outcome.nextNss)
			l.nextNss = outcome.nextNss
		}
	}
}

func (l *lookup) finish(answers, authorities, additionals []*dnsmsg.Record, noDomain bool) *LookupResult {
	out := make([]*dnsmsg.Record, 0, len(l.previousCnames)+len(answers))
	out = append(out, l.previousCnames...)
	out = append(out, answers...)
	return &LookupResult{Answers: out, Authorities: authorities, Additionals: additionals, NoDomain: noDomain}
}

// handleCname records a CNAME hop and redirects the search to its target,
// failing if the target was already visited in this chain or if this
// lookup isn't allowed to follow CNAMEs at all (a nested NS-address
// lookup).
func (l *lookup) handleCname(cname *dnsmsg.Record, nextNss []NextSubzoneNs) error {
	for _, v := range l.visited {
		if v == cname.Host {
			return fmt.Errorf("%w: %s", ErrCnamesLoop, cname.Host)
		}
	}
	l.previousCnames = append(l.previousCnames, cname)
	if l.noFollowCname {
		return fmt.Errorf("%w: %s", ErrUnexpectedCname, cname.Name)
	}
	l.searchedNode = cname.Host
	l.visited = append(l.visited, cname.Host)
	if nextNss != nil {
		l.nextNss = nextNss
	}
	return nil
}

// seedNextNss picks the candidate nameserver set for the next round: the
// nearest ancestor zone of searchedNode with cached NS records, or the 13
// root hints if nothing closer is known.
func (l *lookup) seedNextNss() {
	for _, z := range zoneChain(l.searchedNode) {
		nss, ok := l.r.cache.Get(z, dnsmsg.TypeNS)
		if !ok || len(nss) == 0 {
			continue
		}
		next := make([]NextSubzoneNs, 0, len(nss))
		var glue []*dnsmsg.Record
		for _, ns := range nss {
			arecs, _ := l.r.cache.Get(ns.Host, dnsmsg.TypeA)
			glue = append(glue, arecs...)
			next = append(next, NextSubzoneNs{NSRecord: ns, ARecords: arecs})
		}
		l.trace.CacheNSHit(z, nss, glue)
		l.nextNss = next
		return
	}
	l.trace.CacheNSMiss(l.searchedNode)
	l.nextNss = rootHintsAsNextNss()
}

func rootHintsAsNextNss() []NextSubzoneNs {
	out := make([]NextSubzoneNs, 0, len(rootserver.Hints))
	for _, h := range rootserver.Hints {
		ns := &dnsmsg.Record{Name: dnsmsg.Root, Type: dnsmsg.TypeNS, Class: dnsmsg.ClassIN, TTL: 100000, Host: h.Name}
		a := &dnsmsg.Record{Name: h.Name, Type: dnsmsg.TypeA, Class: dnsmsg.ClassIN, TTL: 10000, A: h.Addr}
		out = append(out, NextSubzoneNs{NSRecord: ns, ARecords: []*dnsmsg.Record{a}})
	}
	return out
}

// zoneChain lists n and each of its ancestor zones up to and including the
// root, most specific first: "a.b.c." -> ["a.b.c.", "b.c.", "c.", "."].
func zoneChain(n dnsmsg.Name) []dnsmsg.Name {
	var out []dnsmsg.Name
	cur := n
	for {
		out = append(out, cur)
		if cur == dnsmsg.Root {
			return out
		}
		cur = parentZone(cur)
	}
}

func parentZone(n dnsmsg.Name) dnsmsg.Name {
	s := string(n)
	idx := -1
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			idx = i
			break
		}
	}
	if idx < 0 || idx == len(s)-1 {
		return dnsmsg.Root
	}
	return dnsmsg.Name(s[idx+1:])
}

// queryNameserversIteratively asks the current candidate set, following
// further delegations to narrower zones until it gets a terminal
// classification (Answer, Alias or NoDomain).
func (l *lookup) queryNameserversIteratively() (*nsOutcome, error) {
	candidates := l.nextNss
	visitedZones := append([]dnsmsg.Name{}, l.previousZones...)

	for {
		sorted := sortNameservers(candidates)
		if len(sorted) > l.r.conf.MaxNSQueried {
			sorted = sorted[:l.r.conf.MaxNSQueried]
		}

		outcome, zone, err := l.tryCandidates(sorted)
		if err != nil {
			return nil, err
		}
		if outcome.kind != kindDelegation {
			return outcome, nil
		}

		if containsZone(visitedZones, zone) {
			return nil, fmt.Errorf("%w: %s", ErrZonesLoop, zone)
		}
		visitedZones = append(visitedZones, zone)
		l.cacheDelegation(outcome.nextNss)
		candidates = outcome.nextNss
	}
}

func (l *lookup) tryCandidates(candidates []NextSubzoneNs) (*nsOutcome, dnsmsg.Name, error) {
	var firstErr error
	for _, cand := range candidates {
		addr, err := l.addressFor(cand)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		resp, err := l.askNameserver(cand, addr)
		if err != nil {
			l.trace.NSError(err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		outcome, err := classifyResponse(resp, l.searchedNode, l.searchedType, cand.Zone())
		if err != nil {
			l.trace.NSError(err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		l.traceOutcome(outcome)
		return outcome, cand.Zone(), nil
	}

	if firstErr == nil {
		firstErr = ErrUnexpectedEmptyResp
	}
	return nil, dnsmsg.Root, firstErr
}

func (l *lookup) traceOutcome(o *nsOutcome) {
	switch o.kind {
	case kindAnswer:
		l.trace.NSAnswer(o.answers, o.additionals)
	case kindAlias:
		l.trace.NSAlias(o.cname, flattenNS(o.nextNss))
	case kindNoDomain:
		l.trace.NSNoDomain(o.soa)
	case kindDelegation:
		l.trace.NSDelegation(flattenNS(o.nextNss))
	}
}

func flattenNS(nss []NextSubzoneNs) []*dnsmsg.Record {
	out := make([]*dnsmsg.Record, len(nss))
	for i, n := range nss {
		out[i] = n.NSRecord
	}
	return out
}

func (l *lookup) addressFor(cand NextSubzoneNs) (dnsmsg.Addr4, error) {
	if addrs := cand.Addrs(); len(addrs) > 0 {
		return addrs[0], nil
	}
	return l.resolveNSAddress(cand)
}

// resolveNSAddress finds an address for a nameserver with no glue, as a
// nested lookup that is not allowed to follow CNAMEs.
func (l *lookup) resolveNSAddress(cand NextSubzoneNs) (dnsmsg.Addr4, error) {
	node := cand.Node()
	sub := &lookup{
		r:             l.r,
		searchedNode:  node,
		searchedType:  dnsmsg.TypeA,
		previousZones: append(append([]dnsmsg.Name{}, l.previousZones...), cand.Zone()),
		noFollowCname: true,
		visited:       []dnsmsg.Name{node},
		trace:         l.trace.CloneEmpty(),
	}
	res, err := sub.perform()
	l.trace.AddSubTrace(sub.trace)
	if err != nil {
		return dnsmsg.Addr4{}, &SubLookupError{Node: node, Err: err}
	}
	if len(res.Answers) == 0 {
		return dnsmsg.Addr4{}, &SubLookupError{Node: node, Err: ErrUnexpectedEmptyResp}
	}
	return res.Answers[0].A, nil
}

func (l *lookup) askNameserver(cand NextSubzoneNs, addr dnsmsg.Addr4) (*dnsmsg.Message, error) {
	l.trace.NSRequest(l.searchedNode, l.searchedType, cand.Node(), cand.Zone())
	server := net.JoinHostPort(addr.String(), "53")
	resp, err := l.r.queryFn(server, l.searchedNode, l.searchedType)
	if err != nil {
		return nil, err
	}
	l.trace.RawResponse(resp)
	return resp, nil
}

// cacheDelegation stores every NS record and accompanying A glue record
// from a delegation, grouped by (name, type) since a referral can name
// more than one nameserver.
func (l *lookup) cacheDelegation(nss []NextSubzoneNs) {
	var all []*dnsmsg.Record
	for _, n := range nss {
		all = append(all, n.NSRecord)
		all = append(all, n.ARecords...)
	}
	l.cacheRecords(all)
}

func (l *lookup) cacheRecords(recs []*dnsmsg.Record) {
	type key struct {
		name dnsmsg.Name
		typ  dnsmsg.RecordType
	}
	groups := make(map[key][]*dnsmsg.Record)
	for _, r := range recs {
		k := key{r.Name, r.Type}
		groups[k] = append(groups[k], r)
	}
	for _, g := range groups {
		l.r.cache.Set(g)
	}
}

func containsZone(zones []dnsmsg.Name, z dnsmsg.Name) bool {
	for _, v := range zones {
		if v == z {
			return true
		}
	}
	return false
}

// sortNameservers prefers candidates with a known address, so glued NS
// records are tried before ones that would need a nested lookup.
func sortNameservers(in []NextSubzoneNs) []NextSubzoneNs {
	out := make([]NextSubzoneNs, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Addrs()) > len(out[j].Addrs())
	})
	return out
}
