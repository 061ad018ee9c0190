package resolver

import (
	"fmt"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

type outcomeKind int

const (
	kindAnswer outcomeKind = iota
	kindAlias
	kindNoDomain
	kindDelegation
)

// nsOutcome is the classified shape of one nameserver reply, per the four
// cases a well-formed answer to a (node, type) query can take.
type nsOutcome struct {
	answers     []*dnsmsg.Record
	additionals []*dnsmsg.Record
	cname       *dnsmsg.Record
	soa         *dnsmsg.Record
	nextNss     []NextSubzoneNs
	kind        outcomeKind
}

// classifyResponse sorts a nameserver's reply into NoDomain, Answer, Alias
// or Delegation, in that precedence. zone is the zone the queried
// nameserver is authoritative over, used to make sure a delegation actually
// moves the search deeper rather than pointing back at itself.
func classifyResponse(resp *dnsmsg.Message, node dnsmsg.Name, rt dnsmsg.RecordType, zone dnsmsg.Name) (*nsOutcome, error) {
	if resp.Header.RCode == dnsmsg.RCodeNxDomain && resp.Header.AA {
		return &nsOutcome{kind: kindNoDomain, soa: findSOA(resp.Authorities)}, nil
	}
	if resp.Header.RCode != dnsmsg.RCodeNoError {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedRespCode, resp.Header.RCode)
	}

	if answers := extractAnswers(resp.Answers, node, rt); len(answers) > 0 {
		return &nsOutcome{kind: kindAnswer, answers: answers, additionals: resp.Additionals}, nil
	}

	if cname := findRecord(resp.Answers, node, dnsmsg.TypeCNAME); cname != nil {
		return &nsOutcome{kind: kindAlias, cname: cname, nextNss: extractNextNssForCname(resp, cname.Host)}, nil
	}

	if nss := delegationNss(resp, node, zone); len(nss) > 0 {
		return &nsOutcome{kind: kindDelegation, nextNss: nss}, nil
	}

	return nil, ErrUnexpectedEmptyResp
}

func extractAnswers(recs []*dnsmsg.Record, node dnsmsg.Name, rt dnsmsg.RecordType) []*dnsmsg.Record {
	var out []*dnsmsg.Record
	for _, r := range recs {
		if r.Name == node && r.Type == rt {
			out = append(out, r)
		}
	}
	return out
}

func findRecord(recs []*dnsmsg.Record, node dnsmsg.Name, rt dnsmsg.RecordType) *dnsmsg.Record {
	for _, r := range recs {
		if r.Name == node && r.Type == rt {
			return r
		}
	}
	return nil
}

func findSOA(recs []*dnsmsg.Record) *dnsmsg.Record {
	return findRecordOfType(recs, dnsmsg.TypeSOA)
}

func findRecordOfType(recs []*dnsmsg.Record, rt dnsmsg.RecordType) *dnsmsg.Record {
	for _, r := range recs {
		if r.Type == rt {
			return r
		}
	}
	return nil
}

func collectGlue(recs []*dnsmsg.Record, host dnsmsg.Name) []*dnsmsg.Record {
	var out []*dnsmsg.Record
	for _, r := range recs {
		if r.Type == dnsmsg.TypeA && r.Name == host {
			out = append(out, r)
		}
	}
	return out
}

// extractNextNssForCname gathers the authority-section NS records that are
// authoritative over a CNAME's target, with whatever glue accompanies them.
func extractNextNssForCname(resp *dnsmsg.Message, target dnsmsg.Name) []NextSubzoneNs {
	var out []NextSubzoneNs
	for _, ns := range resp.Authorities {
		if ns.Type != dnsmsg.TypeNS || !target.IsInZone(ns.Name) {
			continue
		}
		out = append(out, NextSubzoneNs{NSRecord: ns, ARecords: collectGlue(resp.Additionals, ns.Host)})
	}
	return out
}

// delegationNss extracts the NS records in the authority section that
// narrow the search for node into a sub-zone strictly deeper than zone,
// discarding any NS whose own host sits inside that sub-zone without a
// glue record to resolve it (it would be unreachable).
func delegationNss(resp *dnsmsg.Message, node, zone dnsmsg.Name) []NextSubzoneNs {
	var out []NextSubzoneNs
	for _, ns := range resp.Authorities {
		if ns.Type != dnsmsg.TypeNS {
			continue
		}
		if !node.IsInZone(ns.Name) || len(string(ns.Name)) <= len(string(zone)) {
			continue
		}
		glue := collectGlue(resp.Additionals, ns.Host)
		if len(glue) == 0 && ns.Host.IsInZone(ns.Name) {
			continue
		}
		out = append(out, NextSubzoneNs{NSRecord: ns, ARecords: glue})
	}
	return out
}
