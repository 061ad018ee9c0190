package zone

import (
	"errors"
	"fmt"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

// Errors reported by Zone/ManagedZone construction and validation.
var (
	ErrEmptyBucket      = errors.New("zone: record bucket must be non-empty")
	ErrNoTopNS          = errors.New("zone: zone has no NS record at its own top")
	ErrSubZoneBadType   = errors.New("zone: sub-zone record is neither NS nor A")
	ErrMissingGlue      = errors.New("zone: NS target inside a sub-zone has no A glue record")
	ErrOrphanGlue       = errors.New("zone: A record in a sub-zone does not correspond to any NS target")
	ErrNameNotInZone    = errors.New("zone: name is not inside this zone")
	ErrNameNotZoneRoot  = errors.New("zone: name is not this zone's own top node")
)

// Zone maps Name -> RecordType -> non-empty ordered record list, per §3.
type Zone struct {
	Top     dnsmsg.Name
	records map[dnsmsg.Name]map[dnsmsg.RecordType][]*dnsmsg.Record
}

// NewZone returns an empty Zone rooted at top.
func NewZone(top dnsmsg.Name) *Zone {
	return &Zone{Top: top, records: make(map[dnsmsg.Name]map[dnsmsg.RecordType][]*dnsmsg.Record)}
}

// Add appends r to its (Name, Type) bucket.
func (z *Zone) Add(r *dnsmsg.Record) {
	byType, ok := z.records[r.Name]
	if !ok {
		byType = make(map[dnsmsg.RecordType][]*dnsmsg.Record)
		z.records[r.Name] = byType
	}
	byType[r.Type] = append(byType[r.Type], r)
}

// Lookup returns the record bucket for (name, rt), if any.
func (z *Zone) Lookup(name dnsmsg.Name, rt dnsmsg.RecordType) ([]*dnsmsg.Record, bool) {
	byType, ok := z.records[name]
	if !ok {
		return nil, false
	}
	recs, ok := byType[rt]
	return recs, ok
}

// LookupAny returns every record bucket stored at name.
func (z *Zone) LookupAny(name dnsmsg.Name) (map[dnsmsg.RecordType][]*dnsmsg.Record, bool) {
	byType, ok := z.records[name]
	return byType, ok
}

// All iterates every record across every name and type.
func (z *Zone) All(fn func(*dnsmsg.Record)) {
	for _, byType := range z.records {
		for _, recs := range byType {
			for _, r := range recs {
				fn(r)
			}
		}
	}
}

// NSRecordsAt returns the NS records owned by name.
func (z *Zone) NSRecordsAt(name dnsmsg.Name) []*dnsmsg.Record {
	recs, _ := z.Lookup(name, dnsmsg.TypeNS)
	return recs
}

// validateBuckets enforces the §3 zone invariant: no empty bucket, and
// every record in a bucket belongs there.
func (z *Zone) validateBuckets() error {
	for name, byType := range z.records {
		for rt, recs := range byType {
			if len(recs) == 0 {
				return ErrEmptyBucket
			}
			for _, r := range recs {
				if r.Name != name || r.Type != rt {
					return ErrEmptyBucket
				}
			}
		}
	}
	return nil
}

// ManagedZone is one authoritative Zone plus its ordered sub-zones.
type ManagedZone struct {
	Auth     *Zone
	SubZones []*Zone
}

// SubZoneFor returns the sub-zone whose top name is a zone-ancestor of (or
// equal to) name, preferring the most specific (longest) match.
func (m *ManagedZone) SubZoneFor(name dnsmsg.Name) *Zone {
	var best *Zone
	for _, sz := range m.SubZones {
		if name.IsInZone(sz.Top) {
			if best == nil || len(string(sz.Top)) > len(string(best.Top)) {
				best = sz
			}
		}
	}
	return best
}

// Validate enforces the ManagedZone invariants from §3.
func (m *ManagedZone) Validate() error {
	if err := m.Auth.validateBuckets(); err != nil {
		return err
	}
	if len(m.Auth.NSRecordsAt(m.Auth.Top)) == 0 {
		return fmt.Errorf("%w: %s", ErrNoTopNS, m.Auth.Top)
	}

	for _, sz := range m.SubZones {
		if err := sz.validateBuckets(); err != nil {
			return err
		}
		if len(sz.NSRecordsAt(sz.Top)) == 0 {
			return fmt.Errorf("%w: %s", ErrNoTopNS, sz.Top)
		}

		nsTargets := make(map[dnsmsg.Name]bool)
		aOwners := make(map[dnsmsg.Name]bool)
		ok := true
		sz.All(func(r *dnsmsg.Record) {
			switch r.Type {
			case dnsmsg.TypeNS:
				nsTargets[r.Host] = true
			case dnsmsg.TypeA:
				aOwners[r.Name] = true
			default:
				ok = false
			}
		})
		if !ok {
			return ErrSubZoneBadType
		}

		for target := range nsTargets {
			if target.IsInZone(sz.Top) && !aOwners[target] {
				return fmt.Errorf("%w: %s", ErrMissingGlue, target)
			}
		}
		for owner := range aOwners {
			if !nsTargets[owner] {
				return fmt.Errorf("%w: %s", ErrOrphanGlue, owner)
			}
		}
	}
	return nil
}
