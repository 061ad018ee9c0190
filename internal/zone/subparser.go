package zone

import "github.com/poyrazK/dnscore/internal/dnsmsg"

// ParseSubZone parses src as a sub-zone rooted at zoneTop: no directives, no
// SOA, only NS and A records accepted. startingTTL seeds the TTL carried
// between records; minTTL is enforced per record.
func ParseSubZone(src string, zoneTop dnsmsg.Name, startingTTL, minTTL uint32) (*Zone, error) {
	p := &Parser{
		tz:         NewTokenizer(src),
		origin:     zoneTop,
		zoneTop:    zoneTop,
		currentTTL: startingTTL,
		minTTL:     minTTL,
		sawFirst:   true, // sub-zones have no SOA-first rule
	}
	z := NewZone(zoneTop)
	if err := p.run(z, true); err != nil {
		return nil, err
	}
	return z, nil
}
