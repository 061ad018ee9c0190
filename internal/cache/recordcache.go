package cache

import (
	"time"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
	"github.com/poyrazK/dnscore/internal/metrics"
)

// RecordKey identifies a cached RRset: all records sharing a name and type.
type RecordKey struct {
	Name dnsmsg.Name
	Type dnsmsg.RecordType
}

// RecordCache caches RRsets keyed by (name, type). Every record in a stored
// set shares one expiry; the TTL on returned clones decays to the time
// remaining until that expiry rather than staying fixed at insertion value.
type RecordCache struct {
	c *Cache[RecordKey, []*dnsmsg.Record]
}

// NewRecordCache returns a RecordCache whose background sweep runs every
// cleanPeriod.
func NewRecordCache(cleanPeriod time.Duration) *RecordCache {
	return &RecordCache{c: New[RecordKey, []*dnsmsg.Record](cleanPeriod, cloneRecordSet)}
}

func cloneRecordSet(recs []*dnsmsg.Record) []*dnsmsg.Record {
	out := make([]*dnsmsg.Record, len(recs))
	for i, r := range recs {
		cp := *r
		out[i] = &cp
	}
	return out
}

// Get returns a clone of the cached RRset for (name, rt), with each
// record's TTL rewritten to the seconds remaining until expiry.
func (rc *RecordCache) Get(name dnsmsg.Name, rt dnsmsg.RecordType) ([]*dnsmsg.Record, bool) {
	recs, expiresAt, ok := rc.c.GetCloneWithExpiry(RecordKey{Name: name, Type: rt})
	if !ok {
		metrics.CacheOperations.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.CacheOperations.WithLabelValues("hit").Inc()
	remaining := time.Until(expiresAt)
	if remaining < 0 {
		remaining = 0
	}
	ttl := uint32(remaining / time.Second)
	for _, r := range recs {
		r.TTL = ttl
	}
	return recs, true
}

// Set stores recs as a single RRset under its shared (name, type) key. The
// set's TTL is the minimum TTL among the inserted records. Set is a no-op
// on an empty slice.
func (rc *RecordCache) Set(recs []*dnsmsg.Record) {
	if len(recs) == 0 {
		return
	}
	name, rt := recs[0].Name, recs[0].Type
	minTTL := recs[0].TTL
	for _, r := range recs[1:] {
		if r.TTL < minTTL {
			minTTL = r.TTL
		}
	}
	key := RecordKey{Name: name, Type: rt}
	rc.c.Set(key, time.Duration(minTTL)*time.Second, cloneRecordSet(recs))
}

// Remove deletes the RRset for (name, rt).
func (rc *RecordCache) Remove(name dnsmsg.Name, rt dnsmsg.RecordType) {
	rc.c.Remove(RecordKey{Name: name, Type: rt})
}

// Stop terminates the background sweep goroutine.
func (rc *RecordCache) Stop() {
	rc.c.Stop()
}

// Len reports the number of cached RRsets.
func (rc *RecordCache) Len() int {
	return rc.c.Len()
}
