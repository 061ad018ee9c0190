package transport

import "github.com/poyrazK/dnscore/internal/dnsmsg"

// Handler answers one decoded request with a response message. It never
// returns an error: rcode is how a handler reports failure on the wire.
// Both internal/authority.Handler.Handle and a resolver-backed closure
// composing internal/resolver.Lookup results satisfy this signature.
type Handler func(req *dnsmsg.Message) *dnsmsg.Message
