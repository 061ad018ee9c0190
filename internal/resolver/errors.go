package resolver

import (
	"errors"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

// Sentinel lookup-failure causes. Callers compare with errors.Is; a
// SubLookupError wraps one of these from a nested NS-address resolution.
var (
	ErrUnexpectedRespCode = errors.New("resolver: nameserver returned an unexpected response code")
	ErrUnexpectedEmptyResp = errors.New("resolver: nameserver response had no answer, alias, or delegation")
	ErrMalformedResp       = errors.New("resolver: malformed nameserver response")
	ErrZonesLoop           = errors.New("resolver: zone already visited during this lookup")
	ErrCnamesLoop          = errors.New("resolver: cname target already visited during this lookup")
	ErrUnexpectedCname     = errors.New("resolver: unexpected cname in a nameserver-address lookup")
	ErrMaxCnameRedir       = errors.New("resolver: exceeded the maximum number of cname redirections")
)

// SubLookupError wraps a failure that occurred while resolving a
// nameserver's own address as a nested lookup.
type SubLookupError struct {
	Node dnsmsg.Name
	Err  error
}

func (e *SubLookupError) Error() string {
	return "resolver: resolving address of nameserver " + string(e.Node) + ": " + e.Err.Error()
}

func (e *SubLookupError) Unwrap() error { return e.Err }
