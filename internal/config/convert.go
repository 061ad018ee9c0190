package config

import (
	"time"

	"github.com/poyrazK/dnscore/internal/resolver"
	"github.com/poyrazK/dnscore/internal/trace"
	"github.com/poyrazK/dnscore/internal/transport"
)

// ToTransportUDPConfig converts the on-disk seconds-based fields into the
// transport package's time.Duration-based config.
func (c UDPServerConf) ToTransportUDPConfig() transport.UDPConfig {
	return transport.UDPConfig{
		Address:      c.Address,
		Port:         int(c.Port),
		WriteTimeout: time.Duration(c.WriteTimeoutSecs) * time.Second,
		Threads:      c.Threads,
	}
}

// ToTransportTCPConfig converts the on-disk seconds-based fields into the
// transport package's time.Duration-based config.
func (c TCPServerConf) ToTransportTCPConfig() transport.TCPConfig {
	return transport.TCPConfig{
		Address:      c.Address,
		Port:         int(c.Port),
		ReadTimeout:  time.Duration(c.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(c.WriteTimeoutSecs) * time.Second,
		Threads:      c.Threads,
	}
}

// ToResolverConfig converts the resolver's algorithm bounds into
// internal/resolver's Config.
func (c ResolverConf) ToResolverConfig() resolver.Config {
	return resolver.Config{
		MaxNSQueried:  c.MaxNSQueried,
		MaxNSRetries:  c.MaxNSRetries,
		MaxCnameRedir: c.MaxCnameRedir,
		ReadTimeout:   time.Duration(c.ReadTimeoutSecs) * time.Second,
		WriteTimeout:  time.Duration(c.WriteTimeoutSecs) * time.Second,
	}
}

// CleanPeriod is how often the record cache's background sweep runs.
func (c CacheConf) CleanPeriod() time.Duration {
	return time.Duration(c.CleanPeriodSecs) * time.Second
}

// ToTraceParams converts the silent/verbose collection knobs into
// internal/trace's Params. Color is rendering-only and lives with
// cmd/resolver, not in the collected Trace itself.
func (c TraceConf) ToTraceParams() trace.Params {
	return trace.Params{Silent: c.Silent, Verbose: c.Verbose}
}
