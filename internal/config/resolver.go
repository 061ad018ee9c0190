package config

import (
	"fmt"
	"log/slog"
)

// ResolverConfig is the on-disk shape of a resolver's config file.
type ResolverConfig struct {
	LogLevel  slog.Level    `json:"log_level"`
	UDPServer UDPServerConf `json:"udp_server"`
	TCPServer TCPServerConf `json:"tcp_server"`
	Resolver  ResolverConf  `json:"resolver"`
}

// ResolverConf bounds the recursive resolution algorithm itself, plus its
// cache and trace sub-configs.
type ResolverConf struct {
	MaxNSQueried     int       `json:"max_ns_queried"`
	MaxNSRetries     int       `json:"max_ns_retries"`
	MaxCnameRedir    int       `json:"max_cname_redir"`
	ReadTimeoutSecs  uint64    `json:"read_timeout_secs"`
	WriteTimeoutSecs uint64    `json:"write_timeout_secs"`
	CacheConf        CacheConf `json:"cache_conf"`
	TraceConf        TraceConf `json:"trace_conf"`
}

// CacheConf tunes the record cache's background expiry sweep.
type CacheConf struct {
	CleanPeriodSecs uint64 `json:"clean_period_secs"`
	EntriesCleaned  uint64 `json:"entries_cleaned"`
}

// TraceConf controls how much a lookup's trace records, and (in
// cmd/resolver's own rendering, not here) whether it's ANSI-colored.
type TraceConf struct {
	Silent  bool `json:"silent"`
	Verbose bool `json:"verbose"`
	Color   bool `json:"color"`
}

// LoadResolverConfig reads, parses, and validates path.
func LoadResolverConfig(path string) (*ResolverConfig, error) {
	var c ResolverConfig
	if err := readAndUnmarshal(path, &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *ResolverConfig) validate() error {
	if err := c.UDPServer.validate(); err != nil {
		return err
	}
	if err := c.TCPServer.validate(); err != nil {
		return err
	}

	r := c.Resolver
	if r.MaxNSQueried <= 0 {
		return fmt.Errorf("invalid resolver.max_ns_queried: cannot be %d", r.MaxNSQueried)
	}
	if r.MaxNSRetries <= 0 {
		return fmt.Errorf("invalid resolver.max_ns_retries: cannot be %d", r.MaxNSRetries)
	}
	if r.MaxCnameRedir <= 0 {
		return fmt.Errorf("invalid resolver.max_cname_redir: cannot be %d", r.MaxCnameRedir)
	}
	if r.ReadTimeoutSecs == 0 || r.WriteTimeoutSecs == 0 {
		return fmt.Errorf("invalid resolver read/write timeouts: cannot be 0")
	}
	if r.CacheConf.CleanPeriodSecs == 0 {
		return fmt.Errorf("invalid resolver.cache_conf.clean_period_secs: cannot be 0")
	}
	if r.CacheConf.EntriesCleaned == 0 {
		return fmt.Errorf("invalid resolver.cache_conf.entries_cleaned: cannot be 0")
	}
	return nil
}
