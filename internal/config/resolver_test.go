package config

import (
	"testing"
	"time"
)

const validResolverConfig = `{
  "log_level": "DEBUG",
  "udp_server": {"address": "0.0.0.0", "port": 53, "write_timeout_secs": 2, "threads": 8},
  "tcp_server": {"address": "0.0.0.0", "port": 53, "read_timeout_secs": 5, "write_timeout_secs": 5, "threads": 8},
  "resolver": {
    "max_ns_queried": 3,
    "max_ns_retries": 3,
    "max_cname_redir": 10,
    "read_timeout_secs": 2,
    "write_timeout_secs": 2,
    "cache_conf": {"clean_period_secs": 300, "entries_cleaned": 1000},
    "trace_conf": {"silent": false, "verbose": true, "color": true}
  }
}`

func TestLoadResolverConfigValid(t *testing.T) {
	path := writeConfig(t, validResolverConfig)
	c, err := LoadResolverConfig(path)
	if err != nil {
		t.Fatalf("LoadResolverConfig: %v", err)
	}
	if c.Resolver.MaxCnameRedir != 10 {
		t.Fatalf("unexpected max_cname_redir: %d", c.Resolver.MaxCnameRedir)
	}

	rc := c.Resolver.ToResolverConfig()
	if rc.MaxNSQueried != 3 || rc.ReadTimeout != 2*time.Second {
		t.Fatalf("unexpected converted resolver config: %+v", rc)
	}

	tp := c.Resolver.TraceConf.ToTraceParams()
	if !tp.Verbose || tp.Silent {
		t.Fatalf("unexpected trace params: %+v", tp)
	}

	if got := c.Resolver.CacheConf.CleanPeriod(); got != 300*time.Second {
		t.Fatalf("unexpected clean period: %v", got)
	}

	udp := c.UDPServer.ToTransportUDPConfig()
	if udp.Port != 53 || udp.WriteTimeout != 2*time.Second || udp.Threads != 8 {
		t.Fatalf("unexpected converted udp config: %+v", udp)
	}
}

func TestLoadResolverConfigRejectsZeroMaxCnameRedir(t *testing.T) {
	path := writeConfig(t, `{
  "udp_server": {"address": "0.0.0.0", "port": 53, "write_timeout_secs": 2, "threads": 8},
  "tcp_server": {"address": "0.0.0.0", "port": 53, "read_timeout_secs": 5, "write_timeout_secs": 5, "threads": 8},
  "resolver": {
    "max_ns_queried": 3, "max_ns_retries": 3, "max_cname_redir": 0,
    "read_timeout_secs": 2, "write_timeout_secs": 2,
    "cache_conf": {"clean_period_secs": 300, "entries_cleaned": 1000},
    "trace_conf": {}
  }
}`)
	if _, err := LoadResolverConfig(path); err == nil {
		t.Fatal("expected error for zero max_cname_redir")
	}
}

func TestLoadResolverConfigRejectsZeroCacheCleanPeriod(t *testing.T) {
	path := writeConfig(t, `{
  "udp_server": {"address": "0.0.0.0", "port": 53, "write_timeout_secs": 2, "threads": 8},
  "tcp_server": {"address": "0.0.0.0", "port": 53, "read_timeout_secs": 5, "write_timeout_secs": 5, "threads": 8},
  "resolver": {
    "max_ns_queried": 3, "max_ns_retries": 3, "max_cname_redir": 10,
    "read_timeout_secs": 2, "write_timeout_secs": 2,
    "cache_conf": {"clean_period_secs": 0, "entries_cleaned": 1000},
    "trace_conf": {}
  }
}`)
	if _, err := LoadResolverConfig(path); err == nil {
		t.Fatal("expected error for zero clean_period_secs")
	}
}
