// Package config loads and validates the on-disk JSON configuration for
// both binaries. A config file that fails to parse or fails validation is
// a startup error: callers are expected to log it and exit(1), never to
// fall back to defaults for a file the operator explicitly pointed at.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/poyrazK/dnscore/internal/dnsmsg"
)

// UDPServerConf configures one UDP front-end.
type UDPServerConf struct {
	Address          string `json:"address"`
	Port             uint16 `json:"port"`
	WriteTimeoutSecs uint64 `json:"write_timeout_secs"`
	Threads          int    `json:"threads"`
}

// TCPServerConf configures one TCP front-end.
type TCPServerConf struct {
	Address          string `json:"address"`
	Port             uint16 `json:"port"`
	ReadTimeoutSecs  uint64 `json:"read_timeout_secs"`
	WriteTimeoutSecs uint64 `json:"write_timeout_secs"`
	Threads          int    `json:"threads"`
}

func (c UDPServerConf) validate() error {
	if net.ParseIP(c.Address) == nil {
		return fmt.Errorf("invalid udp_server address %q", c.Address)
	}
	if c.WriteTimeoutSecs == 0 {
		return fmt.Errorf("invalid udp_server write_timeout_secs: cannot be 0")
	}
	if c.Threads <= 0 {
		return fmt.Errorf("invalid udp_server threads: cannot be %d", c.Threads)
	}
	return nil
}

func (c TCPServerConf) validate() error {
	if net.ParseIP(c.Address) == nil {
		return fmt.Errorf("invalid tcp_server address %q", c.Address)
	}
	if c.ReadTimeoutSecs == 0 {
		return fmt.Errorf("invalid tcp_server read_timeout_secs: cannot be 0")
	}
	if c.WriteTimeoutSecs == 0 {
		return fmt.Errorf("invalid tcp_server write_timeout_secs: cannot be 0")
	}
	if c.Threads <= 0 {
		return fmt.Errorf("invalid tcp_server threads: cannot be %d", c.Threads)
	}
	return nil
}

func readAndUnmarshal(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func validateZoneName(field, name string) error {
	if _, err := dnsmsg.NewName(name); err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, name, err)
	}
	return nil
}
