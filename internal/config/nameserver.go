package config

import (
	"fmt"
	"log/slog"
)

// NameserverConfig is the on-disk shape of a nameserver's config file.
type NameserverConfig struct {
	LogLevel  slog.Level    `json:"log_level"`
	UDPServer UDPServerConf `json:"udp_server"`
	TCPServer TCPServerConf `json:"tcp_server"`
	Zone      ZoneConf      `json:"zone"`
}

// ZoneConf is the top-level authoritative zone this nameserver loads at
// startup, plus any delegated sub-zones served out of the same process.
type ZoneConf struct {
	StartingTTL uint32         `json:"starting_ttl"`
	Zone        string         `json:"zone"`
	File        string         `json:"file"`
	SubZones    []SubZoneConf  `json:"sub_zones"`
}

// SubZoneConf is a delegated sub-zone: its own file, its own starting TTL,
// and a minimum TTL below which a record in that file fails to parse.
type SubZoneConf struct {
	StartingTTL uint32 `json:"starting_ttl"`
	MinTTL      uint32 `json:"min_ttl"`
	Zone        string `json:"zone"`
	File        string `json:"file"`
}

// LoadNameserverConfig reads, parses, and validates path. A non-nil error
// means the file is unusable as-is; there is no partial/default fallback.
func LoadNameserverConfig(path string) (*NameserverConfig, error) {
	var c NameserverConfig
	if err := readAndUnmarshal(path, &c); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *NameserverConfig) validate() error {
	if err := c.UDPServer.validate(); err != nil {
		return err
	}
	if err := c.TCPServer.validate(); err != nil {
		return err
	}
	if err := validateZoneName("zone.zone", c.Zone.Zone); err != nil {
		return err
	}
	for i, sz := range c.Zone.SubZones {
		if err := validateZoneName(fmt.Sprintf("zone.sub_zones[%d].zone", i), sz.Zone); err != nil {
			return err
		}
	}
	return nil
}
