// Package config loads the indexer settings from an optional TOML or YAML
// file. A TOML file looks like
//
//	database = "spaces.db"
//
//	[ipfs]
//	gateway = "https://ipfs.io"
//	timeout = "30s"
//	kubo_bin = "ipfs"
//	dir = "/var/lib/spaceindex/ipfs"
//	cache = true
//
//	[rpc]
//	url = "http://localhost:8545"
//
//	[strategies]
//	"0xc3031a7d3326e47d49bff9d374d74f364b29ce4d" = "SimpleQuorumAvatar"
//	"0x00000000000000000000000000000000000005ac" = "Space"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDatabase    = "spaces.db"
	DefaultGateway     = "https://ipfs.io"
	DefaultIPFSTimeout = 30 * time.Second
	DefaultRPCURL      = "http://localhost:8545"
)

var ErrInvalidConfig = errors.New("invalid config")

// Duration is a time.Duration that decodes from TOML strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

type IPFS struct {
	// Gateway is the base URL of an HTTP gateway. Empty disables it.
	Gateway string   `toml:"gateway" yaml:"gateway"`
	Timeout Duration `toml:"timeout" yaml:"timeout"`
	// KuboBin is the path of a local ipfs binary. Empty disables it.
	KuboBin string `toml:"kubo_bin" yaml:"kubo_bin"`
	// Dir is an offline document directory consulted before the network.
	Dir string `toml:"dir" yaml:"dir"`
	// Cache stores fetched documents in the database.
	Cache bool `toml:"cache" yaml:"cache"`
}

type RPC struct {
	URL string `toml:"url" yaml:"url"`
}

type Config struct {
	Database string `toml:"database" yaml:"database"`
	IPFS     IPFS   `toml:"ipfs" yaml:"ipfs"`
	RPC      RPC    `toml:"rpc" yaml:"rpc"`

	// Strategies maps proxy implementation addresses to the execution
	// strategy type of their proxies, or to "Space".
	Strategies map[string]string `toml:"strategies" yaml:"strategies"`
}

func Default() *Config {
	return &Config{
		Database: DefaultDatabase,
		IPFS: IPFS{
			Gateway: DefaultGateway,
			Timeout: Duration{DefaultIPFSTimeout},
			Cache:   true,
		},
		RPC:        RPC{URL: DefaultRPCURL},
		Strategies: map[string]string{},
	}
}

// Load reads path on top of the defaults. Files ending in .yaml or .yml are
// decoded as YAML, anything else as TOML. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	default:
		err = decodeTOML(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if cfg.Strategies == nil {
		cfg.Strategies = map[string]string{}
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func decodeTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("%w: unknown keys: %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(cfg)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Database == "" {
		errs = append(errs, fmt.Errorf("%w: database must be set", ErrInvalidConfig))
	}

	if c.IPFS.Gateway != "" {
		u, err := url.Parse(c.IPFS.Gateway)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%w: ipfs gateway %q is not an http(s) url", ErrInvalidConfig, c.IPFS.Gateway))
		}
	}

	if c.IPFS.Timeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("%w: ipfs timeout must not be negative", ErrInvalidConfig))
	}

	for addr, typ := range c.Strategies {
		if !common.IsHexAddress(addr) {
			errs = append(errs, fmt.Errorf("%w: strategy implementation %q is not an address", ErrInvalidConfig, addr))
		}
		if typ == "" {
			errs = append(errs, fmt.Errorf("%w: strategy implementation %s has no type", ErrInvalidConfig, addr))
		}
	}

	return errors.Join(errs...)
}

// Implementations returns the strategies map keyed by address.
func (c *Config) Implementations() map[common.Address]string {
	out := make(map[common.Address]string, len(c.Strategies))
	for addr, typ := range c.Strategies {
		out[common.HexToAddress(addr)] = typ
	}
	return out
}
