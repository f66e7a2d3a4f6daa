package server

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/craft-balancer/internal/config"
	"github.com/iwvelando/craft-balancer/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config holds the balancer API server settings.
type Config struct {
	Address         string               `yaml:"address"`
	MaxBodySize     ByteSize             `yaml:"maxBodySize"`
	RateLimit       float64              `yaml:"rateLimit"`
	RateLimitBurst  int                  `yaml:"rateLimitBurst"`
	ShutdownTimeout time.Duration        `yaml:"shutdownTimeout"`
	Logging         config.LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns the server defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads the server settings from a YAML file. An empty path or a
// missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read server config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse server config: %w", err)
			}
		}
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills every unset or non-positive setting.
func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Address) == "" {
		c.Address = constants.DefaultServerAddress
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = constants.DefaultMaxBodySize
	}
	if c.RateLimit <= 0 {
		c.RateLimit = constants.DefaultRateLimit
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = constants.DefaultRateLimitBurst
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = constants.DefaultShutdownTimeout
	}
}

// ByteSize is a request body limit in bytes. In YAML it accepts a plain
// integer or a K/KB/M/MB suffixed value such as "256K".
type ByteSize int64

var byteUnits = map[string]ByteSize{
	"":   1,
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *ByteSize) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseByteSize(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*s = parsed
	return nil
}

func (s ByteSize) String() string {
	return strconv.FormatInt(int64(s), 10) + "B"
}

// ParseByteSize converts "512", "256K" or "2MB" into a ByteSize. Request
// bodies are JSON documents, so units stop at megabytes.
func ParseByteSize(value string) (ByteSize, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(value))
	split := strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' })
	if split < 0 {
		split = len(trimmed)
	}
	if split == 0 {
		return 0, fmt.Errorf("invalid body size %q", value)
	}

	n, err := strconv.ParseInt(trimmed[:split], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid body size %q: %w", value, err)
	}
	unit, ok := byteUnits[strings.TrimSpace(trimmed[split:])]
	if !ok {
		return 0, fmt.Errorf("unsupported body size unit in %q", value)
	}
	if n > int64(^uint64(0)>>1)/int64(unit) {
		return 0, fmt.Errorf("body size %q overflows", value)
	}
	return ByteSize(n) * unit, nil
}
