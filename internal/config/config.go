// Package config provides configuration loading for gts-validator.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation and environment parsing error.
var ErrInvalid = errors.New("invalid configuration")

// DefaultMaxFileSize mirrors the filesystem scanner's default limit.
const DefaultMaxFileSize int64 = 10 << 20

var vendorRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config represents the complete gts-validator configuration.
type Config struct {
	// Vendor, when set, requires every identifier to carry this vendor.
	Vendor string `yaml:"vendor"`
	// Paths are the scan roots. Empty means the default roots.
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
	// Strict narrows discovery to code regions and whole values.
	Strict     bool     `yaml:"strict"`
	ScanKeys   bool     `yaml:"scan_keys"`
	SkipTokens []string `yaml:"skip_tokens"`
	// MaxFileSize is in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`
	// FollowLinks is nil when unset, which follows links.
	FollowLinks *bool `yaml:"follow_links"`
	Workers     int   `yaml:"workers"`

	// Outputs are the files a run writes, such as the report and the
	// metrics textfile. They are never scanned or watched.
	Outputs []string `yaml:"-"`
}

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxFileSize: DefaultMaxFileSize,
		Workers:     1,
	}
}

// Follow reports whether symlinks are followed.
func (c *Config) Follow() bool {
	return c.FollowLinks == nil || *c.FollowLinks
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Vendor != "" && !vendorRegex.MatchString(c.Vendor) {
		return fmt.Errorf("%w: vendor %q must be a single name token", ErrInvalid, c.Vendor)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("%w: max_file_size must be positive", ErrInvalid)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1", ErrInvalid)
	}
	for _, p := range c.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: exclude pattern %q", ErrInvalid, p)
		}
	}
	return nil
}

// LoadFromFile reads a YAML config file. Keys absent from the file stay at
// their zero value so the result can be merged over another Config.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrInvalid, path, err)
	}
	return config, nil
}

// Merge overlays the set values of other onto c.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Vendor != "" {
		c.Vendor = other.Vendor
	}
	if len(other.Paths) > 0 {
		c.Paths = other.Paths
	}
	if len(other.Exclude) > 0 {
		c.Exclude = other.Exclude
	}
	if other.Strict {
		c.Strict = true
	}
	if other.ScanKeys {
		c.ScanKeys = true
	}
	if len(other.SkipTokens) > 0 {
		c.SkipTokens = other.SkipTokens
	}
	if other.MaxFileSize != 0 {
		c.MaxFileSize = other.MaxFileSize
	}
	if other.FollowLinks != nil {
		follow := *other.FollowLinks
		c.FollowLinks = &follow
	}
	if other.Workers != 0 {
		c.Workers = other.Workers
	}
}
