// Package config loads and validates the server/client configuration file.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds the full set of recognized configuration options. Any
// key in the YAML document that doesn't map to one of these fields is
// rejected at load time.
type Config struct {
	AETitle                  string            `yaml:"aeTitle" validate:"required,min=1,max=16,ascii"`
	Port                     int               `yaml:"port" validate:"required,min=1,max=65535"`
	DataDirectory            string            `yaml:"dataDirectory" validate:"required"`
	MaxConcurrentConnections int               `yaml:"maxConcurrentConnections" validate:"required,min=1"`
	MaxPDULength             int               `yaml:"maxPDULength" validate:"required,min=4096"`
	AllowedCallingAETitles   []string          `yaml:"allowedCallingAETitles"`
	BlockedCallingAETitles   []string          `yaml:"blockedCallingAETitles"`
	MoveDestinations         map[string]string `yaml:"moveDestinations"` // AE Title -> "host:port"
	Verbose                  bool              `yaml:"verbose"`
}

var validate = validator.New()

// Load reads and validates a YAML configuration file at path. Unknown
// keys in the document are rejected, matching the spec's "all other
// keys rejected" requirement.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes raw YAML bytes into a Config.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// IsCallerAllowed reports whether callingAE may establish an
// association, applying the allow-list (if non-empty, only listed
// titles pass) then the block-list (listed titles are always denied,
// even if also allow-listed).
func (c *Config) IsCallerAllowed(callingAE string) bool {
	for _, blocked := range c.BlockedCallingAETitles {
		if blocked == callingAE {
			return false
		}
	}
	if len(c.AllowedCallingAETitles) == 0 {
		return true
	}
	for _, allowed := range c.AllowedCallingAETitles {
		if allowed == callingAE {
			return true
		}
	}
	return false
}
