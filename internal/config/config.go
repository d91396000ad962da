package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Config holds server configuration values.
type Config struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port" validate:"min=0,max=65535"`

	// HTTPAddr serves the status API and the WebSocket bridge; empty disables it.
	HTTPAddr string `mapstructure:"http_addr" yaml:"http_addr"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// DatabasePath enables the presence journal; empty disables it.
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	// TripSalt keys the trip and ihash digests. It must stay private and stable:
	// anyone who knows it can brute-force ihash values back to addresses.
	TripSalt string `mapstructure:"trip_salt" yaml:"trip_salt" validate:"required,max=64"`

	MaxFrameBytes    int    `mapstructure:"max_frame_bytes" yaml:"max_frame_bytes" validate:"min=64"`
	OutboundBuffer   int    `mapstructure:"outbound_buffer" yaml:"outbound_buffer" validate:"min=1"`
	CommentRateLimit int    `mapstructure:"comment_rate_limit" yaml:"comment_rate_limit" validate:"min=0"`
	PolicyResponse   string `mapstructure:"policy_response" yaml:"policy_response"`

	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Default returns configuration with reasonable starter defaults.
// TripSalt is left empty; Load fills it from the config file or generates one.
func Default() Config {
	return Config{
		Host:              "localhost",
		Port:              9095,
		HTTPAddr:          "",
		LogLevel:          "info",
		DatabasePath:      "",
		MaxFrameBytes:     16 << 10,
		OutboundBuffer:    256,
		CommentRateLimit:  0,
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
	}
}

// Addr is the TCP listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate checks field ranges.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
}

const tripSaltBytes = 24

// NewTripSalt returns a random salt suitable for Config.TripSalt.
func NewTripSalt() (string, error) {
	buf := make([]byte, tripSaltBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate trip salt: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
