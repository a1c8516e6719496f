// Package config provides configuration types and loading for the searchd server.
package config

import (
	"fmt"

	"github.com/getsearchd/searchd/pkg/search"
)

// Default values applied by DefaultServerConfig and Normalize.
const (
	// DefaultPort is the TCP port the server binds when none is configured.
	DefaultPort = 44445
	// DefaultIdleTimeout is the per-session idle timeout in seconds.
	DefaultIdleTimeout = 15
	// DefaultAlgorithm is the search strategy used when none is configured.
	DefaultAlgorithm = "mmap"
	// DefaultBacklog is the listen backlog hint.
	DefaultBacklog = 5
)

// TLSConfig defines the mutual TLS transport settings.
// When Enabled, both endpoints must present certificates verifiable
// against CAFile or the handshake fails.
type TLSConfig struct {
	// Enabled turns on TLS for client connections.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// CertFile is the path to the PEM certificate presented to peers.
	CertFile string `json:"certFile,omitempty" yaml:"certFile,omitempty"`
	// KeyFile is the path to the PEM private key for CertFile.
	KeyFile string `json:"keyFile,omitempty" yaml:"keyFile,omitempty"`
	// CAFile is the path to the PEM CA bundle used to verify the peer.
	CAFile string `json:"caFile,omitempty" yaml:"caFile,omitempty"`
}

// MetricsConfig defines the optional Prometheus exposition endpoint.
type MetricsConfig struct {
	// Enabled starts an HTTP /metrics listener alongside the TCP server.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Port is the HTTP port for /metrics. Ignored unless Enabled.
	Port int `json:"port,omitempty" yaml:"port,omitempty"`
}

// LoggingConfig defines operational log output.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`
	// Format is the handler format: text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// ServerConfig is the full configuration consumed by the searchd server.
type ServerConfig struct {
	// Port is the TCP port to bind.
	Port int `json:"port" yaml:"port"`
	// FilePath is the text file queries are matched against.
	FilePath string `json:"filePath" yaml:"filePath"`
	// Algorithm selects the search strategy by name (see pkg/search).
	Algorithm string `json:"algorithm,omitempty" yaml:"algorithm,omitempty"`
	// RereadOnQuery forces strategies to reload the file on every query.
	RereadOnQuery bool `json:"rereadOnQuery" yaml:"rereadOnQuery"`
	// IdleTimeout is the per-session inactivity limit in seconds.
	IdleTimeout int `json:"idleTimeout,omitempty" yaml:"idleTimeout,omitempty"`
	// MaxConnections bounds concurrent sessions (0 = unlimited).
	MaxConnections int `json:"maxConnections,omitempty" yaml:"maxConnections,omitempty"`

	TLS     *TLSConfig     `json:"tls,omitempty" yaml:"tls,omitempty"`
	Metrics *MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Logging *LoggingConfig `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// DefaultServerConfig returns a ServerConfig with all defaults applied.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:        DefaultPort,
		Algorithm:   DefaultAlgorithm,
		IdleTimeout: DefaultIdleTimeout,
	}
}

// Normalize fills zero-valued fields with defaults.
func (c *ServerConfig) Normalize() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Algorithm == "" {
		c.Algorithm = DefaultAlgorithm
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
}

// Validate checks the configuration for values the server cannot start with.
func (c *ServerConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.FilePath == "" {
		return fmt.Errorf("%w: filePath is required", ErrInvalidConfig)
	}
	if c.Algorithm != "" && !search.Registered(c.Algorithm) {
		return fmt.Errorf("%w: unknown algorithm %q (valid: %v)",
			ErrInvalidConfig, c.Algorithm, search.Names())
	}
	if c.TLS != nil && c.TLS.Enabled {
		switch {
		case c.TLS.CertFile == "":
			return fmt.Errorf("%w: tls.certFile is required when TLS is enabled", ErrInvalidConfig)
		case c.TLS.KeyFile == "":
			return fmt.Errorf("%w: tls.keyFile is required when TLS is enabled", ErrInvalidConfig)
		case c.TLS.CAFile == "":
			return fmt.Errorf("%w: tls.caFile is required when TLS is enabled", ErrInvalidConfig)
		}
	}
	return nil
}

// TLSEnabled reports whether mutual TLS transport is configured.
func (c *ServerConfig) TLSEnabled() bool {
	return c.TLS != nil && c.TLS.Enabled
}
