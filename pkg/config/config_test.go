package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultAlgorithm, cfg.Algorithm)
	assert.Equal(t, DefaultIdleTimeout, cfg.IdleTimeout)
	assert.False(t, cfg.RereadOnQuery)
	assert.False(t, cfg.TLSEnabled())
}

func TestNormalize_FillsZeroFields(t *testing.T) {
	cfg := &ServerConfig{FilePath: "/data/200k.txt"}
	cfg.Normalize()

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultAlgorithm, cfg.Algorithm)
	assert.Equal(t, DefaultIdleTimeout, cfg.IdleTimeout)
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	cfg := &ServerConfig{Port: 5000, FilePath: "/data/200k.txt", Algorithm: "trie", IdleTimeout: 60}
	cfg.Normalize()

	assert.Equal(t, 5000, cfg.Port)
	assert.Equal(t, "trie", cfg.Algorithm)
	assert.Equal(t, 60, cfg.IdleTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() *ServerConfig {
		cfg := DefaultServerConfig()
		cfg.FilePath = "/data/200k.txt"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *ServerConfig) {},
		},
		{
			name:    "port too low",
			mutate:  func(c *ServerConfig) { c.Port = 0 },
			wantErr: "port",
		},
		{
			name:    "port too high",
			mutate:  func(c *ServerConfig) { c.Port = 70000 },
			wantErr: "port",
		},
		{
			name:    "missing file path",
			mutate:  func(c *ServerConfig) { c.FilePath = "" },
			wantErr: "filePath",
		},
		{
			name:    "unknown algorithm",
			mutate:  func(c *ServerConfig) { c.Algorithm = "bloom" },
			wantErr: "algorithm",
		},
		{
			name: "TLS missing cert",
			mutate: func(c *ServerConfig) {
				c.TLS = &TLSConfig{Enabled: true, KeyFile: "k", CAFile: "ca"}
			},
			wantErr: "certFile",
		},
		{
			name: "TLS missing key",
			mutate: func(c *ServerConfig) {
				c.TLS = &TLSConfig{Enabled: true, CertFile: "c", CAFile: "ca"}
			},
			wantErr: "keyFile",
		},
		{
			name: "TLS missing CA",
			mutate: func(c *ServerConfig) {
				c.TLS = &TLSConfig{Enabled: true, CertFile: "c", KeyFile: "k"}
			},
			wantErr: "caFile",
		},
		{
			name: "TLS disabled needs no paths",
			mutate: func(c *ServerConfig) {
				c.TLS = &TLSConfig{Enabled: false}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	writeFile := func(t *testing.T, content string) string {
		t.Helper()
		path := filepath.Join(t.TempDir(), "searchd.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	t.Run("full config", func(t *testing.T) {
		path := writeFile(t, `
port: 5000
filePath: /data/200k.txt
algorithm: cached
rereadOnQuery: true
idleTimeout: 30
maxConnections: 16
tls:
  enabled: true
  certFile: server.pem
  keyFile: server.key
  caFile: ca.pem
metrics:
  enabled: true
  port: 9090
logging:
  level: debug
  format: json
`)
		cfg, err := LoadFromFile(path)
		require.NoError(t, err)

		assert.Equal(t, 5000, cfg.Port)
		assert.Equal(t, "/data/200k.txt", cfg.FilePath)
		assert.Equal(t, "cached", cfg.Algorithm)
		assert.True(t, cfg.RereadOnQuery)
		assert.Equal(t, 30, cfg.IdleTimeout)
		assert.Equal(t, 16, cfg.MaxConnections)
		require.True(t, cfg.TLSEnabled())
		assert.Equal(t, "ca.pem", cfg.TLS.CAFile)
		require.NotNil(t, cfg.Metrics)
		assert.Equal(t, 9090, cfg.Metrics.Port)
		require.NotNil(t, cfg.Logging)
		assert.Equal(t, "debug", cfg.Logging.Level)
	})

	t.Run("minimal config gets defaults", func(t *testing.T) {
		cfg, err := LoadFromFile(writeFile(t, "filePath: /data/200k.txt\n"))
		require.NoError(t, err)
		assert.Equal(t, DefaultPort, cfg.Port)
		assert.Equal(t, DefaultAlgorithm, cfg.Algorithm)
		assert.Equal(t, DefaultIdleTimeout, cfg.IdleTimeout)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("directory", func(t *testing.T) {
		_, err := LoadFromFile(t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "directory")
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := LoadFromFile(writeFile(t, ""))
		require.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid YAML", func(t *testing.T) {
		_, err := LoadFromFile(writeFile(t, "port: [unterminated\n"))
		require.ErrorIs(t, err, ErrInvalidYAML)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := LoadFromFile(writeFile(t, "port: 5000\n"))
		require.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestParse_RejectsUnknownAlgorithm(t *testing.T) {
	_, err := Parse([]byte("filePath: /data/200k.txt\nalgorithm: quantum\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}
