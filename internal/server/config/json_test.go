package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"endpoint_addr_http":      "www.example:8080",
		"endpoint_addr_grpc":      "www.example:9000",
		"database_dsn":            "memory://",
		"secret_key":              "my_secret_key",
		"token_validity_duration": "24h",
		"environment":             "production",
		"connect_timeout":         "5s",
		"retry_base_delay":        "250ms",
		"max_retries":             0,
		"allowed_origins":         []string{"https://vault.example"},
		"s3_bucket":               "bucket",
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "www.example:8080", cfg.EndpointAddrHTTP)
		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "memory://", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 24*time.Hour, cfg.TokenValidityDuration)
		assert.True(t, cfg.IsProduction())
		assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
		assert.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay)
		assert.Equal(t, 0, cfg.MaxRetries)
		assert.Equal(t, []string{"https://vault.example"}, cfg.AllowedOrigins)
		assert.Equal(t, "bucket", cfg.S3Bucket)

		// absent fields keep their defaults
		assert.Equal(t, 30*time.Second, cfg.RetryMaxDelay)
		assert.Equal(t, "us-east-1", cfg.S3Region)
	})

	t.Run("short flag", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", pathFlag}

		cfg := &Config{}
		parseJson(cfg)
		assert.Equal(t, "memory://", cfg.DatabaseDSN)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", MaxRetries: 3}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, 3, cfg.MaxRetries)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("negative duration → panics", func(t *testing.T) {
		neg := writeTempJSON(t, dir, "neg.json", map[string]any{"retry_base_delay": "-1s"})
		os.Args = []string{"testbin", "-config", neg}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.PanicsWithError(t, "retry_base_delay must be positive, got -1s", func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "nope.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
