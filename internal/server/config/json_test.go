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
	t.Setenv("PLAYTRACKER_CONFIG", "")

	dir := t.TempDir()
	path := writeTempJSON(t, dir, "flag.json", map[string]any{
		"http_addr":                      "www.example:9000",
		"database_dsn":                   "tracker-dsn",
		"secret_key":                     "my_secret_key",
		"access_token_validity_duration": "15m",
		"s3_bucket":                      "bucket",
		"s3_public_base_url":             "https://cdn.example",
		"metadata_timeout":               float64(3 * time.Second),
		"search_limit":                   5,
		"max_image_bytes":                1024,
		"reconcile_interval":             "0s",
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, []string{"-config", path}))

		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
		assert.Equal(t, "tracker-dsn", cfg.DatabaseDSN)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 15*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, "bucket", cfg.S3Bucket)
		assert.Equal(t, "https://cdn.example", cfg.S3PublicBaseURL)
		assert.Equal(t, 3*time.Second, cfg.MetadataTimeout)
		assert.Equal(t, 5, cfg.SearchLimit)
		assert.Equal(t, int64(1024), cfg.MaxImageBytes)
		assert.Equal(t, time.Duration(0), cfg.ReconcileInterval)
		// absent keys keep their previous value
		assert.Equal(t, "us-east-1", cfg.S3Region)
	})

	t.Run("env var names the file", func(t *testing.T) {
		t.Setenv("PLAYTRACKER_CONFIG", path)
		cfg := &Config{}
		require.NoError(t, parseJson(cfg, nil))
		assert.Equal(t, "www.example:9000", cfg.HTTPAddr)
	})

	t.Run("no config and no flags → no changes", func(t *testing.T) {
		cfg := &Config{HTTPAddr: "defaults:1234", SearchLimit: 7}
		require.NoError(t, parseJson(cfg, []string{}))
		assert.Equal(t, "defaults:1234", cfg.HTTPAddr)
		assert.Equal(t, 7, cfg.SearchLimit)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := &Config{}
		err := parseJson(cfg, []string{"-c", filepath.Join(dir, "nope.json")})
		require.Error(t, err)
	})
}
