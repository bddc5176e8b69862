package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("PLAYTRACKER_HTTP_ADDR", ":1234")
	t.Setenv("PLAYTRACKER_RECONCILE_INTERVAL", "10m")
	t.Setenv("PLAYTRACKER_MAX_IMAGE_BYTES", "2048")

	cfg := &Config{S3Bucket: "kept"}
	require.NoError(t, parseEnv(cfg))

	assert.Equal(t, ":1234", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, int64(2048), cfg.MaxImageBytes)
	assert.Equal(t, "kept", cfg.S3Bucket)
}
