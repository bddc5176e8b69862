package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/playtracker/internal/flagx"
	"github.com/dmitrijs2005/playtracker/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so that both "1s" strings and integer nanoseconds parse.
// Pointer fields distinguish "absent" from an explicit zero.
type JsonConfig struct {
	HTTPAddr                    *string         `json:"http_addr"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	S3RootUser                  *string         `json:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket"`
	S3Region                    *string         `json:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint"`
	S3PublicBaseURL             *string         `json:"s3_public_base_url"`
	MetadataBaseURL             *string         `json:"metadata_base_url"`
	MetadataTimeout             *timex.Duration `json:"metadata_timeout"`
	MetadataRetryDelay          *timex.Duration `json:"metadata_retry_delay"`
	SearchLimit                 *int            `json:"search_limit"`
	MaxImageBytes               *int64          `json:"max_image_bytes"`
	RedisURL                    *string         `json:"redis_url"`
	MetadataCacheTTL            *timex.Duration `json:"metadata_cache_ttl"`
	ReconcileInterval           *timex.Duration `json:"reconcile_interval"`
	LogLevel                    *string         `json:"log_level"`
	LogFormat                   *string         `json:"log_format"`
}

// parseJson loads the file named by -c / -config (or $PLAYTRACKER_CONFIG)
// and copies every present field into cfg. No path means nothing to do.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var c JsonConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("decoding config file %s: %w", path, err)
	}

	c.apply(cfg)
	return nil
}

func (c *JsonConfig) apply(cfg *Config) {
	setString(&cfg.HTTPAddr, c.HTTPAddr)
	setString(&cfg.DatabaseDSN, c.DatabaseDSN)
	setString(&cfg.SecretKey, c.SecretKey)
	setString(&cfg.S3RootUser, c.S3RootUser)
	setString(&cfg.S3RootPassword, c.S3RootPassword)
	setString(&cfg.S3Bucket, c.S3Bucket)
	setString(&cfg.S3Region, c.S3Region)
	setString(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&cfg.S3PublicBaseURL, c.S3PublicBaseURL)
	setString(&cfg.MetadataBaseURL, c.MetadataBaseURL)
	setString(&cfg.RedisURL, c.RedisURL)
	setString(&cfg.LogLevel, c.LogLevel)
	setString(&cfg.LogFormat, c.LogFormat)

	if c.AccessTokenValidityDuration != nil {
		cfg.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.MetadataTimeout != nil {
		cfg.MetadataTimeout = c.MetadataTimeout.Duration
	}
	if c.MetadataRetryDelay != nil {
		cfg.MetadataRetryDelay = c.MetadataRetryDelay.Duration
	}
	if c.MetadataCacheTTL != nil {
		cfg.MetadataCacheTTL = c.MetadataCacheTTL.Duration
	}
	if c.ReconcileInterval != nil {
		cfg.ReconcileInterval = c.ReconcileInterval.Duration
	}
	if c.SearchLimit != nil {
		cfg.SearchLimit = *c.SearchLimit
	}
	if c.MaxImageBytes != nil {
		cfg.MaxImageBytes = *c.MaxImageBytes
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
