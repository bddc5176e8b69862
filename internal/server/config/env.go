package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays PLAYTRACKER_* variables. Unset variables leave the
// current value untouched.
func parseEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}
