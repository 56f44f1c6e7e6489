package config

import "go-simpler.org/env"

// parseEnv overlays AUTH_* environment variables. Unset variables leave the
// corresponding field untouched, so defaults and JSON values survive.
func parseEnv(config *Config) error {
	return env.Load(config, nil)
}
