package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/rentdesk/internal/flagx"
	"github.com/dmitrijs2005/rentdesk/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields tell
// "absent" apart from a zero value, so a partial file only overrides what it
// names. Durations accept "10m" or integer nanoseconds (timex.Duration).
type JsonConfig struct {
	EndpointAddrHTTP             *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC             *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  *string         `json:"database_dsn"`
	SecretKey                    *string         `json:"secret_key"`
	AccessTokenValidityDuration  *timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration *timex.Duration `json:"refresh_token_validity_duration"`
	CookiePath                   *string         `json:"cookie_path"`
	CookieSecure                 *bool           `json:"cookie_secure"`
	LogLevel                     *string         `json:"log_level"`
	LogFormat                    *string         `json:"log_format"`
	InMemory                     *bool           `json:"in_memory"`
	RevokeFamilyOnReuse          *bool           `json:"revoke_family_on_reuse"`
	DevAdminPassword             *string         `json:"dev_admin_password"`
}

// parseJson loads the file named by -c / -config, if any, into config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}

	setIf(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setIf(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setIf(&config.DatabaseDSN, c.DatabaseDSN)
	setIf(&config.SecretKey, c.SecretKey)
	setIf(&config.CookiePath, c.CookiePath)
	setIf(&config.CookieSecure, c.CookieSecure)
	setIf(&config.LogLevel, c.LogLevel)
	setIf(&config.LogFormat, c.LogFormat)
	setIf(&config.InMemory, c.InMemory)
	setIf(&config.RevokeFamilyOnReuse, c.RevokeFamilyOnReuse)
	setIf(&config.DevAdminPassword, c.DevAdminPassword)
	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration != nil {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
