package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		expected *Config
		name     string
		args     []string
		wantErr  bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-g", "127.0.0.1:9091", "-d", "db", "-s", "secret",
				"-t", "1", "-r", "3", "-l", "debug", "-memory",
			},
			expected: &Config{
				EndpointAddrHTTP:             "127.0.0.1:9090",
				EndpointAddrGRPC:             "127.0.0.1:9091",
				DatabaseDSN:                  "db",
				SecretKey:                    "secret",
				AccessTokenValidityDuration:  1 * time.Minute,
				RefreshTokenValidityDuration: 3 * time.Minute,
				LogLevel:                     "debug",
				InMemory:                     true,
			},
		},
		{
			name: "foreign flags are ignored",
			args: []string{"-c", "cfg.json", "-x", "1", "-s", "k"},
			expected: &Config{
				SecretKey: "k",
			},
		},
		{
			name:    "bad integer",
			args:    []string{"-t", "ten"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &Config{}
			err := parseFlags(config, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.expected, config))
		})
	}
}

func TestParseFlags_KeepsSubMinuteDurationsWhenFlagAbsent(t *testing.T) {
	config := &Config{AccessTokenValidityDuration: 90 * time.Second, RefreshTokenValidityDuration: time.Hour}
	require.NoError(t, parseFlags(config, []string{"-s", "k"}))

	assert.Equal(t, 90*time.Second, config.AccessTokenValidityDuration)
	assert.Equal(t, time.Hour, config.RefreshTokenValidityDuration)
}
