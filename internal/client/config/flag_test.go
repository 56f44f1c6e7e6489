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
		{name: "Test1 OK", args: []string{"-a", "http://api:9090", "-t", "3"},
			expected: &Config{ServerURL: "http://api:9090", RequestTimeout: 3 * time.Second}},
		{name: "Test2 unknown flags ignored", args: []string{"-x", "1", "-a", "http://api:9090"},
			expected: &Config{ServerURL: "http://api:9090", RequestTimeout: 10 * time.Second}},
		{name: "Test3 incorrect timeout", args: []string{"-t", "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.LoadDefaults()

			err := parseFlags(cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(cfg, tt.expected))
		})
	}
}

func TestParseFlags_KeepsSubSecondTimeoutFromJSON(t *testing.T) {
	cfg := &Config{ServerURL: "x", RequestTimeout: 1500 * time.Millisecond}
	require.NoError(t, parseFlags(cfg, []string{"-a", "y"}))
	assert.Equal(t, 1500*time.Millisecond, cfg.RequestTimeout)
}
