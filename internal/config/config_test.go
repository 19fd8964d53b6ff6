package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "BROKER_BACKEND", "FEATURE_VOTE_TTL", "LOG_LEVEL", "HTTP_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, BackendRedis, cfg.Broker.Backend)
	assert.Equal(t, "pokerboard", cfg.Broker.ChannelPrefix)
	assert.Equal(t, 720*time.Hour, cfg.Feature.VoteTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestFromEnvFile(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "BROKER_BACKEND", "FEATURE_VOTE_TTL", "HTTP_PORT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"STORE_BACKEND=memory\nBROKER_BACKEND=memory\nFEATURE_VOTE_TTL=90m\nHTTP_PORT=9090\n",
	), 0o600))

	cfg, err := FromEnv(path)
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, BackendMemory, cfg.Broker.Backend)
	assert.Equal(t, 90*time.Minute, cfg.Feature.VoteTTL)
	assert.Equal(t, "9090", cfg.HTTP.Port)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown store", key: "STORE_BACKEND", val: "mongo"},
		{name: "unknown broker", key: "BROKER_BACKEND", val: "kafka"},
		{name: "bad ttl", key: "FEATURE_VOTE_TTL", val: "forever"},
		{name: "bad log level", key: "LOG_LEVEL", val: "chatty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)

			_, err := FromEnv("")

			assert.Error(t, err)
		})
	}
}

func TestFromEnvMissingFile(t *testing.T) {
	_, err := FromEnv(filepath.Join(t.TempDir(), "absent.env"))

	assert.Error(t, err)
}
