package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/petshop/config"
)

func TestDefaults(t *testing.T) {
	config.Reset()
	assert.Equal(t, int64(39438155), config.GetInt64(config.ChainIDKey))
	assert.Equal(t, 2*time.Second, config.GetDuration(config.OwnedPollIntervalKey))
	assert.Equal(t, 5*time.Second, config.GetDuration(config.ViewerPollIntervalKey))
	assert.Equal(t, "", config.GetString(config.CommitteeKey))
	assert.Equal(t, log.InfoLevel, config.GetLogLevel())
}

func TestGetNodesSkipsBlanks(t *testing.T) {
	config.Reset()
	config.Set(config.RPCNodesKey, "http://a, ,http://b ")
	assert.Equal(t, map[string]string{
		"node-0": "http://a",
		"node-2": "http://b",
	}, config.GetNodes())

	config.Set(config.RPCNodesKey, "")
	assert.Empty(t, config.GetNodes())
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("PETSHOP_CONTRACT_COMMITTEE", "0x0000000000000000000000000000000000000120")
	config.Reset()
	assert.Equal(t, "0x0000000000000000000000000000000000000120", config.GetString(config.CommitteeKey))
	assert.True(t, config.IsSet(config.CommitteeKey))
}

func TestGetLogLevelFallsBackToInfo(t *testing.T) {
	config.Reset()
	config.Set(config.LogLevelKey, int(log.DebugLevel))
	assert.Equal(t, log.DebugLevel, config.GetLogLevel())

	config.Set(config.LogLevelKey, 42)
	assert.Equal(t, log.InfoLevel, config.GetLogLevel())
}

func TestLoadFile(t *testing.T) {
	config.Reset()
	defer config.Reset()
	require.NoError(t, config.LoadFile(""))

	path := filepath.Join(t.TempDir(), "petshop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("READ_RATE_LIMIT: 7\nTX_LOST_AFTER: 30s\n"), 0o600))
	require.NoError(t, config.LoadFile(path))
	assert.Equal(t, 7, config.GetInt(config.ReadRateLimitKey))
	assert.Equal(t, 30*time.Second, config.GetDuration(config.TxLostAfterKey))

	assert.Error(t, config.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
