package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/config"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "service.log")

	log, err := New(config.LoggerConfig{
		Level:    "debug",
		Output:   "file",
		FilePath: path,
		MaxSize:  1,
	})
	require.NoError(t, err)

	log.Debug("product created", zap.String("product_id", "abc"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"product created"`)
	assert.Contains(t, string(data), `"product_id":"abc"`)
	assert.Contains(t, string(data), `"timestamp"`)
}

func TestNewFallsBackToInfoLevel(t *testing.T) {
	log, err := New(config.LoggerConfig{Level: "verbose", Output: "stdout"})
	require.NoError(t, err)

	assert.False(t, log.Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
}
