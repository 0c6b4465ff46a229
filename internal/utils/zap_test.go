package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitializeLogger(t *testing.T) {
	previous := Logger
	t.Cleanup(func() { Logger = previous })

	path := filepath.Join(t.TempDir(), "state", "trapview.log")
	require.NoError(t, InitializeLogger(zapcore.WarnLevel, path))

	Logger.Info("hidden")
	Logger.Warn("Bitmap evicted", zap.Int("index", 3))
	require.NoError(t, SyncLogger())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"msg":"Bitmap evicted"`)
	assert.Contains(t, string(content), `"index":3`)
	assert.NotContains(t, string(content), "hidden")
}

func TestInitializeLogger_BadPath(t *testing.T) {
	previous := Logger
	t.Cleanup(func() { Logger = previous })

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	assert.Error(t, InitializeLogger(zapcore.InfoLevel, filepath.Join(blocker, "trapview.log")))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("loud"))
}
