package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fischer.log")

	l, err := New(Options{Level: zapcore.InfoLevel, File: path})
	require.NoError(t, err)

	l.Info("hello", zap.String("k", "v"))
	l.Debug("hidden")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"k":"v"`)
	assert.NotContains(t, string(data), "hidden")
}

func TestForConfig(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	ForConfig(base, "quiet", false).Debug("dropped")
	ForConfig(base, "quiet", false).Info("kept")
	ForConfig(base, "loud", true).Debug("traced")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, "quiet", entries[0].ContextMap()["config"])
	assert.Equal(t, "traced", entries[1].Message)
	assert.Equal(t, "loud", entries[1].ContextMap()["config"])
}
