package logs

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogDir(t *testing.T) {
	dir, err := LogDir()
	require.NoError(t, err)
	assert.NotEmpty(t, dir)
	assert.Contains(t, dir, appName)
}

func TestLogFilePathCustomDir(t *testing.T) {
	dir := t.TempDir()
	path, err := LogFilePath(dir, "main.log")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "main.log"), path)
}

func TestLogFilePathCreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	path, err := LogFilePath(dir, "main.log")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))
}

func TestSetupLoggerDefaults(t *testing.T) {
	logger, err := SetupLogger(nil)
	require.NoError(t, err)
	logger.Info("logger configured")
	_ = logger.Sync()
}

func TestSetupLoggerNoOutputs(t *testing.T) {
	cfg := DefaultLogConfig()
	cfg.EnableConsole = false
	cfg.EnableFile = false
	_, err := SetupLogger(cfg)
	assert.Error(t, err)
}

func TestSetupLoggerFileOutput(t *testing.T) {
	cfg := DefaultLogConfig()
	cfg.EnableFile = true
	cfg.LogDir = t.TempDir()

	logger, err := SetupLogger(cfg)
	require.NoError(t, err)
	logger.Info("written to file")
	_ = logger.Sync()

	assert.FileExists(t, filepath.Join(cfg.LogDir, "main.log"))
}
