package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZapLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mart.log")
	log, err := NewZapLogger(ZapLoggerConfig{
		Level:       "info",
		Encoding:    "json",
		OutputPaths: []string{path},
	})
	require.NoError(t, err)

	log.Info("sale recorded")
	log.Debug("hidden")
	_ = log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "sale recorded")
	assert.NotContains(t, string(raw), "hidden")
}

func TestNewZapLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := NewZapLogger(ZapLoggerConfig{Level: "loud"})
	assert.Error(t, err)
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
}
