package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/property-engine/internal/config"
)

func TestNew(t *testing.T) {
	logger, closer := New(config.LoggingConfig{Level: "debug", Format: "text"})
	defer closer.Close()

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}

func TestNew_InvalidLevelFallsBackToInfo(t *testing.T) {
	logger, closer := New(config.LoggingConfig{Level: "loud", Format: "json"})
	defer closer.Close()

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine.log")

	logger, closer := New(config.LoggingConfig{Level: "info", Format: "json", File: path})
	logger.WithField("booking_id", "b-1").Info("booking created")
	require.NoError(t, closer.Close())

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), `"booking_id":"b-1"`)
	assert.Contains(t, string(contents), `"msg":"booking created"`)
}
