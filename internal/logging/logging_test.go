package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToOutputAndFile(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "reconciler.log")

	logger, closeFn, err := New(Options{Level: "info", File: file, Output: &buf})
	require.NoError(t, err)

	logger.Debugf("hidden %d", 1)
	logger.Infof("order %s ready", "A-1")
	require.NoError(t, closeFn())

	assert.Contains(t, buf.String(), "order A-1 ready")
	assert.NotContains(t, buf.String(), "hidden")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "order A-1 ready")
}

func TestVerboseForcesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := New(Options{Level: "error", Verbose: true, Output: &buf})
	require.NoError(t, err)
	defer closeFn()

	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, lvl)

	lvl, err = ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, lvl)

	_, err = ParseLevel("trace")
	assert.Error(t, err)
}

func TestLoggerInterfaceIsSatisfied(t *testing.T) {
	var _ Logger = Discard()
	var _ Logger = logrus.NewEntry(Discard())
}
