package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel("WARNING"))
	assert.Equal(t, ERROR, ParseLevel(" ERROR "))
	assert.Equal(t, INFO, ParseLevel("chatty"))
}

func TestLogger_LevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: INFO, Output: &buf})
	require.NoError(t, err)

	l.Debug("hidden")
	l.Info("board saved", F("cards", 3), Err(errors.New("disk full")))
	l.WithFields(F("component", "sync")).Warn("push skipped")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "INFO  [logger_test.go:")
	assert.Contains(t, out, "] board saved cards=3 error=\"disk full\"")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "push skipped component=sync")
}

func TestLogger_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ohm.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 64)), 0644))

	l, err := New(Config{Level: DEBUG, FilePath: path, MaxSize: 32, MaxBackups: 2})
	require.NoError(t, err)
	l.Info("fresh")
	require.NoError(t, l.Close())

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Len(t, backup, 64)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(current), "fresh")
}

func TestGlobalLogger(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: DEBUG, Output: &buf}))
	t.Cleanup(func() { _ = Close() })

	Debug("from global", F("k", "v"))
	assert.Contains(t, buf.String(), "from global k=v")
	assert.Equal(t, DEBUG, GetConfig().Level)
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "WARN", WARN.String())
	assert.Equal(t, "UNKNOWN", Level(9).String())
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "3", quote(3))
	assert.Equal(t, `""`, quote(""))
	assert.Equal(t, `"a=b"`, quote("a=b"))
}
