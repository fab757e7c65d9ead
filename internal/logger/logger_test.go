package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level Level) (*DefaultLogger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")

	logger, err := NewDefaultLogger(&Config{
		LogFilePath: logPath,
		MaxFileSize: 1024 * 1024,
		MaxBackups:  3,
		Level:       level,
	})
	require.NoError(t, err)
	return logger, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestNewDefaultLogger(t *testing.T) {
	logger, logPath := newTestLogger(t, LevelDebug)
	defer logger.Close()

	_, err := os.Stat(logPath)
	assert.NoError(t, err, "log file was not created")
}

func TestLogLevels(t *testing.T) {
	logger, logPath := newTestLogger(t, LevelDebug)

	logger.Debug("debug message", String("key", "value"))
	logger.Info("info message", Int("count", 42))
	logger.Warn("warn message", Bool("flag", true))
	logger.Error("error message", errors.New("test error"))
	require.NoError(t, logger.Close())

	content := readLog(t, logPath)
	for _, want := range []string{"[DEBUG]", "[INFO]", "[WARN]", "[ERROR]",
		"debug message", "info message", "warn message", "error message",
		`"key": "value"`, `"count": 42`, `"flag": true`, "test error"} {
		assert.Contains(t, content, want)
	}
}

func TestLogLevelFiltering(t *testing.T) {
	logger, logPath := newTestLogger(t, LevelWarn)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message", nil)
	require.NoError(t, logger.Close())

	content := readLog(t, logPath)
	assert.NotContains(t, content, "[DEBUG]")
	assert.NotContains(t, content, "[INFO]")
	assert.Contains(t, content, "[WARN]")
	assert.Contains(t, content, "[ERROR]")
}

func TestSetLevel(t *testing.T) {
	logger, logPath := newTestLogger(t, LevelDebug)

	logger.Debug("debug before")
	logger.SetLevel(LevelError)
	logger.Debug("debug after")
	logger.Warn("warn after")
	logger.Error("error after", nil)
	require.NoError(t, logger.Close())

	content := readLog(t, logPath)
	assert.Contains(t, content, "debug before")
	assert.NotContains(t, content, "debug after")
	assert.NotContains(t, content, "warn after")
	assert.Contains(t, content, "error after")
}

func TestLogRotation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "rotate.log")
	logger, err := NewDefaultLogger(&Config{
		LogFilePath: logPath,
		MaxFileSize: 256,
		MaxBackups:  2,
		Level:       LevelInfo,
	})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		logger.Info(fmt.Sprintf("rotation entry %d", i), String("padding", strings.Repeat("x", 40)))
	}
	require.NoError(t, logger.Close())

	_, err = os.Stat(logPath + ".1")
	assert.NoError(t, err, "expected first backup file")
	_, err = os.Stat(logPath + ".3")
	assert.True(t, os.IsNotExist(err), "backups beyond MaxBackups must be removed")
}

func TestGlobalLogger(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "global.log")
	require.NoError(t, Init(&Config{LogFilePath: logPath, MaxFileSize: 1024 * 1024, MaxBackups: 1, Level: LevelDebug}))

	Debug("global debug")
	Info("global info")
	Warn("global warn")
	Error("global error", errors.New("boom"))
	require.NoError(t, Close())

	content := readLog(t, logPath)
	assert.Contains(t, content, "global debug")
	assert.Contains(t, content, "global info")
	assert.Contains(t, content, "global warn")
	assert.Contains(t, content, "global error")
}

func TestNoopLogger(t *testing.T) {
	require.NoError(t, Close())

	l := GetLogger()
	_, ok := l.(*noopLogger)
	assert.True(t, ok, "expected noop logger before Init")

	// Must not panic.
	l.Info("ignored", String("k", "v"))
	l.Error("ignored", errors.New("x"))
	assert.NoError(t, l.Close())
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"bogus":   LevelInfo,
		"":        LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "UNKNOWN", Level(99).String())
}

func TestErrFieldWithNil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Nil(t, f.Value)
}

func TestLogDirectoryCreation(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "nested", "dir", "app.log")
	logger, err := NewDefaultLogger(&Config{LogFilePath: logPath, MaxFileSize: 1024, MaxBackups: 1})
	require.NoError(t, err)
	defer logger.Close()

	_, err = os.Stat(filepath.Dir(logPath))
	assert.NoError(t, err)
}
