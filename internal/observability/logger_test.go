// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alkemir/jscrawl/internal/config"
)

// testBuffer adapts a bytes.Buffer to zapcore.WriteSyncer.
type testBuffer struct {
	bytes.Buffer
}

func (b *testBuffer) Sync() error { return nil }

func TestInitialize(t *testing.T) {
	t.Run("console format", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf testBuffer
		Initialize(config.LoggerConfig{
			Level:       "debug",
			Format:      "console",
			ServiceName: "jscrawl-test",
		}, zapcore.Lock(&buf))

		GetLogger().Info("console test message")

		output := buf.String()
		assert.Contains(t, output, "INFO")
		assert.Contains(t, output, "console test message")
		assert.Contains(t, output, "jscrawl-test.")
	})

	t.Run("json format", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf testBuffer
		Initialize(config.LoggerConfig{
			Level:       "info",
			Format:      "json",
			ServiceName: "jscrawl-json",
		}, zapcore.Lock(&buf))

		GetLogger().Warn("json test message", zap.String("key", "value"))

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "output should be one JSON object")
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "jscrawl-json", entry["logger"])
		assert.Equal(t, "json test message", entry["msg"])
		assert.Equal(t, "value", entry["key"])
	})

	t.Run("level filtering", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf testBuffer
		Initialize(config.LoggerConfig{Level: "warn", Format: "json"}, zapcore.Lock(&buf))

		GetLogger().Debug("below the floor")
		GetLogger().Info("also below")
		GetLogger().Warn("visible")

		output := buf.String()
		assert.NotContains(t, output, "below the floor")
		assert.NotContains(t, output, "also below")
		assert.Contains(t, output, "visible")
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf testBuffer
		Initialize(config.LoggerConfig{Level: "not-a-level", Format: "json"}, zapcore.Lock(&buf))

		GetLogger().Debug("hidden")
		GetLogger().Info("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("writes to a log file when configured", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		logFile := filepath.Join(t.TempDir(), "jscrawl-test.log")
		var buf testBuffer
		Initialize(config.LoggerConfig{
			Level:   "debug",
			Format:  "json",
			LogFile: logFile,
			MaxSize: 1,
		}, zapcore.Lock(&buf))

		GetLogger().Error("this should go to the file")
		Sync()

		content, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(content), "this should go to the file")
	})

	t.Run("initializes only once", func(t *testing.T) {
		ResetForTest()
		defer ResetForTest()

		var buf testBuffer
		Initialize(config.LoggerConfig{Level: "info", ServiceName: "first"}, zapcore.Lock(&buf))
		first := GetLogger()

		Initialize(config.LoggerConfig{Level: "debug", ServiceName: "second"}, zapcore.Lock(&buf))
		second := GetLogger()

		assert.Same(t, first, second)
	})
}

func TestGetLogger_FallbackBeforeInitialization(t *testing.T) {
	ResetForTest()
	defer ResetForTest()

	logger := GetLogger()
	assert.NotNil(t, logger, "an uninitialized logger must still be usable")
}

func TestSync_UninitializedIsNoOp(t *testing.T) {
	ResetForTest()
	defer ResetForTest()

	assert.NotPanics(t, func() { Sync() })
}
