package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLogger_LevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapLogger(zap.New(core))
	ctx := context.Background()

	log.Debug(ctx, "dbg", "a", 1)
	log.Info(ctx, "inf", "b", 2)
	log.Warn(ctx, "wrn", "c", 3)
	log.Error(ctx, "err", "d", 4)

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	wantLevels := []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel}
	for i, e := range entries {
		assert.Equal(t, wantLevels[i], e.Level)
		assert.Len(t, e.Context, 1)
	}
	assert.Equal(t, int64(2), entries[1].ContextMap()["b"])
}

func TestZapLogger_With(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapLogger(zap.New(core)).With("module", "listener")

	log.Info(context.Background(), "hello", "k", "v")

	entries := logs.FilterMessage("hello").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "listener", fields["module"])
	assert.Equal(t, "v", fields["k"])
}

func TestZapLogger_ContextAttributes(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewZapLogger(zap.New(core))

	ctx := ContextWithAttrs(context.Background(), "request_id", "abc")
	log.Warn(ctx, "upload rejected", "size", 10)

	entries := logs.AllUntimed()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "abc", fields["request_id"])
	assert.Equal(t, int64(10), fields["size"])
}

func TestNew_Backends(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		isJSON bool
	}{
		{name: "slog json", cfg: Config{Backend: "slog", Format: "json"}, isJSON: true},
		{name: "slog text", cfg: Config{Format: "text"}},
		{name: "zap json", cfg: Config{Backend: "zap"}, isJSON: true},
		{name: "zap console", cfg: Config{Backend: "zap", Format: "text"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.cfg.Writer = &buf

			log, err := New(tt.cfg)
			require.NoError(t, err)
			log.Info(context.Background(), "started", "port", 8008)
			log.Debug(context.Background(), "hidden")

			out := buf.String()
			assert.Contains(t, out, "started")
			assert.Contains(t, out, "8008")
			assert.NotContains(t, out, "hidden")

			line := strings.TrimSpace(out)
			if tt.isJSON {
				var m map[string]any
				assert.NoError(t, json.Unmarshal([]byte(line), &m))
			}
		})
	}
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Backend: "zap", Level: "debug", Writer: &buf})
	require.NoError(t, err)

	log.Debug(context.Background(), "visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Backend: "logrus"})
	require.ErrorIs(t, err, ErrUnknownBackend)

	_, err = New(Config{Level: "loud"})
	require.Error(t, err)
}
