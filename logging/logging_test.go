package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GoCodeAlone/beans"
)

var (
	_ beans.Logger = (*ZapLogger)(nil)
	_ beans.Logger = (*SlogLogger)(nil)
)

func TestZapLoggerLevelsAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLogger(zap.New(core))

	l.Debug("Bean created", "bean", "userService", "scope", "singleton")
	l.Info("Component scan completed", "registered", 3)
	l.Warn("Skipping component", "component", "beans.broken")
	l.Error("Bean creation failed", "bean", "db")
	require.NoError(t, l.Sync())

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "Bean created", entries[0].Message)
	assert.Equal(t, map[string]any{"bean": "userService", "scope": "singleton"}, entries[0].ContextMap())
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, int64(3), entries[1].ContextMap()["registered"])
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestZapLoggerWithContainer(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	c, err := beans.NewContainer(beans.WithLogger(NewZapLogger(zap.New(core))), beans.WithoutDefaultCatalog())
	require.NoError(t, err)

	require.NoError(t, c.Destroy())
	assert.Equal(t, 1, logs.FilterMessage("Container cleared").Len())
}

func TestNilLoggersFallBack(t *testing.T) {
	assert.NotPanics(t, func() {
		NewZapLogger(nil).Info("discarded")
	})
	assert.NotNil(t, NewSlogLogger(nil).logger)
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	l.Debug("debugging", "bean", "a")
	l.Info("informing")
	l.Warn("warning")
	l.Error("failing", "error", "boom")

	out := buf.String()
	assert.Contains(t, out, "level=DEBUG msg=debugging bean=a")
	assert.Contains(t, out, "level=INFO msg=informing")
	assert.Contains(t, out, "level=WARN msg=warning")
	assert.Contains(t, out, "level=ERROR msg=failing error=boom")
}
