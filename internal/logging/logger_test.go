package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInitializeSetsLevel(t *testing.T) {
	t.Cleanup(func() { Use(nil); SetLevel("info") })

	require.NoError(t, Initialize(Config{Level: "debug"}))
	assert.Equal(t, zapcore.DebugLevel, Level())

	SetLevel("error")
	assert.Equal(t, zapcore.ErrorLevel, Level())
	assert.False(t, L().Core().Enabled(zapcore.WarnLevel))
}

func TestInitializeSyslogOnlyInProduction(t *testing.T) {
	t.Cleanup(func() { Use(nil) })
	// Not production: the address is ignored, so an unusable one is fine.
	require.NoError(t, Initialize(Config{Level: "info", SyslogAddr: "bad address"}))
}

func TestGetNamesCategory(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))
	t.Cleanup(func() { Use(nil) })

	Get(CategoryScraper).Info("fetched", zap.Int("words", 3))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "scraper", entries[0].LoggerName)
	assert.Equal(t, "fetched", entries[0].Message)
}

func TestTimerStop(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))
	t.Cleanup(func() { Use(nil) })

	elapsed := StartTimer(CategorySolver, "solve").Stop()
	assert.GreaterOrEqual(t, elapsed.Nanoseconds(), int64(0))
	require.Equal(t, 1, logs.FilterMessage("timing").Len())
}
