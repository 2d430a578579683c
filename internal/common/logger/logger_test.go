package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestObservedLogger_FieldsAndLevels(t *testing.T) {
	log, logs := NewObservedLogger("info")

	scoped := log.WithFields(map[string]interface{}{"taskType": "rank-caregivers"})
	scoped.Debug("hidden", nil)
	scoped.Info("ranking complete", map[string]interface{}{"candidates": 3})
	scoped.WithError(errors.New("boom")).Error("ranking failed", nil)

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, "ranking complete", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "rank-caregivers", ctx["taskType"])
	assert.EqualValues(t, 3, ctx["candidates"])

	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNew_Formats(t *testing.T) {
	assert.NotNil(t, New("info", "json"))
	assert.NotNil(t, New("debug", "console"))
	assert.NotNil(t, NewService("matching", "info", "json"))
	NewNoOpLogger().Info("nothing", map[string]interface{}{"k": "v"})
}
