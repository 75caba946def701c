package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Environments(t *testing.T) {
	for _, env := range []string{"production", "development", ""} {
		l, err := New(env)
		require.NoError(t, err, env)
		assert.NotNil(t, l)
	}
}

func TestLogger_ErrorAttachesCause(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := FromZap(zap.New(core)).With(zap.String("resume_id", "r1"))

	l.Error("compile failed", errors.New("boom"))
	l.Warn("lenient exit", zap.Int("code", 1))
	l.Info("done")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "compile failed", entries[0].Message)
	assert.Equal(t, "boom", entries[0].ContextMap()["error"])
	assert.Equal(t, "r1", entries[0].ContextMap()["resume_id"])
	assert.Equal(t, int64(1), entries[1].ContextMap()["code"])
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Info("ignored")
	l.Error("ignored", nil)
	assert.NotNil(t, l.With(zap.String("k", "v")))
}
