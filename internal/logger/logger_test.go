package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevel(t *testing.T) {
	l, err := New("debug")
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.DebugLevel))

	l, err = New("not-a-level")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
}

func TestNamedNilBase(t *testing.T) {
	l := Named(nil, "inventory")
	require.NotNil(t, l)
	l.Info("discarded")
}

func TestMustPanics(t *testing.T) {
	assert.Panics(t, func() { Must(nil, assert.AnError) })
}
