package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit_Levels(t *testing.T) {
	l := New()
	require.NotNil(t, l.Log)

	require.NoError(t, l.Init("Info"))
	assert.True(t, l.Log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Log.Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, l.Init("debug"))
	assert.True(t, l.Log.Core().Enabled(zapcore.DebugLevel))
}

func TestInit_BadLevel(t *testing.T) {
	l := New()
	err := l.Init("loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func TestNamed_NilBase(t *testing.T) {
	assert.NotNil(t, Named(nil, "x"))
}
