package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"dev", "production", ""} {
		t.Run(mode, func(t *testing.T) {
			l, err := New(mode, false)
			require.NoError(t, err)
			require.NotNil(t, l.SugaredLogger)
		})
	}
}

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}

	l.With("run_id", "abc").Warn("image search failed", "code", "rag")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "image search failed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "abc", fields["run_id"])
	assert.Equal(t, "rag", fields["code"])
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))
	l := Nop()
	assert.Same(t, l, OrNop(l))
}
