package loggable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggable(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	var l Loggable
	assert.NoError(t, WithLogger(zap.New(core))(&l))

	l.Debugf("debug testing %d %d %d", 1, 2, 3)
	l.Infof("info testing 1 2 3")
	l.Warnf("warn testing 1 2 3")
	l.Errorf("error testing 1 2 3")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 4) {
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
		assert.Equal(t, "debug testing 1 2 3", entries[0].Message)
		assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
		assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
		assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	}
}

func TestLoggableZeroValue(t *testing.T) {
	var l Loggable

	assert.NotPanics(t, func() {
		l.Debugf("nothing")
		l.Errorf("nothing")
		w := l.With("session", "x")
		w.Infof("nothing")
	})
	assert.NotNil(t, l.Logger())
}

func TestLoggableWith(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	var l Loggable
	assert.NoError(t, WithLogger(zap.New(core))(&l))

	w := l.With("session", "abc")
	w.Infof("hello")
	l.Debugf("filtered out")

	entries := logs.AllUntimed()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "abc", entries[0].ContextMap()["session"])
	}
}
