package prettylog

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encode(t *testing.T, enc zapcore.Encoder, entry zapcore.Entry, fields ...zapcore.Field) string {
	t.Helper()
	buf, err := enc.EncodeEntry(entry, fields)
	require.NoError(t, err)
	defer buf.Free()
	return buf.String()
}

func TestEncodeEntry(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	enc := NewEncoder(false)
	enc.AddString("module", "post")

	line := encode(t, enc, zapcore.Entry{Level: zapcore.WarnLevel, Time: at, LoggerName: "post", Message: "slug candidates exhausted"},
		zap.String("base", "hello world"), zap.Int("attempts", 11))

	assert.Equal(t, `2024-05-01 09:30:00 ⚠ [post] slug candidates exhausted attempts=11 base="hello world" module=post`+"\n", line)
}

func TestEncodeErrorBadge(t *testing.T) {
	line := encode(t, NewEncoder(false), zapcore.Entry{Level: zapcore.ErrorLevel, Message: "boom"}, zap.Error(errors.New("db down")))
	assert.Contains(t, line, " ERROR  boom")
	assert.Contains(t, line, `error="db down"`)
}

func TestCloneIsolatesFields(t *testing.T) {
	base := NewEncoder(false)
	child := base.Clone()
	child.AddString("request", "1")

	line := encode(t, base, zapcore.Entry{Level: zapcore.InfoLevel, Message: "hi"})
	assert.NotContains(t, line, "request=")
}

func TestColor(t *testing.T) {
	line := encode(t, NewEncoder(true), zapcore.Entry{Level: zapcore.InfoLevel, Message: "hi"})
	assert.Contains(t, line, ansiCyan+"ℹ"+ansiReset)
}
