// Package prettylog is a human-oriented zap encoder for the development
// console: a short timestamp, a level icon, the logger name, the message and
// key=value fields.
package prettylog

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	ansiReset  = "\033[0m"
	ansiBlack  = "\033[30m"
	ansiRed    = "\033[31m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
	ansiBgRed  = "\033[41m"
)

var bufPool = buffer.NewPool()

// Encoder accumulates With fields in an embedded MapObjectEncoder and renders
// entries on a single line.
type Encoder struct {
	*zapcore.MapObjectEncoder
	color bool
}

// NewEncoder creates an Encoder. Set color for ANSI terminal output.
func NewEncoder(color bool) zapcore.Encoder {
	return &Encoder{MapObjectEncoder: zapcore.NewMapObjectEncoder(), color: color}
}

// ShouldColor reports whether terminal colors are wanted.
func ShouldColor() bool {
	return os.Getenv("NO_COLOR") == ""
}

func (e *Encoder) Clone() zapcore.Encoder {
	clone := &Encoder{MapObjectEncoder: zapcore.NewMapObjectEncoder(), color: e.color}
	for k, v := range e.Fields {
		clone.Fields[k] = v
	}
	return clone
}

func (e *Encoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	enc := e.Clone().(*Encoder)
	for _, f := range fields {
		f.AddTo(enc)
	}

	buf := bufPool.Get()
	e.paint(buf, ansiGray, entry.Time.Format("2006-01-02 15:04:05"))
	buf.AppendByte(' ')

	if entry.Level >= zapcore.ErrorLevel {
		e.paint(buf, ansiBgRed+ansiBlack, " "+strings.ToUpper(entry.Level.String())+" ")
	} else {
		icon, color := levelIcon(entry.Level)
		e.paint(buf, color, icon)
	}
	buf.AppendByte(' ')

	if entry.LoggerName != "" {
		e.paint(buf, ansiYellow, "["+entry.LoggerName+"]")
		buf.AppendByte(' ')
	}
	buf.AppendString(entry.Message)

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		val := fmt.Sprint(enc.Fields[k])
		if needsQuote(val) {
			val = strconv.Quote(val)
		}
		buf.AppendByte(' ')
		buf.AppendString(k)
		buf.AppendByte('=')
		buf.AppendString(val)
	}

	if entry.Stack != "" {
		buf.AppendByte('\n')
		buf.AppendString(entry.Stack)
	}
	buf.AppendByte('\n')
	return buf, nil
}

func (e *Encoder) paint(buf *buffer.Buffer, color, text string) {
	if e.color && color != "" {
		buf.AppendString(color)
		buf.AppendString(text)
		buf.AppendString(ansiReset)
		return
	}
	buf.AppendString(text)
}

func levelIcon(level zapcore.Level) (string, string) {
	switch level {
	case zapcore.DebugLevel:
		return "⚙", ansiGray
	case zapcore.WarnLevel:
		return "⚠", ansiYellow
	case zapcore.ErrorLevel, zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return "✖", ansiRed
	default:
		return "ℹ", ansiCyan
	}
}

func needsQuote(s string) bool {
	return s == "" || strings.ContainsAny(s, " \"=\n\r\t")
}
