package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLogger("test")
	l.SetOutput(&buf)
	l.SetLevel(LogLevelWarn)

	l.Debug("should not appear")
	l.Info("should not appear either")
	l.Warn("shows up: %s", "yes")

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "shows up: yes")
	assert.Contains(t, out, "[test]")
}

func TestDefaultLogger_LogSQL_OnlyAtDebug(t *testing.T) {
	var buf bytes.Buffer
	l := NewDefaultLogger("")
	l.SetOutput(&buf)

	l.SetLevel(LogLevelInfo)
	l.LogSQL("SELECT 1", nil, time.Millisecond)
	assert.Empty(t, buf.String())

	l.SetLevel(LogLevelDebug)
	l.LogSQL("SELECT 1", []any{42}, time.Millisecond)
	out := buf.String()
	assert.Contains(t, out, "SELECT 1")
	assert.Contains(t, out, "42")
}

func TestNullLogger_NeverWrites(t *testing.T) {
	n := &NullLogger{}
	assert.NotPanics(t, func() {
		n.Debug("x")
		n.Info("x")
		n.Warn("x")
		n.Error("x")
		n.LogSQL("SELECT 1", nil, 0)
		n.LogCommand("PING", 0)
	})
}

func TestGlobalLogger_DefaultsToNullLogger(t *testing.T) {
	assert.IsType(t, &NullLogger{}, GetGlobalLogger())
}

func TestSetGlobalLogger_RoundTrips(t *testing.T) {
	original := GetGlobalLogger()
	defer SetGlobalLogger(original)

	var buf bytes.Buffer
	l := NewDefaultLogger("roundtrip")
	l.SetOutput(&buf)
	SetGlobalLogger(l)

	LogInfo("hello %s", "world")
	assert.Contains(t, buf.String(), "hello world")
}
