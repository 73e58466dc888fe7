package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(prev)
		SetLevel(INFO)
		SetRedactPII(true)
	})
	return &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m))
	return m
}

func TestLogFields(t *testing.T) {
	buf := capture(t)

	Info("forecast done", "org_id", "o1", "campaigns", 3, "ok", true, "error", errors.New("late"))

	m := decode(t, buf)
	assert.Equal(t, "INFO", m["level"])
	assert.Equal(t, "forecast done", m["msg"])
	assert.Equal(t, "o1", m["org_id"])
	assert.Equal(t, float64(3), m["campaigns"])
	assert.Equal(t, true, m["ok"])
	assert.Equal(t, "late", m["error"])
}

func TestLevelFilter(t *testing.T) {
	buf := capture(t)
	SetLevel(WARN)

	Info("dropped")
	Debug("dropped")
	assert.Zero(t, buf.Len())

	Error("kept")
	assert.Equal(t, "ERROR", decode(t, buf)["level"])
}

func TestRedaction(t *testing.T) {
	buf := capture(t)

	Info("digest sent", "recipient", "john.doe@example.com", "note", "cc ab@example.org please")
	m := decode(t, buf)
	assert.Equal(t, "jo***@example.com", m["recipient"])
	assert.Equal(t, "cc ***@example.org please", m["note"])

	buf.Reset()
	SetRedactPII(false)
	Info("digest sent", "recipient", "john.doe@example.com")
	assert.Equal(t, "john.doe@example.com", decode(t, buf)["recipient"])
}

func TestOddFields(t *testing.T) {
	buf := capture(t)

	Warn("odd", "key")
	assert.True(t, strings.Contains(buf.String(), `"!BADKEY":"key"`))
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, DEBUG, l)

	l, ok = ParseLevel("verbose")
	assert.False(t, ok)
	assert.Equal(t, INFO, l)
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "jo***@example.com", RedactEmail("john@example.com"))
	assert.Equal(t, "***@example.com", RedactEmail("ab@example.com"))
	assert.Equal(t, "***@***", RedactEmail("not-an-address"))
}
