package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelFallback(t *testing.T) {
	l := New("not-a-level", "text")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())

	l = New("debug", "text")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
}

func TestForUser_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithOutput("info", "json", &buf)

	ForUser(l, 42).Info("reconciled")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reconciled", entry["msg"])
	assert.Equal(t, float64(42), entry["user_id"])
}
