package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.in))
		})
	}
}

func TestFromFlags(t *testing.T) {
	assert.Equal(t, Config{Level: "info"}, FromFlags(false, ""))
	assert.Equal(t, Config{Level: "debug", File: "run.log"}, FromFlags(true, "run.log"))
}

func TestNew_FileOutputIsJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", File: "ignored.log"}, &buf)

	l.Debug().Msg("hidden")
	l.Info().Msg("runner: started")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "runner: started", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.NotContains(t, entry, "caller")
}

func TestNew_ConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "debug"}, &buf)

	l.Debug().Msg("mixer: applied")

	assert.Contains(t, buf.String(), "mixer: applied")
	assert.Contains(t, buf.String(), "logger_test.go")
}

func TestInit_BadFile(t *testing.T) {
	err := Init(Config{File: filepath.Join(t.TempDir(), "missing", "run.log")})
	assert.Error(t, err)
}
