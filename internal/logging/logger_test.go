package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tasksync.log")

	l, closer, err := New("info", path)
	require.NoError(t, err)
	cl := Component(l, "engine")
	cl.Info().Str("day", "2026-03-10").Msg("refresh finished")
	l.Debug().Msg("filtered out")
	closer()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "refresh finished", entry["message"])
	assert.Equal(t, "2026-03-10", entry["day"])
	assert.Contains(t, entry, "time")
}

func TestNewAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasksync.log")
	for i := 0; i < 2; i++ {
		l, closer, err := New("debug", path)
		require.NoError(t, err)
		l.Info().Msg("line")
		closer()
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New("chatty", "")
	assert.ErrorContains(t, err, "parse log level")
}
