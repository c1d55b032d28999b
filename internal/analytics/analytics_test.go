package analytics

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) *AnalyticsManager {
	t.Helper()
	manager, err := NewAnalyticsManager(filepath.Join(t.TempDir(), "analytics.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = manager.Close()
	})
	return manager
}

func TestRecordAndRecentEntries(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.Record(Entry{Command: "ls -l", Directory: "/tmp", SessionID: "s1", ExitCode: 0, DurationMs: 12}))
	require.NoError(t, manager.Record(Entry{Command: "false", Directory: "/tmp", SessionID: "s1", ExitCode: 1}))
	require.NoError(t, manager.Record(Entry{Command: "sleep 5 &", SessionID: "s2", Pid: 4242, Background: true}))

	entries, err := manager.GetRecentEntries(2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "sleep 5 &", entries[0].Command)
	assert.True(t, entries[0].Background)
	assert.Equal(t, 4242, entries[0].Pid)
	assert.Equal(t, "false", entries[1].Command)
	assert.Equal(t, 1, entries[1].ExitCode)

	session, err := manager.GetSessionEntries("s1")
	require.NoError(t, err)
	require.Len(t, session, 2)
	assert.Equal(t, "ls -l", session[0].Command)
	assert.Equal(t, int64(12), session[0].DurationMs)

	count, err := manager.GetTotalCount()
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestRecordIgnoresEmptyCommand(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.Record(Entry{}))
	count, err := manager.GetTotalCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDeleteAndReset(t *testing.T) {
	manager := newTestManager(t)

	require.NoError(t, manager.Record(Entry{Command: "a"}))
	require.NoError(t, manager.Record(Entry{Command: "b"}))

	entries, err := manager.GetRecentEntries(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.NoError(t, manager.DeleteEntry(entries[0].ID))
	assert.Error(t, manager.DeleteEntry(entries[0].ID))

	require.NoError(t, manager.ResetAnalytics())
	count, err := manager.GetTotalCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRunCommand(t *testing.T) {
	manager := newTestManager(t)
	for _, cmd := range []string{"first", "second", "third"} {
		require.NoError(t, manager.Record(Entry{Command: cmd}))
	}

	t.Run("table oldest first", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, manager.RunCommand([]string{CommandName}, &out))

		text := out.String()
		assert.Contains(t, text, "COMMAND")
		assert.Less(t, strings.Index(text, "first"), strings.Index(text, "second"))
		assert.Less(t, strings.Index(text, "second"), strings.Index(text, "third"))
	})

	t.Run("limit", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, manager.RunCommand([]string{CommandName, "1"}, &out))
		assert.NotContains(t, out.String(), "first")
		assert.Contains(t, out.String(), "third")
	})

	t.Run("invalid limit", func(t *testing.T) {
		var out bytes.Buffer
		assert.Error(t, manager.RunCommand([]string{CommandName, "zero"}, &out))
	})

	t.Run("count", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, manager.RunCommand([]string{CommandName, "-n"}, &out))
		assert.Equal(t, "Total recorded commands: 3\n", out.String())
	})

	t.Run("help", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, manager.RunCommand([]string{CommandName, "-h"}, &out))
		assert.Contains(t, out.String(), "Usage: tern_analytics")
	})

	t.Run("clear", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, manager.RunCommand([]string{CommandName, "-c"}, &out))
		require.NoError(t, manager.RunCommand([]string{CommandName}, &out))
		assert.Equal(t, "No commands recorded.\n", out.String())
	})
}

func TestPrintEntriesTable(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	entries := []Entry{
		{ID: 1, CreatedAt: now.Add(-2 * time.Hour), Command: "make test", ExitCode: 2, DurationMs: 1500},
		{ID: 2, CreatedAt: now.Add(-time.Minute), Command: "sleep 5 &", Background: true},
	}

	var out bytes.Buffer
	printEntriesTable(&out, entries, now)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "2 hours ago")
	assert.Contains(t, lines[2], "1.5s")
	assert.Contains(t, lines[2], "make test")
	assert.Contains(t, lines[3], "1 minute ago")
	assert.Contains(t, lines[3], "&")
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is too long", 10, "this is..."},
		{"multi\nline", 20, "multi line"},
		{"abcdef", 3, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, truncate(tt.input, tt.maxLen))
		})
	}
}
