package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitBuiltin(t *testing.T) {
	tests := []struct {
		name   string
		before string
		line   string
		status int
		exits  bool
		stderr string
	}{
		{name: "previous status", before: "false", line: "exit", status: 1, exits: true},
		{name: "previous success", before: "true", line: "exit", status: 0, exits: true},
		{name: "explicit status", line: "exit 3", status: 3, exits: true},
		{name: "status wraps", line: "exit 256", status: 0, exits: true},
		{name: "negative status", line: "exit -1", status: 255, exits: true},
		{name: "not a number", line: "exit abc", status: 2, exits: true, stderr: "exit: abc: numeric argument required"},
		{name: "too many arguments", line: "exit 1 2", status: 1, exits: false, stderr: "exit: too many arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sh := newTestShell(t, Options{})
			if tt.before != "" {
				sh.run(t, tt.before)
			}

			status, err := sh.ExecuteLine(context.Background(), tt.line)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.status, sh.LastStatus())
			if tt.exits {
				assert.ErrorIs(t, err, ErrExit)
			} else {
				assert.NoError(t, err)
			}
			if tt.stderr != "" {
				assert.Contains(t, sh.stderr.String(), tt.stderr)
			}
		})
	}
}

func TestExitInPipelineIsNotBuiltin(t *testing.T) {
	sh := newTestShell(t, Options{})

	_, err := sh.ExecuteLine(context.Background(), "exit | cat")
	assert.NotErrorIs(t, err, ErrExit)
}

func TestHistoryBuiltin(t *testing.T) {
	sh := newTestShell(t, Options{})
	sh.run(t, "true")
	sh.run(t, "false")

	sh.run(t, "history")
	assert.Equal(t, "1 true\n2 false\n3 history\n", sh.stdout.String())

	sh.stdout.Reset()
	sh.run(t, "history 2")
	assert.Equal(t, "3 history\n4 history 2\n", sh.stdout.String())

	sh.stdout.Reset()
	assert.Equal(t, 1, sh.run(t, "history many"))
	assert.Empty(t, sh.stdout.String())
	assert.Contains(t, sh.stderr.String(), "history: many: numeric argument required")
}

func TestHistoryShowsOnlyLiveEntries(t *testing.T) {
	sh := newTestShell(t, Options{HistorySize: 2})
	sh.run(t, "true")
	sh.run(t, "false")
	sh.run(t, "history")

	assert.Equal(t, "2 false\n3 history\n", sh.stdout.String())
}

func TestBuiltinPrefixMatch(t *testing.T) {
	sh := newTestShell(t, Options{})
	sh.run(t, "true")

	assert.Equal(t, 0, sh.run(t, "historyfoo"))
	assert.Equal(t, "1 true\n2 historyfoo\n", sh.stdout.String())
}

func TestCdBuiltin(t *testing.T) {
	dir := chdirTemp(t)
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	sh := newTestShell(t, Options{})
	assert.Equal(t, 0, sh.run(t, "cd sub"))
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, sub, wd)

	assert.Equal(t, 1, sh.run(t, "cd "+filepath.Join(dir, "missing")))
	assert.NotEmpty(t, sh.stderr.String())

	wd, err = os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, sub, wd)
}

func TestBuiltinNames(t *testing.T) {
	sh := newTestShell(t, Options{})
	assert.Equal(t, []string{"!", "cd", "exit", "history", "jobs"}, sh.BuiltinNames())
}

func TestBangPrevious(t *testing.T) {
	sh := newTestShell(t, Options{})
	for i := 1; i <= 4; i++ {
		sh.History().Append(fmt.Sprintf("true %d", i))
	}
	sh.History().Append("ls -l")
	sh.History().Append("echo again")

	assert.Equal(t, 0, sh.run(t, "!!"))
	assert.Equal(t, "again\n", sh.stdout.String())
	assert.Contains(t, sh.stderr.String(), "echo again")

	entries := sh.History().Entries()
	last := entries[len(entries)-1]
	assert.Equal(t, 7, last.ID)
	assert.Equal(t, "echo again", last.Text)
	assert.NotContains(t, historyTexts(sh.Shell), "!!")
	assert.Equal(t, 8, sh.NextCommandNumber())
}

func TestBangNumber(t *testing.T) {
	sh := newTestShell(t, Options{})
	sh.History().Append("echo one")
	sh.History().Append("echo two")

	sh.run(t, "!1")
	assert.Equal(t, "one\n", sh.stdout.String())
	assert.Equal(t, []string{"echo one", "echo two", "echo one"}, historyTexts(sh.Shell))
}

func TestBangPrefix(t *testing.T) {
	sh := newTestShell(t, Options{})
	sh.History().Append("echo one")
	sh.History().Append("printf two")
	sh.History().Append("echo three")

	sh.run(t, "!ec")
	assert.Equal(t, "three\n", sh.stdout.String())

	sh.stdout.Reset()
	sh.run(t, "!pr")
	assert.Equal(t, "two", sh.stdout.String())
	assert.False(t, sh.History().Navigating())
}

func TestBangTrailingWords(t *testing.T) {
	sh := newTestShell(t, Options{})
	sh.run(t, "echo hi")
	sh.stdout.Reset()

	sh.run(t, "!! | tr a-z A-Z")
	assert.Equal(t, "HI\n", sh.stdout.String())

	entries := sh.History().Entries()
	assert.Equal(t, "echo hi | tr a-z A-Z", entries[len(entries)-1].Text)
}

func TestBangReachesLaterBuiltins(t *testing.T) {
	sh := newTestShell(t, Options{})
	sh.History().Append("history")

	sh.run(t, "!his")
	assert.Equal(t, "1 history\n2 history\n", sh.stdout.String())
}

func TestBangNotFound(t *testing.T) {
	tests := []string{"!zzz", "!9", "!0"}

	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			sh := newTestShell(t, Options{})
			sh.History().Append("echo one")

			status, err := sh.ExecuteLine(context.Background(), line)
			require.NoError(t, err)
			assert.Equal(t, 1, status)
			assert.Equal(t, 1, sh.LastStatus())
			assert.Contains(t, sh.stderr.String(), fmt.Sprintf("tern: %s: event not found", line))
			assert.Equal(t, []string{"echo one"}, historyTexts(sh.Shell))
			assert.Equal(t, 2, sh.NextCommandNumber())
		})
	}
}

func TestBareBang(t *testing.T) {
	sh := newTestShell(t, Options{})
	sh.run(t, "false")

	assert.Equal(t, 0, sh.run(t, "!"))
	assert.Empty(t, sh.stdout.String())
	assert.Empty(t, sh.stderr.String())
}

func TestBangResolvesEvictedEntry(t *testing.T) {
	tests := []string{"!!", "!1", "!ec"}

	for _, line := range tests {
		t.Run(line, func(t *testing.T) {
			sh := newTestShell(t, Options{HistorySize: 1})
			sh.History().Append("echo keep")

			assert.Equal(t, 0, sh.run(t, line))
			assert.Equal(t, "keep\n", sh.stdout.String())

			entries := sh.History().Entries()
			require.Len(t, entries, 1)
			assert.Equal(t, 2, entries[0].ID)
			assert.Equal(t, "echo keep", entries[0].Text)
		})
	}
}

func TestBuiltinsSeeExpandedArguments(t *testing.T) {
	dir := chdirTemp(t)
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	t.Setenv("TERN_TEST_TARGET", sub)
	t.Setenv("TERN_TEST_CODE", "5")
	t.Setenv("TERN_TEST_EMPTY", "")

	sh := newTestShell(t, Options{ExpandEnv: true})

	assert.Equal(t, 0, sh.run(t, "cd $TERN_TEST_TARGET"))
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, sub, wd)
	assert.Empty(t, sh.stderr.String())

	// A line that expands to nothing does nothing.
	assert.Equal(t, 0, sh.run(t, "$TERN_TEST_EMPTY"))

	status, err := sh.ExecuteLine(context.Background(), "exit $TERN_TEST_CODE")
	assert.ErrorIs(t, err, ErrExit)
	assert.Equal(t, 5, status)
}

func TestBangResultIsExpanded(t *testing.T) {
	t.Setenv("TERN_TEST_WORD", "hello")
	sh := newTestShell(t, Options{ExpandEnv: true})
	sh.History().Append("echo $TERN_TEST_WORD")

	sh.run(t, "!!")
	assert.Equal(t, "hello\n", sh.stdout.String())
	assert.Contains(t, historyTexts(sh.Shell), "echo $TERN_TEST_WORD")
}

func TestBuiltinsWithoutExpansion(t *testing.T) {
	t.Setenv("TERN_TEST_CODE", "5")
	sh := newTestShell(t, Options{})

	status, err := sh.ExecuteLine(context.Background(), "exit $TERN_TEST_CODE")
	assert.ErrorIs(t, err, ErrExit)
	assert.Equal(t, 2, status)
	assert.Contains(t, sh.stderr.String(), "exit: $TERN_TEST_CODE: numeric argument required")
}
