package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robottwo/tern/internal/analytics"
	"github.com/robottwo/tern/internal/bash"
	"github.com/robottwo/tern/internal/history"
	"github.com/robottwo/tern/internal/jobs"
	"github.com/robottwo/tern/internal/styles"
	"go.uber.org/zap"
)

const (
	DefaultHistorySize = 100
	DefaultJobsSize    = 10
)

// ErrExit is returned by ExecuteLine when the shell should terminate.
var ErrExit = errors.New("exit")

type Options struct {
	HistorySize int
	JobsSize    int
	ExpandEnv   bool
	Autocd      bool
	PromptColor bool

	// Stdin is handed to foreground commands. Nil means /dev/null.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Analytics enables the execution ledger and the tern_analytics builtin.
	Analytics *analytics.AnalyticsManager
	Logger    *zap.Logger
}

// Shell owns everything one interactive session needs: the command history,
// the background job table and its reaper, and the builtin registry.
type Shell struct {
	history  *history.Log
	jobs     *jobs.Table
	reaper   *jobs.Reaper
	builtins []builtin
	expander *bash.Expander

	analyticsManager *analytics.AnalyticsManager
	sessionID        string

	expandEnv   bool
	autocd      bool
	promptColor bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *zap.Logger

	lastStatus int
}

func NewShell(opts Options) *Shell {
	if opts.HistorySize < 1 {
		opts.HistorySize = DefaultHistorySize
	}
	if opts.JobsSize < 1 {
		opts.JobsSize = DefaultJobsSize
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	table := jobs.NewTable(opts.JobsSize)
	sh := &Shell{
		history:          history.NewLog(opts.HistorySize),
		jobs:             table,
		reaper:           jobs.NewReaper(table, opts.Logger),
		expander:         bash.NewExpander(opts.Logger),
		analyticsManager: opts.Analytics,
		sessionID:        uuid.New().String(),
		expandEnv:        opts.ExpandEnv,
		autocd:           opts.Autocd,
		promptColor:      opts.PromptColor,
		stdin:            opts.Stdin,
		stdout:           opts.Stdout,
		stderr:           opts.Stderr,
		logger:           opts.Logger,
	}
	sh.builtins = defaultBuiltins(opts.Analytics != nil)
	return sh
}

func (sh *Shell) History() *history.Log { return sh.history }

func (sh *Shell) Jobs() *jobs.Table { return sh.jobs }

// Reaper collects background jobs. Its Run loop is started by the caller.
func (sh *Shell) Reaper() *jobs.Reaper { return sh.reaper }

func (sh *Shell) SessionID() string { return sh.sessionID }

// LastStatus is the status of the most recent command, or the status
// requested by exit once ExecuteLine has returned ErrExit.
func (sh *Shell) LastStatus() int { return sh.lastStatus }

// NextCommandNumber is the number the next logged command will get.
func (sh *Shell) NextCommandNumber() int {
	return sh.history.Total() + 1
}

// command is one submitted line as it moves through dispatch. Bang
// expansion rewrites text, args and id in place.
type command struct {
	text string
	args []string
	id   int

	// The oldest history entry before this line was logged. Logging the
	// line may evict it, and bang references must still resolve to it.
	oldestID   int
	oldestText string
	hasOldest  bool
}

// ExecuteLine runs one line of input and returns its status. The returned
// error is ErrExit when the shell should terminate; any other error has
// already been reported on stderr.
func (sh *Shell) ExecuteLine(ctx context.Context, line string) (int, error) {
	// Safe point between foreground commands.
	sh.reaper.Reap()

	if strings.TrimSpace(line) == "" {
		return 0, nil
	}
	sh.logger.Debug("executing line", zap.String("line", line))
	start := time.Now()

	cmd := &command{text: line}
	if n, err := sh.history.OldestNumber(); err == nil {
		cmd.oldestID = n
		cmd.oldestText, _ = sh.history.Lookup(n)
		cmd.hasOldest = true
	}
	cmd.id = sh.history.Append(line)

	cmd.args = bash.Tokenize(line)
	if len(cmd.args) == 0 {
		return 0, nil
	}

	status, err := sh.dispatch(ctx, cmd)
	if !errors.Is(err, errNotHandled) {
		if err != nil && !errors.Is(err, ErrExit) {
			sh.logger.Debug("builtin failed", zap.String("line", cmd.text), zap.Error(err))
		}
		sh.finish(cmd.text, status, 0, false, start)
		if errors.Is(err, ErrExit) {
			return status, ErrExit
		}
		return status, nil
	}

	args := cmd.args

	if dir, ok := sh.autocdTarget(args); ok {
		sh.logger.Debug("autocd", zap.String("dir", dir))
		status := 0
		if err := bash.Cd([]string{"cd", dir}, sh.stdout, sh.stderr); err != nil {
			status = 1
		}
		sh.finish(cmd.text, status, 0, false, start)
		return status, nil
	}

	pipeline, err := ParsePipeline(args)
	if err != nil {
		sh.reportError(err.Error())
		sh.finish(cmd.text, 2, 0, false, start)
		return 2, nil
	}
	sh.logger.Debug("parsed pipeline",
		zap.Int("stages", len(pipeline.Stages)),
		zap.Bool("background", pipeline.Background))

	status, pid := sh.runPipeline(ctx, pipeline, cmd.text)
	sh.finish(cmd.text, status, pid, pipeline.Background, start)
	return status, nil
}

// finish records the result of a command and makes it visible to the
// prompt.
func (sh *Shell) finish(text string, status int, pid int, background bool, start time.Time) {
	sh.lastStatus = status
	sh.logger.Debug("command finished", zap.String("line", text), zap.Int("status", status))

	if sh.analyticsManager == nil {
		return
	}
	dir, _ := os.Getwd()
	_ = sh.analyticsManager.Record(analytics.Entry{
		Command:    text,
		Directory:  dir,
		SessionID:  sh.sessionID,
		ExitCode:   status,
		DurationMs: time.Since(start).Milliseconds(),
		Pid:        pid,
		Background: background,
	})
}

// reportError prints a diagnostic in the tern: <what> form.
func (sh *Shell) reportError(msg string) {
	fmt.Fprintln(sh.stderr, styles.ERROR("tern: "+msg))
}
