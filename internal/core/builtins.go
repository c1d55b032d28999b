package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robottwo/tern/internal/analytics"
	"github.com/robottwo/tern/internal/bash"
	"github.com/samber/lo"
)

// errNotHandled lets a builtin hand the (possibly rewritten) command back
// to the dispatcher.
var errNotHandled = errors.New("not handled")

type builtinFunc func(ctx context.Context, sh *Shell, cmd *command) (int, error)

type builtin struct {
	name string
	run  builtinFunc

	// pipeable builtins are still tried when the line contains a pipe.
	pipeable bool
}

func defaultBuiltins(withAnalytics bool) []builtin {
	builtins := []builtin{
		{name: bangMarker, run: runBang, pipeable: true},
		{name: "cd", run: runCd},
		{name: "exit", run: runExit},
		{name: "history", run: runHistory},
		{name: "jobs", run: runJobs},
	}
	if withAnalytics {
		builtins = append(builtins, builtin{name: analytics.CommandName, run: runAnalytics})
	}
	return builtins
}

// BuiltinNames lists the registered builtins in dispatch order.
func (sh *Shell) BuiltinNames() []string {
	return lo.Map(sh.builtins, func(b builtin, _ int) string {
		return b.name
	})
}

// dispatch offers cmd to each builtin whose name prefixes the first word,
// in registration order. A builtin that returns errNotHandled passes the
// command on, so a rewritten command can still reach a later builtin.
// Arguments are expanded once history references have been resolved, so
// every other builtin and the external command see the expanded words.
func (sh *Shell) dispatch(ctx context.Context, cmd *command) (int, error) {
	expanded := false
	for _, b := range sh.builtins {
		if b.name != bangMarker && !expanded {
			sh.expandArgs(cmd)
			expanded = true
		}
		if len(cmd.args) == 0 {
			return 0, nil
		}
		if !strings.HasPrefix(cmd.args[0], b.name) {
			continue
		}
		if !b.pipeable && lo.Contains(cmd.args, pipeToken) {
			continue
		}

		status, err := b.run(ctx, sh, cmd)
		if errors.Is(err, errNotHandled) {
			continue
		}
		return status, err
	}
	if !expanded {
		sh.expandArgs(cmd)
	}
	if len(cmd.args) == 0 {
		return 0, nil
	}
	return 0, errNotHandled
}

func (sh *Shell) expandArgs(cmd *command) {
	if sh.expandEnv {
		cmd.args = sh.expander.Fields(cmd.args)
	}
}

func runCd(_ context.Context, sh *Shell, cmd *command) (int, error) {
	if err := bash.Cd(cmd.args, sh.stdout, sh.stderr); err != nil {
		return 1, err
	}
	return 0, nil
}

// runExit terminates the shell with the given status, or the status of
// the previous command.
func runExit(_ context.Context, sh *Shell, cmd *command) (int, error) {
	switch len(cmd.args) {
	case 1:
		return sh.lastStatus, ErrExit
	case 2:
		n, err := strconv.Atoi(cmd.args[1])
		if err != nil {
			sh.reportError(fmt.Sprintf("exit: %s: numeric argument required", cmd.args[1]))
			return 2, ErrExit
		}
		return n & 0xff, ErrExit
	default:
		sh.reportError("exit: too many arguments")
		return 1, errors.New("exit: too many arguments")
	}
}

// runHistory prints the live history, oldest first. An optional count
// limits the listing to the newest entries.
func runHistory(_ context.Context, sh *Shell, cmd *command) (int, error) {
	entries := sh.history.Entries()
	if len(cmd.args) > 1 {
		n, err := strconv.Atoi(cmd.args[1])
		if err != nil || n < 0 {
			sh.reportError(fmt.Sprintf("history: %s: numeric argument required", cmd.args[1]))
			return 1, fmt.Errorf("history: invalid count %q", cmd.args[1])
		}
		if n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}
	for _, e := range entries {
		fmt.Fprintf(sh.stdout, "%d %s\n", e.ID, e.Text)
	}
	return 0, nil
}

func runJobs(_ context.Context, sh *Shell, _ *command) (int, error) {
	sh.reaper.Reap()
	for _, e := range sh.jobs.Entries() {
		fmt.Fprintf(sh.stdout, "%d %s\n", e.ID, e.Text)
	}
	return 0, nil
}

func runAnalytics(_ context.Context, sh *Shell, cmd *command) (int, error) {
	if err := sh.analyticsManager.RunCommand(cmd.args, sh.stdout); err != nil {
		sh.reportError(fmt.Sprintf("%s: %v", analytics.CommandName, err))
		return 1, err
	}
	return 0, nil
}
