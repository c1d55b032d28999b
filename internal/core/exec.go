package core

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"github.com/robottwo/tern/internal/jobs"
	"go.uber.org/zap"
)

const (
	statusCannotExecute = 126
	statusNotFound      = 127
)

// runPipeline starts one process per stage, connecting neighbours with
// pipes. A foreground pipeline blocks until its last stage exits and
// reports that stage's status. A background pipeline hands its last stage
// to the reaper and reports success. The pid of the last stage is returned
// when it was started.
func (sh *Shell) runPipeline(ctx context.Context, p *Pipeline, text string) (int, int) {
	var (
		prevRead *os.File
		last     *exec.Cmd
		status   int
	)

	for i, stage := range p.Stages {
		isLast := i == len(p.Stages)-1

		var cmd *exec.Cmd
		if p.Background {
			cmd = exec.Command(stage.Args[0], stage.Args[1:]...)
		} else {
			cmd = exec.CommandContext(ctx, stage.Args[0], stage.Args[1:]...)
		}
		cmd.Stderr = sh.stderr

		// Descriptors the child inherits; the parent's copies are closed
		// once the child has started, so readers see EOF when writers exit.
		var parentFiles []*os.File
		closeParentFiles := func() {
			for _, f := range parentFiles {
				_ = f.Close()
			}
		}

		switch {
		case i > 0:
			// nil means /dev/null when the previous stage could not be set up.
			if prevRead != nil {
				cmd.Stdin = prevRead
				parentFiles = append(parentFiles, prevRead)
			}
		case !p.Background:
			cmd.Stdin = sh.stdin
		}
		prevRead = nil

		if isLast {
			cmd.Stdout = sh.stdout
		} else {
			r, w, err := os.Pipe()
			if err != nil {
				sh.reportError(fmt.Sprintf("pipe: %v", err))
				closeParentFiles()
				status = 1
				continue
			}
			cmd.Stdout = w
			parentFiles = append(parentFiles, w)
			prevRead = r
		}

		stageStatus, err := sh.applyRedirections(cmd, stage, &parentFiles)
		if err == nil {
			stageStatus, err = sh.start(cmd)
		}
		closeParentFiles()
		if err != nil {
			if isLast {
				status = stageStatus
			}
			continue
		}

		sh.logger.Debug("started stage",
			zap.Int("index", i),
			zap.Strings("args", stage.Args),
			zap.Int("pid", cmd.Process.Pid))

		if isLast {
			last = cmd
			continue
		}
		go func(c *exec.Cmd) {
			_ = c.Wait()
		}(cmd)
	}

	if last == nil {
		return status, 0
	}
	pid := last.Process.Pid

	if p.Background {
		sh.reaper.Track(pid, text, func(e jobs.Exit) {
			// The reaper already collected the process. Wait still finishes
			// the output copying and closes descriptors.
			_ = last.Wait()
			_ = last.Process.Release()
			sh.logger.Debug("background job finished", zap.Int("pid", e.Pid), zap.Int("status", e.Status))
		})
		sh.logger.Debug("background job started", zap.Int("pid", pid), zap.String("line", text))
		return 0, pid
	}

	err := last.Wait()
	status = exitStatus(last.ProcessState)
	if err != nil && last.ProcessState == nil {
		sh.logger.Warn("waiting for command", zap.Int("pid", pid), zap.Error(err))
		status = 1
	}
	sh.logger.Debug("foreground command exited", zap.Int("pid", pid), zap.Int("status", status))
	return status, pid
}

// applyRedirections opens the stage's redirect targets and replaces the
// corresponding streams. Opened files are added to parentFiles.
func (sh *Shell) applyRedirections(cmd *exec.Cmd, stage *Stage, parentFiles *[]*os.File) (int, error) {
	if stage.Input != "" {
		f, err := os.Open(stage.Input)
		if err != nil {
			sh.reportError(fmt.Sprintf("%s: %v", stage.Input, errorText(err)))
			return 1, err
		}
		*parentFiles = append(*parentFiles, f)
		cmd.Stdin = f
	}

	if stage.Output != "" {
		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if stage.Append {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		f, err := os.OpenFile(stage.Output, flags, 0644)
		if err != nil {
			sh.reportError(fmt.Sprintf("%s: %v", stage.Output, errorText(err)))
			return 1, err
		}
		*parentFiles = append(*parentFiles, f)
		cmd.Stdout = f
	}
	return 0, nil
}

func (sh *Shell) start(cmd *exec.Cmd) (int, error) {
	err := cmd.Start()
	if err == nil {
		return 0, nil
	}

	name := cmd.Args[0]
	switch {
	case errors.Is(err, exec.ErrNotFound):
		sh.reportError(fmt.Sprintf("%s: command not found", name))
		return statusNotFound, err
	case errors.Is(err, fs.ErrNotExist):
		sh.reportError(fmt.Sprintf("%s: no such file or directory", name))
		return statusNotFound, err
	case errors.Is(err, fs.ErrPermission):
		sh.reportError(fmt.Sprintf("%s: permission denied", name))
		return statusCannotExecute, err
	default:
		sh.reportError(fmt.Sprintf("%s: %v", name, err))
		return statusCannotExecute, err
	}
}

// exitStatus maps a finished process to a shell status: the exit code, or
// 128 plus the signal number when the process was killed.
func exitStatus(state *os.ProcessState) int {
	if state == nil {
		return 1
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

func errorText(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "no such file or directory"
	case errors.Is(err, fs.ErrPermission):
		return "permission denied"
	}
	return err.Error()
}
