package jobs

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Exit describes how a background process terminated.
type Exit struct {
	Pid    int
	Status int
}

// Reaper collects background processes without blocking the command loop.
// Only pids handed to Track are ever waited on, so foreground waits are
// never disturbed.
type Reaper struct {
	table  *Table
	logger *zap.Logger

	mu      sync.Mutex
	pending map[int]func(Exit)

	kick chan struct{}
}

func NewReaper(table *Table, logger *zap.Logger) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reaper{
		table:   table,
		logger:  logger,
		pending: make(map[int]func(Exit)),
		kick:    make(chan struct{}, 1),
	}
}

// Track lists pid in the job table and arranges for it to be reaped. done,
// if not nil, runs once the process has been collected.
func (r *Reaper) Track(pid int, text string, done func(Exit)) {
	// The job is listed before a concurrent Reap can collect it, so the
	// removal that follows collection always finds it.
	r.table.Add(pid, text)

	r.mu.Lock()
	r.pending[pid] = done
	r.mu.Unlock()

	r.logger.Debug("background job started", zap.Int("pid", pid), zap.String("command", text))

	// The child may already have exited and its SIGCHLD been consumed.
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// Pending is the number of tracked processes that have not been reaped.
func (r *Reaper) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Reap collects every tracked process that has terminated and returns how
// many were collected. It never blocks.
func (r *Reaper) Reap() int {
	var exits []Exit
	var callbacks []func(Exit)

	r.mu.Lock()
	for pid, done := range r.pending {
		var ws unix.WaitStatus
		wpid, err := wait4NoHang(pid, &ws)
		switch {
		case err != nil && errors.Is(err, unix.ECHILD):
			// Collected elsewhere; nothing left to wait for.
			exits = append(exits, Exit{Pid: pid, Status: -1})
		case err != nil:
			r.logger.Warn("wait4 failed", zap.Int("pid", pid), zap.Error(err))
			continue
		case wpid == pid:
			exits = append(exits, Exit{Pid: pid, Status: exitStatus(ws)})
		default:
			continue
		}
		delete(r.pending, pid)
		callbacks = append(callbacks, done)
	}
	r.mu.Unlock()

	for i, exit := range exits {
		r.table.Remove(exit.Pid)
		r.logger.Debug("background job finished", zap.Int("pid", exit.Pid), zap.Int("status", exit.Status))
		if callbacks[i] != nil {
			callbacks[i](exit)
		}
	}
	return len(exits)
}

// Run reaps on every SIGCHLD until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGCHLD)
	defer signal.Stop(sigs)

	r.logger.Debug("reaper started")
	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("reaper stopped")
			return
		case <-sigs:
		case <-r.kick:
		}
		r.Reap()
	}
}

func wait4NoHang(pid int, ws *unix.WaitStatus) (int, error) {
	for {
		wpid, err := unix.Wait4(pid, ws, unix.WNOHANG, nil)
		if err == unix.EINTR {
			continue
		}
		return wpid, err
	}
}

func exitStatus(ws unix.WaitStatus) int {
	if ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return ws.ExitStatus()
}
