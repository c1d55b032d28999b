package jobs

import (
	"sync"

	"github.com/robottwo/tern/internal/history"
)

// Table tracks running background jobs keyed by process id. It is safe for
// concurrent use by the command loop and the reaper.
type Table struct {
	mu  sync.Mutex
	log *history.Log
}

func NewTable(capacity int) *Table {
	return &Table{log: history.NewLog(capacity)}
}

// Add records a job. When the table is full the oldest job is dropped from
// the listing; the process itself keeps running.
func (t *Table) Add(pid int, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log.AppendWithID(pid, text)
}

// Remove drops the job with the given pid and reports whether it was listed.
func (t *Table) Remove(pid int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.RemoveByID(pid)
}

// Entries returns a snapshot of the listed jobs, oldest first.
func (t *Table) Entries() []history.Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.Entries()
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.log.Len()
}

func (t *Table) Capacity() int {
	return t.log.Capacity()
}
