package history

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound      = errors.New("history entry not found")
	ErrEmpty         = errors.New("history is empty")
	ErrNotNavigating = errors.New("history cursor is not navigating")
	ErrAtBoundary    = errors.New("history cursor is at a boundary")
)

// Direction selects which way the cursor moves. Older walks toward the
// oldest live entry, Newer toward the most recently appended one.
type Direction int

const (
	Older Direction = iota
	Newer
)

func (d Direction) String() string {
	if d == Newer {
		return "newer"
	}
	return "older"
}

// Entry is a single logged command. ID is the command number for the
// shell history and the process id for the job table.
type Entry struct {
	ID   int
	Text string

	// slot is the insertion ordinal of the entry. It never changes and is
	// never reused, so the cursor can refer to it across evictions.
	slot uint64
}

// Log is a bounded, oldest-first list of entries with a navigation cursor.
// It is not safe for concurrent use; see jobs.Table for a locked wrapper.
type Log struct {
	entries  []Entry
	capacity int

	// total is the number of command numbers handed out by Append.
	total int

	lastSlot uint64
	cursor   uint64 // slot under the cursor, 0 when not navigating
}

// NewLog creates a log that keeps at most capacity entries.
func NewLog(capacity int) *Log {
	if capacity < 1 {
		capacity = 1
	}
	return &Log{
		entries:  make([]Entry, 0, capacity),
		capacity: capacity,
	}
}

func (l *Log) Capacity() int { return l.capacity }

func (l *Log) Len() int { return len(l.entries) }

// Total is the number of entries ever numbered by Append.
func (l *Log) Total() int { return l.total }

// Append logs text as the newest entry and returns its command number.
// The oldest entry is evicted when the log is full. The cursor is reset.
func (l *Log) Append(text string) int {
	l.total++
	l.push(l.total, text)
	return l.total
}

// AppendWithID logs text under a caller supplied identifier, such as a
// process id. It does not advance the command number counter.
func (l *Log) AppendWithID(id int, text string) {
	l.push(id, text)
}

func (l *Log) push(id int, text string) {
	l.lastSlot++
	l.entries = append(l.entries, Entry{ID: id, Text: text, slot: l.lastSlot})
	if len(l.entries) > l.capacity {
		// Shift instead of reslicing so the backing array does not grow
		// without bound.
		copy(l.entries, l.entries[1:])
		l.entries[len(l.entries)-1] = Entry{}
		l.entries = l.entries[:len(l.entries)-1]
	}
	l.cursor = 0
}

// Lookup returns the text logged under number n, or ErrNotFound when no
// live entry carries it. Numbers need not be increasing.
func (l *Log) Lookup(n int) (string, error) {
	size := len(l.entries)
	if size == 0 {
		return "", ErrNotFound
	}

	// Eviction shifts the oldest surviving number forward by one per
	// evicted entry, so with sequence numbers the position is the number
	// minus that offset.
	offset := l.total - size
	if i := n - offset - 1; i >= 0 && i < size && l.entries[i].ID == n {
		return l.entries[i].Text, nil
	}

	// Removals leave gaps, and AppendWithID numbers follow no order.
	if e, ok := l.Find(n); ok {
		return e.Text, nil
	}
	return "", ErrNotFound
}

// RemoveByID removes the first entry carrying id. Other entries keep their
// numbers. Removing the entry that was appended last gives its command
// number back, since nothing else can have observed it yet.
func (l *Log) RemoveByID(id int) bool {
	for i, e := range l.entries {
		if e.ID != id {
			continue
		}
		if e.slot == l.cursor {
			l.cursor = 0
		}
		if i == len(l.entries)-1 && e.slot == l.lastSlot && id == l.total {
			l.total--
		}
		l.entries = append(l.entries[:i], l.entries[i+1:]...)
		return true
	}
	return false
}

// Find returns the entry carrying id, scanning newest first.
func (l *Log) Find(id int) (Entry, bool) {
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].ID == id {
			return l.entries[i], true
		}
	}
	return Entry{}, false
}

// Entries returns a copy of the live entries, oldest first.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) OldestNumber() (int, error) {
	if len(l.entries) == 0 {
		return 0, ErrEmpty
	}
	return l.entries[0].ID, nil
}

func (l *Log) NewestNumber() (int, error) {
	if len(l.entries) == 0 {
		return 0, ErrEmpty
	}
	return l.entries[len(l.entries)-1].ID, nil
}

// ResetCursor ends any navigation in progress.
func (l *Log) ResetCursor() {
	l.cursor = 0
}

// Navigating reports whether the cursor currently refers to an entry.
func (l *Log) Navigating() bool {
	return l.index() >= 0
}

// index resolves the cursor to a position, or -1 when not navigating.
func (l *Log) index() int {
	if l.cursor == 0 {
		return -1
	}
	i := sort.Search(len(l.entries), func(i int) bool { return l.entries[i].slot >= l.cursor })
	if i < len(l.entries) && l.entries[i].slot == l.cursor {
		return i
	}
	return -1
}

func (l *Log) CursorText() (string, error) {
	i := l.index()
	if i < 0 {
		return "", ErrNotNavigating
	}
	return l.entries[i].Text, nil
}

func (l *Log) CursorNumber() (int, error) {
	i := l.index()
	if i < 0 {
		return 0, ErrNotNavigating
	}
	return l.entries[i].ID, nil
}

// SeekNewest places the cursor on the newest entry.
func (l *Log) SeekNewest() (string, error) {
	if len(l.entries) == 0 {
		l.cursor = 0
		return "", ErrEmpty
	}
	e := l.entries[len(l.entries)-1]
	l.cursor = e.slot
	return e.Text, nil
}

// CursorStep moves the cursor one entry in dir without any filtering. At
// either end the cursor stays where it is and ErrAtBoundary is returned.
func (l *Log) CursorStep(dir Direction) (string, error) {
	i := l.index()
	if i < 0 {
		return "", ErrNotNavigating
	}
	next := step(i, dir)
	if next < 0 || next >= len(l.entries) {
		return "", ErrAtBoundary
	}
	l.cursor = l.entries[next].slot
	return l.entries[next].Text, nil
}

// SearchPrefix continues a prefix search from the cursor. Without an active
// cursor an Older search starts by testing the newest entry; a Newer search
// has nothing to find. Otherwise the cursor moves one step in dir before
// each test. The head and tail entries are always tested before giving up.
// When nothing matches the cursor is left where it was.
func (l *Log) SearchPrefix(prefix string, dir Direction) (string, error) {
	i := l.index()
	if i < 0 {
		if dir == Newer || len(l.entries) == 0 {
			return "", ErrNotFound
		}
		i = len(l.entries) - 1
	} else {
		i = step(i, dir)
	}

	for ; i >= 0 && i < len(l.entries); i = step(i, dir) {
		if strings.HasPrefix(l.entries[i].Text, prefix) {
			l.cursor = l.entries[i].slot
			return l.entries[i].Text, nil
		}
	}
	return "", ErrNotFound
}

func step(i int, dir Direction) int {
	if dir == Newer {
		return i + 1
	}
	return i - 1
}
