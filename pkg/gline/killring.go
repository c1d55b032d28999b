package gline

import (
	"slices"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
)

const killRingMax = 30

type killDirection int

const (
	killForward killDirection = iota + 1
	killBackward
)

// killRing holds recently killed text for ctrl+y and alt+y. Consecutive
// kills in the same direction grow the newest entry, the way bash does.
type killRing struct {
	ring  [][]rune
	index int

	lastDirection killDirection
	lastWasKill   bool

	yankActive bool
	yankStart  int
	yankEnd    int
}

func (kr *killRing) record(killed []rune, direction killDirection) {
	if len(killed) == 0 {
		kr.lastWasKill = false
		kr.lastDirection = direction
		kr.yankActive = false
		return
	}

	killed = slices.Clone(killed)
	if kr.lastWasKill && direction == kr.lastDirection && len(kr.ring) > 0 {
		if direction == killForward {
			kr.ring[0] = append(kr.ring[0], killed...)
		} else {
			kr.ring[0] = append(killed, kr.ring[0]...)
		}
	} else {
		kr.ring = append([][]rune{killed}, kr.ring...)
		if len(kr.ring) > killRingMax {
			kr.ring = kr.ring[:killRingMax]
		}
		kr.index = 0
	}

	kr.lastWasKill = true
	kr.lastDirection = direction
	kr.yankActive = false
}

// endSequence is called for every key that is neither a kill nor a yank.
func (kr *killRing) endSequence() {
	kr.lastWasKill = false
	kr.yankActive = false
}

func (kr *killRing) yank(ti *textinput.Model) {
	if len(kr.ring) == 0 {
		return
	}

	value := []rune(ti.Value())
	pos := ti.Position()
	killed := kr.ring[0]

	ti.SetValue(string(slices.Concat(value[:pos], killed, value[pos:])))
	ti.SetCursor(pos + len(killed))

	kr.yankStart = pos
	kr.yankEnd = pos + len(killed)
	kr.index = 0
	kr.yankActive = true
	kr.lastWasKill = false
}

// yankPop replaces the text inserted by the previous yank with the next
// older ring entry.
func (kr *killRing) yankPop(ti *textinput.Model) {
	if !kr.yankActive || len(kr.ring) < 2 {
		return
	}

	kr.index = (kr.index + 1) % len(kr.ring)

	value := []rune(ti.Value())
	start := min(max(kr.yankStart, 0), len(value))
	end := min(max(kr.yankEnd, start), len(value))
	replacement := kr.ring[kr.index]

	ti.SetValue(string(slices.Concat(value[:start], replacement, value[end:])))
	ti.SetCursor(start + len(replacement))

	kr.yankStart = start
	kr.yankEnd = start + len(replacement)
}

func killToEnd(ti *textinput.Model, kr *killRing) {
	value := []rune(ti.Value())
	pos := ti.Position()
	kr.record(value[pos:], killForward)
	ti.SetValue(string(value[:pos]))
	ti.SetCursor(pos)
}

func killToStart(ti *textinput.Model, kr *killRing) {
	value := []rune(ti.Value())
	pos := ti.Position()
	kr.record(value[:pos], killBackward)
	ti.SetValue(string(value[pos:]))
	ti.SetCursor(0)
}

// killWordBackward kills the whitespace before the cursor and the word
// before that.
func killWordBackward(ti *textinput.Model, kr *killRing) {
	value := []rune(ti.Value())
	pos := ti.Position()

	start := pos
	for start > 0 && unicode.IsSpace(value[start-1]) {
		start--
	}
	for start > 0 && !unicode.IsSpace(value[start-1]) {
		start--
	}

	kr.record(value[start:pos], killBackward)
	ti.SetValue(string(slices.Concat(value[:start], value[pos:])))
	ti.SetCursor(start)
}
