package gline

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/robottwo/tern/internal/completion"
	"go.uber.org/zap"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.textInput.Width = max(0, msg.Width-lipgloss.Width(m.textInput.Prompt)-1)
		return m, nil

	case terminateMsg:
		m.appState = Terminated
		return m, nil

	case interruptMsg:
		m.appState = Terminated
		m.interrupted = true
		return m, nil

	case eofMsg:
		m.appState = Terminated
		m.eof = true
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		if !isKillRingKey(key) {
			m.kills.endSequence()
		}
		m.candidates = nil

		switch key {
		case "up", "ctrl+p":
			return m.recall(m.options.Recaller.Older), nil

		case "down", "ctrl+n":
			return m.recall(m.options.Recaller.Newer), nil

		case "enter":
			m.result = m.textInput.Value()
			m.options.Recaller.Reset()
			return m, tea.Sequence(terminate, tea.Quit)

		case "ctrl+c":
			m.result = ""
			m.options.Recaller.Reset()
			return m, tea.Sequence(interrupt, tea.Quit)

		case "ctrl+d":
			if m.textInput.Value() == "" {
				return m, tea.Sequence(endOfInput, tea.Quit)
			}
			// Otherwise ctrl+d deletes forward.

		case "ctrl+l":
			return m, tea.ClearScreen

		case "tab":
			return m.complete(), nil

		case "ctrl+k":
			killToEnd(&m.textInput, m.kills)
			return m, nil

		case "ctrl+u":
			killToStart(&m.textInput, m.kills)
			return m, nil

		case "ctrl+w", "alt+backspace":
			killWordBackward(&m.textInput, m.kills)
			return m, nil

		case "ctrl+y":
			m.kills.yank(&m.textInput)
			return m, nil

		case "alt+y":
			m.kills.yankPop(&m.textInput)
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m appModel) recall(move func(string) string) appModel {
	line := move(m.textInput.Value())
	m.logger.Debug("gline recalled line", zap.String("line", line))
	m.textInput.SetValue(line)
	m.textInput.CursorEnd()
	return m
}

func isKillRingKey(key string) bool {
	switch key {
	case "ctrl+k", "ctrl+u", "ctrl+w", "alt+backspace", "ctrl+y", "alt+y":
		return true
	}
	return false
}

// complete replaces the word before the cursor with the longest prefix all
// candidates share. A single candidate is completed in full and followed by
// a space unless it is a directory.
func (m appModel) complete() appModel {
	if m.options.Completer == nil {
		return m
	}

	value := []rune(m.textInput.Value())
	pos := m.textInput.Position()
	head, tail := string(value[:pos]), string(value[pos:])

	candidates := m.options.Completer.Complete(head)
	if len(candidates) == 0 {
		return m
	}

	word := completion.CurrentWord(head)
	replacement := completion.CommonPrefix(candidates)
	if len(candidates) == 1 && !strings.HasSuffix(replacement, "/") {
		replacement += " "
	}
	if len(replacement) <= len(word) && len(candidates) > 1 {
		m.candidates = candidates
		return m
	}

	head = strings.TrimSuffix(head, word) + replacement
	m.textInput.SetValue(head + tail)
	m.textInput.SetCursor(len([]rune(head)))
	return m
}
