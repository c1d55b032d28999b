package gline

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var candidateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

func (m appModel) View() string {
	// Once terminated, render nothing
	if m.appState == Terminated {
		return ""
	}
	if len(m.candidates) == 0 {
		return m.textInput.View()
	}
	return m.textInput.View() + "\n" + candidateStyle.Render(strings.Join(m.candidates, "  "))
}

// renderLine is what stays on screen after the program exits.
func (m appModel) renderLine() string {
	return m.textInput.PromptStyle.Render(m.textInput.Prompt) + m.textInput.Value()
}
