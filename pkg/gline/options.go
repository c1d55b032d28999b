package gline

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Recaller supplies history lines for the up and down keys. Each call gets
// the current line and returns the line to show instead.
type Recaller interface {
	Older(line string) string
	Newer(line string) string
	Reset()
}

// Completer proposes replacements for the word at the end of the line.
type Completer interface {
	Complete(line string) []string
}

type Options struct {
	Recaller  Recaller
	Completer Completer

	// InitialValue pre-fills the edit line.
	InitialValue string

	PromptStyle lipgloss.Style

	// Input and Output default to the terminal.
	Input  io.Reader
	Output io.Writer
}

func NewOptions() Options {
	return Options{
		PromptStyle: lipgloss.NewStyle(),
	}
}

type noopRecaller struct{}

func (noopRecaller) Older(line string) string { return line }
func (noopRecaller) Newer(line string) string { return line }
func (noopRecaller) Reset()                   {}
