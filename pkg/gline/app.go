package gline

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// RESET_CURSOR_COLUMN moves the cursor back to the first column. Output
// written after a bubbletea program exits may otherwise start mid-line.
const RESET_CURSOR_COLUMN = "\033[1G"

// ErrInterrupted is returned when the user presses Ctrl+C
var ErrInterrupted = errors.New("interrupted by user")

type appModel struct {
	logger  *zap.Logger
	options Options

	textInput textinput.Model
	kills     *killRing

	// candidates are listed under the line after an ambiguous tab.
	candidates []string

	result      string
	appState    appState
	interrupted bool
	eof         bool
}

type terminateMsg struct{}

func terminate() tea.Msg {
	return terminateMsg{}
}

type interruptMsg struct{}

func interrupt() tea.Msg {
	return interruptMsg{}
}

type eofMsg struct{}

func endOfInput() tea.Msg {
	return eofMsg{}
}

type appState int

const (
	Active appState = iota
	Terminated
)

func initialModel(prompt string, logger *zap.Logger, options Options) appModel {
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.Recaller == nil {
		options.Recaller = noopRecaller{}
	}

	textInput := textinput.New()
	textInput.Prompt = prompt
	textInput.PromptStyle = options.PromptStyle
	textInput.ShowSuggestions = false
	textInput.Cursor.SetMode(cursor.CursorStatic)
	if options.InitialValue != "" {
		textInput.SetValue(options.InitialValue)
	}
	textInput.Focus()

	return appModel{
		logger:    logger,
		options:   options,
		textInput: textInput,
		kills:     &killRing{},
		appState:  Active,
	}
}

func (m appModel) Init() tea.Cmd {
	return nil
}

// Gline reads one line from the terminal. It returns ErrInterrupted when
// the line is abandoned with Ctrl+C and io.EOF for Ctrl+D on an empty line.
func Gline(prompt string, logger *zap.Logger, options Options) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	output := options.Output
	if output == nil {
		output = os.Stdout
	}

	programOptions := []tea.ProgramOption{tea.WithOutput(output)}
	if options.Input != nil {
		programOptions = append(programOptions, tea.WithInput(options.Input))
	}
	p := tea.NewProgram(initialModel(prompt, logger, options), programOptions...)

	m, err := p.Run()
	if err != nil {
		return "", err
	}

	appModel, ok := m.(appModel)
	if !ok {
		logger.Error("Gline resulted in an unexpected app model")
		panic("Gline resulted in an unexpected app model")
	}

	switch {
	case appModel.interrupted:
		// Leave the abandoned line on screen.
		fmt.Fprint(output, RESET_CURSOR_COLUMN+appModel.renderLine()+"^C\n")
		return "", ErrInterrupted
	case appModel.eof:
		fmt.Fprint(output, RESET_CURSOR_COLUMN+appModel.renderLine()+"\n")
		return "", io.EOF
	}

	fmt.Fprint(output, RESET_CURSOR_COLUMN+appModel.renderLine()+"\n")
	return appModel.result, nil
}
