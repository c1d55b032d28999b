package core

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/charmbracelet/lipgloss"
	"github.com/robottwo/tern/internal/completion"
	"github.com/robottwo/tern/internal/recall"
	"github.com/robottwo/tern/pkg/gline"
	"go.uber.org/zap"
)

// RunInteractiveShell reads lines from the terminal until exit or Ctrl+D.
func RunInteractiveShell(ctx context.Context, sh *Shell, logger *zap.Logger) error {
	chanSIGINT := make(chan os.Signal, 1)
	signal.Notify(chanSIGINT, os.Interrupt)
	defer signal.Stop(chanSIGINT)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-chanSIGINT:
				// ignore SIGINT; the foreground child gets it from the terminal
			}
		}
	}()

	controller := recall.New(sh.History(), logger)
	completer := completion.NewCompleter(sh.BuiltinNames())

	for {
		options := gline.NewOptions()
		options.Recaller = controller
		options.Completer = completer
		if sh.promptColor {
			options.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
		}

		line, err := gline.Gline(sh.Prompt(), logger, options)
		if err != nil {
			if errors.Is(err, gline.ErrInterrupted) {
				logger.Debug("input interrupted by user")
				continue
			}
			if errors.Is(err, io.EOF) {
				logger.Debug("end of input")
				return nil
			}
			logger.Error("error reading input through gline", zap.Error(err))
			return err
		}

		logger.Debug("received command", zap.String("line", line))
		if _, err := sh.ExecuteLine(ctx, line); errors.Is(err, ErrExit) {
			logger.Debug("exiting...")
			return nil
		}
	}
}

// RunScript executes every line of r in order. End of input behaves like
// exit.
func RunScript(ctx context.Context, sh *Shell, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := sh.ExecuteLine(ctx, scanner.Text()); errors.Is(err, ErrExit) {
			return nil
		}
	}
	return scanner.Err()
}
