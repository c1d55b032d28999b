// Package recall maps up/down key presses onto the history cursor.
//
// Typing text and then pressing up searches older entries starting with
// that text. Pressing up on an empty line walks the history one entry at a
// time. Editing a recalled line starts a new search with the edited text.
package recall

import (
	"errors"

	"github.com/robottwo/tern/internal/history"
	"go.uber.org/zap"
)

type Controller struct {
	log    *history.Log
	logger *zap.Logger

	// prefix is the line as typed when the current search started. Empty
	// means plain stepping.
	prefix string
}

func New(log *history.Log, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{log: log, logger: logger}
}

// Older returns the edit line after an up press on line.
func (c *Controller) Older(line string) string {
	return c.move(line, history.Older)
}

// Newer returns the edit line after a down press on line.
func (c *Controller) Newer(line string) string {
	return c.move(line, history.Newer)
}

// Reset forgets the search prefix and ends navigation. Call it whenever a
// line is submitted or abandoned.
func (c *Controller) Reset() {
	c.prefix = ""
	c.log.ResetCursor()
}

// Prefix is the text the current search matches against.
func (c *Controller) Prefix() string {
	return c.prefix
}

func (c *Controller) move(line string, dir history.Direction) string {
	if current, err := c.log.CursorText(); err != nil || current != line {
		c.prefix = line
		c.log.ResetCursor()
	}

	if c.prefix != "" {
		text, err := c.log.SearchPrefix(c.prefix, dir)
		if err != nil {
			c.logger.Debug("no history match", zap.String("prefix", c.prefix), zap.Stringer("direction", dir))
			return line
		}
		return text
	}

	if !c.log.Navigating() {
		if dir == history.Newer {
			return line
		}
		text, err := c.log.SeekNewest()
		if err != nil {
			return line
		}
		return text
	}

	text, err := c.log.CursorStep(dir)
	switch {
	case err == nil:
		return text
	case errors.Is(err, history.ErrAtBoundary) && dir == history.Newer:
		// Walking past the newest entry leaves a blank line.
		c.log.ResetCursor()
		return ""
	default:
		return line
	}
}
