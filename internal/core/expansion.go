package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robottwo/tern/internal/bash"
	"github.com/robottwo/tern/internal/history"
	"github.com/robottwo/tern/internal/styles"
	"go.uber.org/zap"
)

const bangMarker = "!"

var ErrBangNotFound = errors.New("event not found")

// runBang resolves !!, !N and !prefix references in the first word. The
// entry logged for the reference itself is replaced by the resolved line,
// which is then handed back to the dispatcher for execution. Words after
// the reference are appended to the resolved line.
func runBang(_ context.Context, sh *Shell, cmd *command) (int, error) {
	word := cmd.args[0]
	ref := strings.TrimPrefix(word, bangMarker)
	if ref == "" {
		return 0, nil
	}

	sh.history.RemoveByID(cmd.id)

	text, err := sh.resolveBang(ref, cmd)
	if err != nil {
		sh.reportError(fmt.Sprintf("%s: event not found", word))
		return 1, fmt.Errorf("%w: %s", ErrBangNotFound, word)
	}
	if len(cmd.args) > 1 {
		text += " " + strings.Join(cmd.args[1:], " ")
	}

	sh.logger.Debug("expanded history reference", zap.String("ref", word), zap.String("line", text))
	fmt.Fprintln(sh.stderr, styles.HINT(text))

	cmd.text = text
	cmd.id = sh.history.Append(text)
	cmd.args = bash.Tokenize(text)
	return 0, errNotHandled
}

func (sh *Shell) resolveBang(ref string, cmd *command) (string, error) {
	if ref == bangMarker {
		return sh.lookupWithOldest(cmd.id-1, cmd)
	}
	if n, err := strconv.Atoi(ref); err == nil && n != 0 {
		return sh.lookupWithOldest(n, cmd)
	}

	// A reference search starts fresh and must not leave the cursor where
	// interactive recall would pick it up.
	sh.history.ResetCursor()
	text, err := sh.history.SearchPrefix(ref, history.Older)
	sh.history.ResetCursor()
	if err == nil {
		return text, nil
	}
	if cmd.hasOldest && strings.HasPrefix(cmd.oldestText, ref) {
		return cmd.oldestText, nil
	}
	return "", err
}

// lookupWithOldest looks up command number n, falling back to the entry
// that logging the current line evicted.
func (sh *Shell) lookupWithOldest(n int, cmd *command) (string, error) {
	text, err := sh.history.Lookup(n)
	if err == nil {
		return text, nil
	}
	if cmd.hasOldest && n == cmd.oldestID {
		return cmd.oldestText, nil
	}
	return "", err
}
