package core

import (
	"fmt"
	"os"
	"os/user"

	"github.com/robottwo/tern/internal/styles"
)

const (
	statusGood = "✅"
	statusBad  = "❗"
)

// FormatPrompt renders >>-[status]-[cmd#]-[user@host:cwd]-> .
func FormatPrompt(status string, next int, username, host, cwd string) string {
	return fmt.Sprintf(">>-[%s]-[%d]-[%s@%s:%s]-> ", status, next, username, host, cwd)
}

// Prompt renders the prompt for the next line from the shell's state.
func (sh *Shell) Prompt() string {
	status := statusGood
	style := styles.STATUS_GOOD
	if sh.lastStatus != 0 {
		status = statusBad
		style = styles.STATUS_BAD
	}
	if sh.promptColor {
		status = style(status)
	}

	host, _ := os.Hostname()
	cwd, err := os.Getwd()
	if err != nil {
		cwd = os.Getenv("PWD")
	}
	return FormatPrompt(status, sh.NextCommandNumber(), currentUser(), host, cwd)
}

func currentUser() string {
	if usr, err := user.Current(); err == nil && usr.Username != "" {
		return usr.Username
	}
	return os.Getenv("USER")
}
