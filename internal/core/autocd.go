package core

import (
	"os"
	"os/exec"
	"os/user"
	"path/filepath"
	"strings"
)

// isExternalCommand checks if the word is a command found in PATH.
func isExternalCommand(word string) bool {
	_, err := exec.LookPath(word)
	return err == nil
}

// expandPath expands ~, ~/rest and ~user/rest.
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	username, rest, _ := strings.Cut(path[1:], "/")
	var home string
	if username == "" {
		home = os.Getenv("HOME")
		if home == "" {
			if usr, err := user.Current(); err == nil {
				home = usr.HomeDir
			}
		}
	} else if usr, err := user.Lookup(username); err == nil {
		home = usr.HomeDir
	}
	if home == "" {
		return path
	}
	return filepath.Join(home, rest)
}

// isDirectory checks if path exists and is a directory
func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// autocdTarget reports the directory to change into when autocd is on and
// args is a single word that is neither a command on PATH nor anything but
// an existing directory.
func (sh *Shell) autocdTarget(args []string) (string, bool) {
	if !sh.autocd || len(args) != 1 {
		return "", false
	}

	word := args[0]
	if isExternalCommand(word) {
		return "", false
	}

	dir := expandPath(word)
	if !isDirectory(dir) {
		return "", false
	}
	return dir, true
}
