package bash

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNoHome      = errors.New("no home directory")
	ErrNoPrevious  = errors.New("no previous directory")
	ErrDirNotFound = errors.New("directory not found")
	ErrPermission  = errors.New("permission denied")
	ErrTooManyDirs = errors.New("too many arguments")
)

// Cd implements the cd builtin. args[0] is the command name; the optional
// args[1] may be a directory, "-" for the previous directory or "~". On
// success PWD and OLDPWD are updated in the process environment.
func Cd(args []string, stdout, stderr io.Writer) error {
	if len(args) > 2 {
		fmt.Fprintln(stderr, "cd: too many arguments")
		return ErrTooManyDirs
	}

	var targetDir string
	printTarget := false
	if len(args) == 1 {
		home := os.Getenv("HOME")
		if home == "" {
			fmt.Fprintln(stderr, "cd: HOME not set")
			return ErrNoHome
		}
		targetDir = home
	} else {
		targetDir = args[1]
	}

	switch {
	case targetDir == "~" || strings.HasPrefix(targetDir, "~/"):
		home := os.Getenv("HOME")
		if home == "" {
			fmt.Fprintln(stderr, "cd: HOME not set")
			return ErrNoHome
		}
		targetDir = filepath.Join(home, strings.TrimPrefix(targetDir, "~"))
	case targetDir == "-":
		prevDir := os.Getenv("OLDPWD")
		if prevDir == "" {
			fmt.Fprintln(stderr, "cd: OLDPWD not set")
			return ErrNoPrevious
		}
		targetDir = prevDir
		printTarget = true
	}

	currentDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "cd: unable to get current directory: %v\n", err)
		return err
	}

	if filepath.IsAbs(targetDir) {
		targetDir = filepath.Clean(targetDir)
	} else {
		targetDir = filepath.Join(currentDir, targetDir)
	}

	info, err := os.Stat(targetDir)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintf(stderr, "cd: no such file or directory: %s\n", targetDir)
			return ErrDirNotFound
		}
		fmt.Fprintf(stderr, "cd: %s: %v\n", targetDir, err)
		return err
	}

	if !info.IsDir() {
		fmt.Fprintf(stderr, "cd: not a directory: %s\n", targetDir)
		return ErrDirNotFound
	}

	if err := os.Chdir(targetDir); err != nil {
		if os.IsPermission(err) {
			fmt.Fprintf(stderr, "cd: permission denied: %s\n", targetDir)
			return ErrPermission
		}
		fmt.Fprintf(stderr, "cd: %s: %v\n", targetDir, err)
		return err
	}

	// Child processes see the new directory through the environment.
	if err := os.Setenv("OLDPWD", currentDir); err != nil {
		fmt.Fprintf(stderr, "cd: failed to set OLDPWD: %v\n", err)
	}
	if err := os.Setenv("PWD", targetDir); err != nil {
		fmt.Fprintf(stderr, "cd: failed to set PWD: %v\n", err)
	}

	if printTarget {
		fmt.Fprintln(stdout, targetDir)
	}
	return nil
}
