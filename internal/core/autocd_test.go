package core

import (
	"os"
	"os/user"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExternalCommand(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"ls", true},
		{"cat", true},
		{"sh", true},
		{"/etc", false},
		{"..", false},
		{"nonexistent_command_12345", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, isExternalCommand(tt.input), "isExternalCommand(%q)", tt.input)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		input    string
		expected string
	}{
		{"~", home},
		{"~/Documents", filepath.Join(home, "Documents")},
		{"~/a/b/c", filepath.Join(home, "a", "b", "c")},
		{"~nonexistent_user_12345/x", "~nonexistent_user_12345/x"},
		{"/etc", "/etc"},
		{".", "."},
		{"..", ".."},
		{"relative/path", "relative/path"},
		{"$HOME", "$HOME"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandPath(tt.input), "expandPath(%q)", tt.input)
		})
	}

	t.Run("named user", func(t *testing.T) {
		usr, err := user.Current()
		if err != nil || usr.Username == "" {
			t.Skip("current user not resolvable")
		}
		assert.Equal(t, filepath.Join(usr.HomeDir, "x"), expandPath("~"+usr.Username+"/x"))
	})
}

func TestIsDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "testfile")
	require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

	tests := []struct {
		input    string
		expected bool
	}{
		{tmpDir, true},
		{tmpFile, false},
		{"/nonexistent/path/12345", false},
		{"/tmp", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, isDirectory(tt.input), "isDirectory(%q)", tt.input)
		})
	}
}

func TestAutocdTarget(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "subdir")
	require.NoError(t, os.Mkdir(subDir, 0755))
	t.Setenv("HOME", tmpDir)

	sh := NewShell(Options{Autocd: true})

	tests := []struct {
		name        string
		args        []string
		expectDir   string
		expectFound bool
	}{
		{"command on PATH", []string{"ls"}, "", false},
		{"directory", []string{subDir}, subDir, true},
		{"parent", []string{".."}, "..", true},
		{"tilde", []string{"~"}, tmpDir, true},
		{"tilde subdir", []string{"~/subdir"}, subDir, true},
		{"with arguments", []string{subDir, "x"}, "", false},
		{"nonexistent", []string{"/nonexistent/path/12345"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir, ok := sh.autocdTarget(tt.args)
			assert.Equal(t, tt.expectFound, ok)
			assert.Equal(t, tt.expectDir, dir)
		})
	}

	t.Run("disabled", func(t *testing.T) {
		off := NewShell(Options{})
		_, ok := off.autocdTarget([]string{subDir})
		assert.False(t, ok)
	})
}
