package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	logFilePrefix = "tern."
	logFileSuffix = ".zst"
	maxLogFiles   = 10
)

type Paths struct {
	HomeDir       string
	DataDir       string
	ConfigDir     string
	AnalyticsFile string
}

var defaultPaths *Paths

func ensureDefaultPaths() {
	if defaultPaths != nil {
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	configRoot := os.Getenv("XDG_CONFIG_HOME")
	if configRoot == "" {
		configRoot = filepath.Join(homeDir, ".config")
	}

	dataDir := filepath.Join(homeDir, ".local", "share", "tern")
	defaultPaths = &Paths{
		HomeDir:       homeDir,
		DataDir:       dataDir,
		ConfigDir:     filepath.Join(configRoot, "tern"),
		AnalyticsFile: filepath.Join(dataDir, "analytics.db"),
	}

	if err := os.MkdirAll(defaultPaths.DataDir, 0755); err != nil {
		panic(err)
	}
}

func HomeDir() string {
	ensureDefaultPaths()
	return defaultPaths.HomeDir
}

func DataDir() string {
	ensureDefaultPaths()
	return defaultPaths.DataDir
}

func AnalyticsFile() string {
	ensureDefaultPaths()
	return defaultPaths.AnalyticsFile
}

// ConfigFile is where the YAML configuration is looked up when -config is
// not given. The file does not have to exist.
func ConfigFile() string {
	ensureDefaultPaths()
	return filepath.Join(defaultPaths.ConfigDir, "config.yaml")
}

// SessionLogFile returns the log file for the shell running as pid.
func SessionLogFile(pid int) string {
	ensureDefaultPaths()
	return filepath.Join(defaultPaths.DataDir, fmt.Sprintf("%s%d%s", logFilePrefix, pid, logFileSuffix))
}

// CleanLogFiles removes every session log in the data directory.
func CleanLogFiles() error {
	return pruneLogFiles(0)
}

// RotateLogFiles keeps the most recently modified session logs and removes
// the rest.
func RotateLogFiles() error {
	return pruneLogFiles(maxLogFiles)
}

func pruneLogFiles(keep int) error {
	logFiles, err := listLogFiles()
	if err != nil {
		return err
	}
	if len(logFiles) <= keep {
		return nil
	}

	// Newest first.
	sort.Slice(logFiles, func(i, j int) bool {
		return logFiles[i].modTime.After(logFiles[j].modTime)
	})

	for _, f := range logFiles[keep:] {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func listLogFiles() ([]logFileInfo, error) {
	ensureDefaultPaths()

	entries, err := os.ReadDir(defaultPaths.DataDir)
	if err != nil {
		return nil, err
	}

	var logFiles []logFileInfo
	for _, entry := range entries {
		if entry.IsDir() || !isLogFileName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		logFiles = append(logFiles, logFileInfo{
			path:    filepath.Join(defaultPaths.DataDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}
	return logFiles, nil
}

func isLogFileName(name string) bool {
	return strings.HasPrefix(name, logFilePrefix) && strings.HasSuffix(name, logFileSuffix)
}

type logFileInfo struct {
	path    string
	modTime time.Time
}
