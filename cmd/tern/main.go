package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/robottwo/tern/internal/analytics"
	"github.com/robottwo/tern/internal/config"
	"github.com/robottwo/tern/internal/core"
	"github.com/robottwo/tern/internal/styles"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var BUILD_VERSION = "dev"

var command = flag.String("c", "", "run a command")
var configFile = flag.String("config", "", "use a custom config file instead of ~/.config/tern/config.yaml")
var strictConfig = flag.Bool("strict-config", false, "fail fast if the configuration file contains errors")
var writeConfig = flag.Bool("write-config", false, "write the effective configuration to the config file and exit")

var helpFlag bool
var versionFlag bool

func init() {
	flag.BoolVar(&helpFlag, "h", false, "display help information")
	flag.BoolVar(&helpFlag, "help", false, "display help information")

	flag.BoolVar(&versionFlag, "v", false, "display build version")
	flag.BoolVar(&versionFlag, "ver", false, "display build version")
	flag.BoolVar(&versionFlag, "version", false, "display build version")

	if err := zap.RegisterSink(zstdScheme, newCompressedSink); err != nil {
		panic(fmt.Sprintf("failed to register zstd sink: %v", err))
	}
}

// main parses flags and runs one of three modes:
//   - tern -c "line" runs a single line
//   - tern, with stdin on a terminal, starts the interactive loop
//   - otherwise lines are read from stdin or from the script files given
//
// The process exits with the status of the last command, the status given
// to exit, or 1 when startup fails.
func main() {
	flag.Parse()

	if versionFlag {
		fmt.Println(BUILD_VERSION)
		return
	}

	if helpFlag {
		printUsage()
		return
	}

	os.Exit(run())
}

func run() int {
	configPath := *configFile
	if configPath == "" {
		configPath = core.ConfigFile()
	}

	cfg, err := config.Load(configPath, *strictConfig)
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("tern: aborting due to configuration error: %v", err)))
		return 1
	}
	for _, warning := range cfg.Warnings {
		fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("tern: configuration file %s contains errors: %v", configPath, warning)))
	}

	if *writeConfig {
		if err := config.Save(configPath, cfg); err != nil {
			fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("tern: %v", err)))
			return 1
		}
		fmt.Println(configPath)
		return 0
	}

	logger, err := initializeLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("tern: failed to initialize logger: %v", err)))
		return 1
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("-------- new tern session --------", zap.Any("args", os.Args))
	for _, warning := range cfg.Warnings {
		logger.Warn("configuration problem", zap.String("file", configPath), zap.Error(warning))
	}

	var analyticsManager *analytics.AnalyticsManager
	if cfg.Analytics {
		analyticsManager, err = initializeAnalyticsManager(cfg, logger)
		if err != nil {
			logger.Error("failed to initialize analytics manager", zap.Error(err))
			fmt.Fprintln(os.Stderr, styles.ERROR(fmt.Sprintf("tern: failed to initialize analytics manager: %v", err)))
			return 1
		}
		defer func() {
			if err := analyticsManager.Close(); err != nil {
				logger.Warn("failed to close analytics manager", zap.Error(err))
			}
		}()
	}

	sh := core.NewShell(core.Options{
		HistorySize: cfg.HistorySize,
		JobsSize:    cfg.JobsSize,
		ExpandEnv:   cfg.ExpandEnv,
		Autocd:      cfg.Autocd,
		PromptColor: cfg.PromptColor,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Analytics:   analyticsManager,
		Logger:      logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sh.Reaper().Run(ctx)

	if err := execute(ctx, sh, logger); err != nil {
		logger.Error("unhandled error", zap.Error(err))
		return 1
	}

	logger.Info("session finished", zap.Int("status", sh.LastStatus()))
	return sh.LastStatus()
}

func execute(ctx context.Context, sh *core.Shell, logger *zap.Logger) error {
	// tern -c "echo hello"
	if *command != "" {
		_, _ = sh.ExecuteLine(ctx, *command)
		return nil
	}

	// tern
	if flag.NArg() == 0 {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return core.RunInteractiveShell(ctx, sh, logger)
		}
		return core.RunScript(ctx, sh, os.Stdin)
	}

	// tern script.tern
	for _, filePath := range flag.Args() {
		if err := runScriptFile(ctx, sh, filePath); err != nil {
			return err
		}
	}
	return nil
}

func runScriptFile(ctx context.Context, sh *core.Shell, filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()
	return core.RunScript(ctx, sh, file)
}

func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	logLevel := zap.NewAtomicLevelAt(cfg.Level())
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	logFile := cfg.LogFile
	sessionLog := logFile == ""
	if sessionLog {
		if cfg.LogClean {
			_ = core.CleanLogFiles()
		}
		logFile = core.SessionLogFile(os.Getpid())
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		zstdScheme + "://" + logFile,
	}
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, err
	}

	// The new session log is the newest file, so it survives rotation.
	if sessionLog && !cfg.LogClean {
		if err := core.RotateLogFiles(); err != nil {
			logger.Warn("failed to rotate log files", zap.Error(err))
		}
	}

	return logger, nil
}

func initializeAnalyticsManager(cfg *config.Config, logger *zap.Logger) (*analytics.AnalyticsManager, error) {
	path := cfg.AnalyticsFile
	if path == "" {
		path = core.AnalyticsFile()
	}
	return analytics.NewAnalyticsManager(path, logger)
}

func printUsage() {
	fmt.Println(styles.PROMPT("Usage:") + " tern [flags] [script]")
	fmt.Println("\nA small interactive shell with numbered history and background jobs.")
	fmt.Println()

	fmt.Println(styles.PROMPT("Options:"))

	// Aliases share a usage string and are printed on one line.
	printed := make(map[string]bool)

	flag.VisitAll(func(f *flag.Flag) {
		if printed[f.Name] {
			return
		}

		aliases := []string{f.Name}
		flag.VisitAll(func(p *flag.Flag) {
			if p.Name == f.Name {
				return
			}
			if p.Usage == f.Usage {
				aliases = append(aliases, p.Name)
				printed[p.Name] = true
			}
		})
		printed[f.Name] = true

		var shortFlags, longFlags []string
		for _, name := range aliases {
			if len(name) == 1 {
				shortFlags = append(shortFlags, "-"+name)
			} else {
				longFlags = append(longFlags, "-"+name)
			}
		}
		flagStr := strings.Join(append(shortFlags, longFlags...), ", ")

		argName, usage := flag.UnquoteUsage(f)
		if argName != "" {
			flagStr += " <" + argName + ">"
		}

		fmt.Printf("  %-28s %s\n", flagStr, usage)
	})

	fmt.Println()
	fmt.Println(styles.PROMPT("History:"))
	fmt.Printf("  %-28s %s\n", "!!", "Run the previous command again")
	fmt.Printf("  %-28s %s\n", "!<n>", "Run command number n")
	fmt.Printf("  %-28s %s\n", "!<prefix>", "Run the newest command starting with prefix")
	fmt.Printf("  %-28s %s\n", "Up / Down", "Walk the history, filtered by what is typed")
	fmt.Println()
	fmt.Println(styles.PROMPT("Builtins:"))
	fmt.Printf("  %-28s %s\n", "cd, exit, history, jobs", "")
	fmt.Printf("  %-28s %s\n", analytics.CommandName, "Show recently executed commands")
}
