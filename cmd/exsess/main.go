package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/exsess/exsess/internal/config"
	"github.com/exsess/exsess/internal/history"
	"github.com/exsess/exsess/internal/mcp"
	"github.com/exsess/exsess/internal/restore"
	"github.com/exsess/exsess/internal/shell"
	"github.com/exsess/exsess/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"save": true, "list": true, "restore": true, "delete": true,
	"remove-path": true, "add-path": true, "history": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ __  __ ___  ___  ___  ___
  | __|\ \/ // __|| __|/ __|/ __|
  | _|  >  < \__ \| _| \__ \\__ \
  |___|/_/\_\|___/|___||___/|___/

  Explorer session save & restore

  Usage: exsess <command> [options]
         exsess --help

  MCP server mode requires piped input.`)
}

// newLogger builds the process logger writing to stderr.
func newLogger() zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}
	return zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before any setup (no store needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".exsess")

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger()

	st, err := store.New(baseDir, shell.NewEnumerator(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize session store: %v\n", err)
		os.Exit(1)
	}

	historyDB, err := history.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize history database: %v\n", err)
		os.Exit(1)
	}
	defer historyDB.Close()

	engine := restore.New(shell.NewEnumerator(), shell.NewLauncher(), shell.NewPositioner(), logger)

	for _, name := range mcp.ValidateDisabledTools(cfg.DisabledTools) {
		logger.Warn().Str("tool", name).Msg("unknown tool in disabled_tools")
	}

	deps := &appDeps{
		store:     st,
		engine:    engine,
		historyDB: historyDB,
		cfg:       cfg,
	}

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(deps)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'exsess --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(st, engine, historyDB, cfg, logger, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
