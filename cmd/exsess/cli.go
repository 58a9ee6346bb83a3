package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/exsess/exsess/internal/config"
	"github.com/exsess/exsess/internal/errors"
	"github.com/exsess/exsess/internal/history"
	"github.com/exsess/exsess/internal/restore"
	"github.com/exsess/exsess/internal/session"
	"github.com/exsess/exsess/internal/store"
)

// appDeps bundles everything the CLI commands operate on.
type appDeps struct {
	store     *store.Store
	engine    *restore.Engine
	historyDB *sql.DB
	cfg       *config.Config
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(deps *appDeps) *cli.App {
	app := &cli.App{
		Name:    "exsess",
		Usage:   "Save and restore Explorer window sessions",
		Version: Version,
		Commands: []*cli.Command{
			saveCmd(deps),
			listCmd(deps),
			restoreCmd(deps),
			deleteCmd(deps),
			removePathCmd(deps),
			addPathCmd(deps),
			historyCmd(deps),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// saveCmd creates the save command.
func saveCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "save",
		Usage: "Capture the currently open Explorer windows as a session",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Session name (optional)"},
		},
		Action: func(c *cli.Context) error {
			output, err := deps.store.Capture(c.String("name"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List saved sessions, newest first",
		Action: func(c *cli.Context) error {
			summaries, err := deps.store.List()
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"sessions": summaries,
				"count":    len(summaries),
			})
		},
	}
}

// restoreReport is the CLI output of a restore pass.
type restoreReport struct {
	Key        string `json:"key"`
	Name       string `json:"name"`
	Restored   int    `json:"restored"`
	Skipped    int    `json:"skipped"`
	DurationMS int64  `json:"duration_ms"`
	PassID     string `json:"pass_id,omitempty"`
}

// restoreCmd creates the restore command.
func restoreCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "restore",
		Usage:     "Reopen the windows of a saved session",
		ArgsUsage: "<key>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "timeout-ms", Usage: "How long to wait for launched windows to appear"},
			&cli.IntFlag{Name: "interval-ms", Usage: "Delay between window polls"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("session key is required"))
			}
			key := c.Args().First()

			sess, err := deps.store.Load(key)
			if err != nil {
				return outputError(err)
			}

			openTimeout := deps.cfg.OpenTimeout()
			if c.IsSet("timeout-ms") {
				openTimeout = time.Duration(c.Int("timeout-ms")) * time.Millisecond
			}
			pollInterval := deps.cfg.PollInterval()
			if c.IsSet("interval-ms") {
				pollInterval = time.Duration(c.Int("interval-ms")) * time.Millisecond
			}

			started := time.Now()
			res := deps.engine.Restore(context.Background(), sess, openTimeout, pollInterval)
			elapsed := time.Since(started)

			report := restoreReport{
				Key:        key,
				Name:       sess.Name,
				Restored:   res.Restored,
				Skipped:    res.Skipped,
				DurationMS: elapsed.Milliseconds(),
			}

			// History recording is best effort and never fails the restore.
			passID, err := history.Record(deps.historyDB, history.Pass{
				SessionKey:  key,
				SessionName: sess.Name,
				Restored:    res.Restored,
				Skipped:     res.Skipped,
				StartedAt:   started,
				DurationMS:  elapsed.Milliseconds(),
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to record restore pass: %v\n", err)
			} else {
				report.PassID = passID
			}

			return outputJSON(report)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a saved session",
		ArgsUsage: "<key>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return outputError(errors.NewInvalidRequest("session key is required"))
			}
			key := c.Args().First()

			if err := deps.store.Delete(key); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"key": key, "deleted": true})
		},
	}
}

// removePathCmd creates the remove-path command.
func removePathCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "remove-path",
		Usage:     "Remove all windows for a path from a saved session",
		ArgsUsage: "<key> <path>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("session key and path are required"))
			}
			key := c.Args().Get(0)
			path := c.Args().Get(1)

			remains, err := deps.store.RemoveEntry(key, path)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"key":             key,
				"path":            path,
				"session_remains": remains,
			})
		},
	}
}

// addPathCmd creates the add-path command.
func addPathCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:      "add-path",
		Usage:     "Add a window for a path to a saved session",
		ArgsUsage: "<key> <path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "rect", Usage: "Window geometry as left,top,width,height"},
			&cli.StringFlag{Name: "state", Usage: "Show state: normal|minimized|maximized"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() < 2 {
				return outputError(errors.NewInvalidRequest("session key and path are required"))
			}
			key := c.Args().Get(0)
			path := c.Args().Get(1)

			var rect *session.Rect
			if s := c.String("rect"); s != "" {
				r, err := parseRect(s)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				rect = r
			}

			var state *session.ShowState
			if s := c.String("state"); s != "" {
				st, err := session.ParseShowState(s)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				state = &st
			}

			added, err := deps.store.AddEntry(key, path, rect, state)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"key":   key,
				"path":  path,
				"added": added,
			})
		},
	}
}

// historyCmd creates the history command.
func historyCmd(deps *appDeps) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recent restore passes",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum passes to return"},
		},
		Action: func(c *cli.Context) error {
			limit := deps.cfg.HistoryLimit
			if c.IsSet("limit") {
				limit = c.Int("limit")
			}

			passes, err := history.List(deps.historyDB, limit)
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return outputJSON(map[string]any{
				"passes": passes,
				"count":  len(passes),
			})
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if sessErr, ok := err.(*errors.SessError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", sessErr.Code, sessErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseRect parses "left,top,width,height" into a Rect.
func parseRect(s string) (*session.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("rect must be left,top,width,height")
	}
	vals := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid rect component: %s", p)
		}
		vals[i] = n
	}
	return &session.Rect{Left: vals[0], Top: vals[1], Width: vals[2], Height: vals[3]}, nil
}
