package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpx/cull/internal/config"
	"github.com/hpx/cull/internal/db"
	"github.com/hpx/cull/internal/errors"
	"github.com/hpx/cull/internal/review"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(database *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "cull",
		Usage:   "Review a folder of media files, one item at a time",
		Version: Version,
		Commands: []*cli.Command{
			reviewCmd(database, cfg),
			statusCmd(database, cfg),
			resetCmd(database, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// openSession resumes (or starts) the session for the directory argument.
func openSession(c *cli.Context, database *sql.DB, cfg *config.Config) (*review.Session, error) {
	root := c.Args().First()
	if root == "" {
		return nil, errors.NewInvalidRequest("directory argument is required")
	}
	return review.OpenDirSession(c.Context, cfg, root, db.NewSessionStore(database))
}

// reviewCmd creates the interactive review command.
func reviewCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Review a directory interactively (k=keep d=toss u=undo f=flush s=status q=quit)",
		ArgsUsage: "<dir>",
		Action: func(c *cli.Context) error {
			s, err := openSession(c, database, cfg)
			if err != nil {
				return outputError(err)
			}
			return runReview(c.Context, s, os.Stdin, os.Stdout)
		},
	}
}

// statusCmd creates the status command.
func statusCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "status",
		Usage:     "Show review progress for a directory",
		ArgsUsage: "<dir>",
		Action: func(c *cli.Context) error {
			s, err := openSession(c, database, cfg)
			if err != nil {
				return outputError(err)
			}
			status, err := s.Status()
			if err != nil {
				return outputError(err)
			}
			return outputJSON(status)
		},
	}
}

// resetCmd creates the reset command.
func resetCmd(database *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "reset",
		Usage:     "Discard saved progress and restart at the head of the catalog",
		ArgsUsage: "<dir>",
		Action: func(c *cli.Context) error {
			s, err := openSession(c, database, cfg)
			if err != nil {
				return outputError(err)
			}
			if err := s.Reset(c.Context); err != nil {
				return outputError(err)
			}
			status, err := s.Status()
			if err != nil {
				return outputError(err)
			}
			return outputJSON(status)
		},
	}
}

// runReview drives the interactive loop: print the item under review, read a
// one-letter command, apply it. Pending deletions are flushed on exit so
// nothing queued in this run is silently dropped.
func runReview(ctx context.Context, s *review.Session, in io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)
	scanner := bufio.NewScanner(in)

	finish := func() error {
		if _, err := s.Flush(ctx); err != nil {
			fmt.Fprintf(out, "flush failed: %v\n", err)
		}
		status, err := s.Status()
		if err != nil {
			return err
		}
		return enc.Encode(status)
	}

	for {
		if s.Done() {
			fmt.Fprintln(out, "review complete")
			return finish()
		}
		cur, err := s.Current()
		if err != nil {
			return err
		}
		if err := enc.Encode(cur); err != nil {
			return err
		}

		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return finish()
		}

		var result any
		switch cmd := strings.ToLower(strings.TrimSpace(scanner.Text())); cmd {
		case "":
			continue
		case "k", "keep", "a", "accept":
			result, err = s.Accept(ctx)
		case "d", "t", "toss", "reject":
			result, err = s.Reject(ctx)
		case "u", "undo":
			result, err = s.Undo(ctx)
		case "f", "flush":
			result, err = s.Flush(ctx)
		case "s", "status":
			result, err = s.Status()
		case "p", "peek":
			result, err = s.Thumbnail(ctx)
		case "q", "quit", "exit":
			return finish()
		case "h", "help", "?":
			fmt.Fprintln(out, "commands: k=keep d=toss u=undo f=flush s=status p=peek q=quit")
			continue
		default:
			fmt.Fprintf(out, "unknown command %q (h for help)\n", cmd)
			continue
		}
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		if err := enc.Encode(result); err != nil {
			return err
		}
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
	if cullErr, ok := err.(*errors.CullError); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", cullErr.Code, cullErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}
