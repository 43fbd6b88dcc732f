// Package cli is the whattodo command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/harrisonrobin/whattodo/pkg/board"
	"github.com/harrisonrobin/whattodo/pkg/config"
	"github.com/harrisonrobin/whattodo/pkg/logger"
	"github.com/harrisonrobin/whattodo/pkg/slot"
	"github.com/harrisonrobin/whattodo/pkg/store"
	"github.com/spf13/cobra"
)

// app is what a command needs once the config and store are open.
type app struct {
	cfg   *config.Config
	store *store.Store
	board *board.Board
}

func (a *app) Close() error {
	return a.store.Close()
}

// opener is swapped out by tests.
var opener = openApp

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	s, err := slot.Open(ctx, cfg.SlotOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}
	logger.Debug("using %s storage", cfg.Storage.Backend)
	st := store.New(s)
	return &app{cfg: cfg, store: st, board: board.New(ctx, st, nil)}, nil
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	a, err := opener(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("failed to close storage: %v", err)
		}
	}()
	return fn(ctx, a)
}

// NewRootCmd builds the command tree.
func NewRootCmd(version string) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "whattodo",
		Short:         "whattodo - a task list ordered by scheduling strategies",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(cmd.ErrOrStderr(), verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs")

	root.AddCommand(addCmd())
	root.AddCommand(listCmd())
	root.AddCommand(completeCmd("done", "Mark a task as completed", true))
	root.AddCommand(completeCmd("undo", "Mark a task as not completed", false))
	root.AddCommand(strategiesCmd())
	root.AddCommand(importCmd())
	root.AddCommand(hookCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(authCmd())
	root.AddCommand(configCmd())
	root.AddCommand(serveCmd())
	return root
}

// Execute runs the CLI and exits non-zero on error.
func Execute(version string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, NewRootCmd(version), os.Args[1:], os.Stderr); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, root *cobra.Command, args []string, stderr io.Writer) error {
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return err
	}
	return nil
}
