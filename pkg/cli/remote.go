package cli

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/whattodo/pkg/api"
	"github.com/harrisonrobin/whattodo/pkg/auth"
	"github.com/harrisonrobin/whattodo/pkg/config"
	"github.com/harrisonrobin/whattodo/pkg/google"
	"github.com/harrisonrobin/whattodo/pkg/index"
	"github.com/harrisonrobin/whattodo/pkg/logger"
	"github.com/harrisonrobin/whattodo/pkg/overdue"
	"github.com/spf13/cobra"
)

func syncCmd() *cobra.Command {
	var calendarName string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Export tasks to Google Calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if calendarName == "" {
					calendarName = a.cfg.Calendar
				}
				dir, err := config.Dir()
				if err != nil {
					return err
				}
				idx, err := index.NewEventIndex(dir)
				if err != nil {
					logger.Warn("failed to load event index, searching the calendar instead: %v", err)
					idx = nil
				}

				client, err := google.NewClient(ctx, dir, calendarName, idx)
				if err != nil {
					return fmt.Errorf("error creating Google Calendar client: %w", err)
				}

				now := a.board.Now()
				counts := make(map[google.SyncResult]int)
				failed := 0
				for _, task := range a.board.Tasks() {
					_, result, err := client.SyncEvent(ctx, task, now)
					if err != nil {
						logger.Warn("could not sync %q: %v", task.Title, err)
						failed++
						continue
					}
					counts[result]++
				}
				if idx != nil {
					live := make([]string, 0, len(a.board.Tasks()))
					for _, task := range a.board.Tasks() {
						live = append(live, task.ID)
					}
					if n := idx.Prune(live); n > 0 {
						logger.Debug("dropped %d stale event index entries", n)
					}
					if err := idx.Save(); err != nil {
						logger.Warn("failed to save event index: %v", err)
					}
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Synced to %q: %d created, %d updated, %d unchanged\n",
					calendarName, counts[google.Created], counts[google.Updated], counts[google.Unchanged])
				if n := len(overdue.Sweep(a.board.Tasks(), now)); n > 0 {
					fmt.Fprintf(out, "%d overdue task(s) marked with '!'\n", n)
				}
				if failed > 0 {
					return fmt.Errorf("%d task(s) failed to sync", failed)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&calendarName, "calendar", "c", "", "Google Calendar name (overrides config)")
	return cmd
}

func authCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to Google Calendar",
		Long: "Discards any cached token and runs the OAuth flow again. The client secrets are read from " +
			auth.ClientSecretsFile + " in the config directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.Dir()
			if err != nil {
				return fmt.Errorf("could not find path to configuration file: %w", err)
			}
			if err := auth.ResetToken(dir); err != nil {
				return err
			}
			if _, err := auth.GetCalendarService(cmd.Context(), dir); err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Authentication successful! Token saved to %s\n", auth.TokenFile)
			return nil
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set-calendar NAME",
		Short: "Set the default Google Calendar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg.Calendar = args[0]
			if err := config.Save(cfg); err != nil {
				return fmt.Errorf("error saving config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default calendar set to: %s\n", args[0])
			return nil
		},
	})

	var output string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, formatJSON, formatYAML); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			shown := *cfg
			if shown.Storage.DSN != "" {
				shown.Storage.DSN = "********"
			}
			return writeStructured(cmd.OutOrStdout(), output, shown)
		},
	}
	show.Flags().StringVarP(&output, "output", "o", formatYAML, "Output format: json or yaml")
	cmd.AddCommand(show)
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the task list over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				if addr == "" {
					addr = a.cfg.Server.Addr
				}
				h := api.NewServer(a.board).Handler(a.cfg.Server.AllowedOrigins, cmd.ErrOrStderr())
				return api.ListenAndServe(ctx, addr, h)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}
