package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/harrisonrobin/whattodo/pkg/board"
	"github.com/harrisonrobin/whattodo/pkg/logger"
	"github.com/harrisonrobin/whattodo/pkg/model"
	"github.com/harrisonrobin/whattodo/pkg/orgmode"
	"github.com/harrisonrobin/whattodo/pkg/taskwarrior"
	"github.com/spf13/cobra"
)

// taskwarriorClient is swapped out by tests.
var taskwarriorClient = taskwarrior.NewClient()

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import tasks from Org-mode files or Taskwarrior",
	}
	cmd.AddCommand(importOrgCmd())
	cmd.AddCommand(importTaskwarriorCmd())
	return cmd
}

func importOrgCmd() *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "org FILE...",
		Short: "Import TODO headings that carry a DEADLINE",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				tasks, err := orgmode.ParseFiles(args, a.board.Now())
				if err != nil {
					return err
				}
				return importTasks(ctx, cmd.OutOrStdout(), a.board, orgmode.FilterTasks(tasks, filter))
			})
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", "", "Only import headings whose title contains this text")
	return cmd
}

func importTaskwarriorCmd() *cobra.Command {
	var filter []string
	cmd := &cobra.Command{
		Use:   "taskwarrior [FILE|-]",
		Short: "Import from `task export` output, or run it when no file is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				var (
					twTasks []taskwarrior.Task
					err     error
				)
				switch {
				case len(args) == 0:
					twTasks, err = taskwarriorClient.GetTasks(ctx, filter)
				case args[0] == "-":
					twTasks, err = taskwarriorClient.ParseTasks(cmd.InOrStdin())
				default:
					twTasks, err = readTaskwarriorFile(args[0])
				}
				if err != nil {
					return err
				}
				return importTasks(ctx, cmd.OutOrStdout(), a.board, taskwarrior.Convert(twTasks, a.board.Now()))
			})
		},
	}
	cmd.Flags().StringSliceVar(&filter, "filter", []string{"status:pending"}, "Taskwarrior filter used when running `task export`")
	return cmd
}

func readTaskwarriorFile(path string) ([]taskwarrior.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return taskwarriorClient.ParseTasks(f)
}

func importTasks(ctx context.Context, out io.Writer, b *board.Board, tasks []model.Task) error {
	res, err := b.Import(ctx, tasks)
	fmt.Fprintf(out, "Imported %d new, %d updated, %d unchanged\n", res.Added, res.Updated, res.Unchanged)
	return err
}

// hookCmd speaks the Taskwarrior on-add/on-modify hook protocol: it echoes
// the final task JSON back unchanged and mirrors that task into the store.
// Failures are logged so a broken store never blocks Taskwarrior.
func hookCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "hook",
		Short:  "Taskwarrior on-add/on-modify hook",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
			last := lines[len(lines)-1]
			if len(last) == 0 {
				return nil
			}
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n", last); err != nil {
				return err
			}

			twTasks, err := taskwarriorClient.ParseTasks(bytes.NewReader(last))
			if err != nil {
				logger.Warn("hook: %v", err)
				return nil
			}
			err = withApp(cmd, func(ctx context.Context, a *app) error {
				_, err := a.board.Import(ctx, taskwarrior.Convert(twTasks, a.board.Now()))
				return err
			})
			if err != nil {
				logger.Warn("hook: could not mirror task: %v", err)
			}
			return nil
		},
	}
}
