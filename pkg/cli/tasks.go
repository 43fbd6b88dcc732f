package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harrisonrobin/whattodo/pkg/model"
	"github.com/harrisonrobin/whattodo/pkg/overdue"
	"github.com/harrisonrobin/whattodo/pkg/schedule"
	"github.com/harrisonrobin/whattodo/pkg/util"
	"github.com/spf13/cobra"
)

var errNoMatch = errors.New("no task matches")

func addCmd() *cobra.Command {
	var (
		description string
		duration    string
		importance  int
		deadline    string
	)
	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				now := a.board.Now()
				d := model.NewDraft(now)
				d.Title = strings.Join(args, " ")
				d.Description = description
				d.Importance = importance

				effort, err := util.ParseEffort(duration)
				if err != nil {
					return err
				}
				d.Duration = util.Minutes(effort)

				if deadline != "" {
					if d.Deadline, err = util.ParseDeadline(deadline, time.Local); err != nil {
						return err
					}
				}

				task, err := a.board.Add(ctx, d)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %s: %s (%s, due %s)\n",
					shortID(task.ID), task.Title, util.FormatMinutes(task.Duration),
					task.Deadline.Local().Format("Mon Jan 2 15:04"))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Longer description")
	cmd.Flags().StringVar(&duration, "duration", fmt.Sprint(model.DefaultDuration), "Estimated minutes (5-180 in steps of 5), or H:MM")
	cmd.Flags().IntVarP(&importance, "importance", "i", model.DefaultImportance, "Importance from 1 (very low) to 5 (critical)")
	cmd.Flags().StringVar(&deadline, "deadline", "", "Deadline as YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339 (default: in 24 hours)")
	return cmd
}

func listCmd() *cobra.Command {
	var (
		strategy string
		all      bool
		output   string
		noColor  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally ordered by a strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				now := a.board.Now()
				out := cmd.OutOrStdout()

				if strategy != "" {
					k, err := schedule.ParseKind(strategy)
					if err != nil {
						return err
					}
					if _, err := a.board.Select(k); err != nil {
						return err
					}
					if output == formatTable {
						fmt.Fprintf(out, "Ordered by %s\n\n", schedule.Info(k).Name)
					}
				}

				tasks := a.board.Display(all)
				if err := writeTasks(out, output, tasks, now, !noColor && isTerminal(out)); err != nil {
					return err
				}
				if output == formatTable {
					if n := len(overdue.Sweep(a.board.Tasks(), now)); n > 0 {
						fmt.Fprintf(out, "\n%d overdue task(s)\n", n)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&strategy, "strategy", "s", "", "Order by spt, edf, wspt, fcfs, hpf or cr")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include completed tasks")
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}

func completeCmd(use, short string, completed bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Long:  short + ". ID may be any unique prefix of the task id.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				task, err := resolveID(a.board.Tasks(), args[0])
				if err != nil {
					return err
				}
				if err := a.board.SetCompleted(ctx, task.ID, completed); err != nil {
					return err
				}
				state := "completed"
				if !completed {
					state = "pending"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as %s: %s\n", shortID(task.ID), state, task.Title)
				return nil
			})
		},
	}
}

// resolveID finds the task whose id is arg or uniquely starts with it.
func resolveID(tasks []model.Task, arg string) (model.Task, error) {
	var matches []model.Task
	for _, t := range tasks {
		if t.ID == arg {
			return t, nil
		}
		if strings.HasPrefix(t.ID, arg) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("%w %q", errNoMatch, arg)
	case 1:
		return matches[0], nil
	}
	return model.Task{}, fmt.Errorf("id prefix %q is ambiguous, it matches %d tasks", arg, len(matches))
}

func strategiesCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "strategies",
		Short: "Describe the scheduling strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output, formatTable, formatJSON, formatYAML); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if output != formatTable {
				return writeStructured(out, output, schedule.Catalog())
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
			for _, s := range schedule.Catalog() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Kind, s.Name, s.Description)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatTable, "Output format: table, json or yaml")
	return cmd
}
