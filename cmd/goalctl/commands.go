package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/templui/tutordesk/internal/app"
	"github.com/templui/tutordesk/internal/config"
	"github.com/templui/tutordesk/internal/ctxkeys"
	"github.com/templui/tutordesk/internal/db"
	"github.com/templui/tutordesk/internal/markdown"
	"github.com/templui/tutordesk/internal/model"
	"github.com/templui/tutordesk/internal/service"
)

// withApp opens the configured store, runs fn and prints the notices it raised.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a, err := app.New(cmd.Context(), loaded)
	if err != nil {
		return err
	}
	defer a.Close()

	rec := &model.FeedbackRecorder{}
	ctx := ctxkeys.WithFeedback(cmd.Context(), rec)

	err = fn(ctx, a)
	for _, n := range rec.Notices() {
		fmt.Fprintln(cmd.ErrOrStderr(), n.Message)
	}
	return err
}

func printGoals(w io.Writer, goals []*model.Goal, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(goals)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tPROGRESS\tDUE\tTITLE")
	for _, g := range goals {
		due := "-"
		if g.DueDate != nil {
			due = g.DueDate.Format(time.DateOnly)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d%%\t%s\t%s\n", g.ID, g.Status, g.Priority, g.Progress, due, g.Title)
	}
	return tw.Flush()
}

func printGoal(w io.Writer, g *model.Goal) error {
	return printGoals(w, []*model.Goal{g}, false)
}

func newListCommand() *cobra.Command {
	var filter string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active and suspended goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, ok := model.ParseGoalFilter(filter)
			if !ok {
				return fmt.Errorf("unknown filter %q", filter)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printGoals(cmd.OutOrStdout(), a.Store.Filter(f), asJSON)
			})
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "all, active, suspended, overdue, high, medium or low")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newCompletedCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "completed",
		Short: "List completed goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return printGoals(cmd.OutOrStdout(), a.Store.CompletedGoals(), asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newAddCommand() *cobra.Command {
	var in service.GoalInput
	var due, priority string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := model.ParseGoalPriority(priority)
			if !ok {
				return fmt.Errorf("priority must be one of: high, medium, low")
			}
			in.Priority = p

			if due != "" {
				t, err := model.ParseDueDate(due)
				if err != nil {
					return err
				}
				in.DueDate = &t
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				goal, err := a.Store.Create(ctx, in)
				if err != nil {
					return err
				}
				return printGoal(cmd.OutOrStdout(), goal)
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "goal title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "markdown description")
	cmd.Flags().StringVar(&in.Target, "target", "", "what counts as done")
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD")
	cmd.Flags().StringVar(&priority, "priority", "medium", "high, medium or low")
	cmd.Flags().IntVar(&in.Progress, "progress", 0, "initial progress in percent")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newEditCommand() *cobra.Command {
	var title, description, target, due, priority string
	var progress int
	var clearDue bool

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Change fields of a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var upd service.GoalUpdate
			if flags.Changed("title") {
				upd.Title = &title
			}
			if flags.Changed("description") {
				upd.Description = &description
			}
			if flags.Changed("target") {
				upd.Target = &target
			}
			if flags.Changed("progress") {
				upd.Progress = &progress
			}
			if flags.Changed("priority") {
				p, ok := model.ParseGoalPriority(priority)
				if !ok {
					return fmt.Errorf("priority must be one of: high, medium, low")
				}
				upd.Priority = &p
			}
			if flags.Changed("due") {
				t, err := model.ParseDueDate(due)
				if err != nil {
					return err
				}
				upd.DueDate = &t
			}
			upd.ClearDueDate = clearDue

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				goal, err := a.Store.Edit(ctx, args[0], upd)
				if err != nil {
					return err
				}
				return printGoal(cmd.OutOrStdout(), goal)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "goal title")
	cmd.Flags().StringVar(&description, "description", "", "markdown description")
	cmd.Flags().StringVar(&target, "target", "", "what counts as done")
	cmd.Flags().StringVar(&due, "due", "", "due date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().StringVar(&priority, "priority", "", "high, medium or low")
	cmd.Flags().IntVar(&progress, "progress", 0, "progress in percent; 100 completes the goal")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	return cmd
}

func newProgressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "progress ID DELTA",
		Short: "Add (or subtract) percentage points",
		Long:  "Add percentage points to a goal. Pass negative deltas after --, e.g. goalctl progress ID -- -10.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("delta must be a whole number: %w", err)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				goal, err := a.Store.UpdateProgress(ctx, args[0], delta)
				if err != nil {
					return err
				}
				return printGoal(cmd.OutOrStdout(), goal)
			})
		},
	}
}

// goalCommand builds a command that runs a single-id store operation.
func goalCommand(use, short string, op func(s *service.GoalStore, ctx context.Context, id string) (*model.Goal, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				goal, err := op(a.Store, ctx, args[0])
				if err != nil {
					return err
				}
				return printGoal(cmd.OutOrStdout(), goal)
			})
		},
	}
}

func newCompleteCommand() *cobra.Command {
	return goalCommand("complete", "Mark a goal as completed", (*service.GoalStore).Complete)
}

func newResumeCommand() *cobra.Command {
	return goalCommand("resume", "Resume a suspended goal", (*service.GoalStore).Resume)
}

func newSuspendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "suspend ID DAYS",
		Short: "Pause a goal for a number of days",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("days must be a whole number: %w", err)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				goal, err := a.Store.Suspend(ctx, args[0], days)
				if err != nil {
					return err
				}
				return printGoal(cmd.OutOrStdout(), goal)
			})
		},
	}
}

func newExtendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extend ID DATE",
		Short: "Set a new due date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			due, err := model.ParseDueDate(args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				goal, err := a.Store.ExtendDeadline(ctx, args[0], due)
				if err != nil {
					return err
				}
				return printGoal(cmd.OutOrStdout(), goal)
			})
		},
	}
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a goal from either list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return a.Store.Delete(ctx, args[0])
			})
		},
	}
}

func newSoundCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "sound on|off",
		Short:     "Turn audio cues on or off",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			enabled := args[0] == "on"
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				a.Store.SetSoundEnabled(ctx, enabled)
				fmt.Fprintf(cmd.OutOrStdout(), "sound %s\n", args[0])
				return nil
			})
		},
	}
}

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.md...",
		Short: "Create goals from markdown files with front matter",
		Long: `Each file needs YAML front matter with at least a title:

  ---
  title: Learn the periodic table
  target: First 36 elements
  due: 2026-11-30
  priority: high
  progress: 20
  ---
  The body becomes the goal description.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parser := markdown.NewParser()

			var inputs []service.GoalInput
			for _, path := range args {
				source, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				doc, err := parser.ParseGoal(source)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				priority, ok := model.ParseGoalPriority(doc.Priority)
				if !ok {
					return fmt.Errorf("%s: priority must be one of: high, medium, low", path)
				}
				inputs = append(inputs, service.GoalInput{
					Title:       doc.Title,
					Description: doc.Description,
					Target:      doc.Target,
					DueDate:     doc.DueDate,
					Priority:    priority,
					Progress:    doc.Progress,
				})
			}

			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var created []*model.Goal
				for i, in := range inputs {
					goal, err := a.Store.Create(ctx, in)
					if err != nil {
						return fmt.Errorf("%s: %w", args[i], err)
					}
					created = append(created, goal)
				}
				return printGoals(cmd.OutOrStdout(), created, false)
			})
		},
	}
}

func newResetCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every stored goal and the sound preference",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes all goals in namespace %q; pass --yes to confirm", loaded.StoreNamespace)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				err := a.Repository.Clear(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "cleared namespace %s\n", loaded.StoreNamespace)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newTokenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "token SUBJECT",
		Short: "Mint an API bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth := service.NewAuthService(loaded.APITokenSecret, loaded.APITokenExpiry)
			token, err := auth.GenerateToken(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
}

func newMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands (sqlite and pgx drivers)",
	}

	run := func(fn func(ctx context.Context, cmd *cobra.Command, a *app.App) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			if loaded.StoreDriver != config.DriverSQLite && loaded.StoreDriver != config.DriverPgx {
				return fmt.Errorf("store driver %q has no migrations", loaded.StoreDriver)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return fn(ctx, cmd, a)
			})
		}
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app.App) error {
			version, err := db.MigrationVersion(ctx, a.DB.DB, loaded.StoreDriver)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		}),
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration (drops stored goals)",
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app.App) error {
			return db.MigrateDown(ctx, a.DB.DB, loaded.StoreDriver)
		}),
	})

	return migrateCmd
}
