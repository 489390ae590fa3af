package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/templui/tutordesk/internal/config"
	"github.com/templui/tutordesk/internal/logger"
)

// loaded is set before any subcommand runs.
var loaded *config.Config

func main() {
	root := &cobra.Command{
		Use:           "goalctl",
		Short:         "Manage tutoring goals from the command line",
		Long:          "goalctl runs the goal store against the repository configured in the environment (.env supported).",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg := config.Load()
			// The CLI should not start the scheduler or mail anybody
			cfg.SchedulerEnabled = false
			cfg.NotifyEmail = ""
			logger.InitCLI(cfg.AppEnv)
			loaded = cfg
		},
	}

	root.AddCommand(
		newListCommand(),
		newCompletedCommand(),
		newAddCommand(),
		newEditCommand(),
		newProgressCommand(),
		newCompleteCommand(),
		newSuspendCommand(),
		newResumeCommand(),
		newExtendCommand(),
		newDeleteCommand(),
		newSoundCommand(),
		newImportCommand(),
		newResetCommand(),
		newTokenCommand(),
		newMigrateCommand(),
	)

	err := root.ExecuteContext(context.Background())
	if err != nil {
		os.Exit(1)
	}
}
