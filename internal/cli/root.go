package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Session modes, set as the "session" annotation on a command or one of
// its parents.
const (
	sessionAnnotation = "session"
	// sessionNone skips restoring the cached sign-in.
	sessionNone = "none"
	// sessionRequired fails unless someone is signed in.
	sessionRequired = "required"
)

// NewRootCmd creates the top-level "weekgrid" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "weekgrid",
		Short:         "Four-week planner with per-user sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return beforeCommand(cmd.Context(), app, cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			afterCommand(cmd, app)
			return nil
		},
	}
	root.PersistentFlags().AddFlagSet(globalFlags(new(string)))

	root.AddCommand(
		newLoginCmd(app),
		newLogoutCmd(app),
		newStatusCmd(app),
		newSyncCmd(app),
		newTaskCmd(app),
		newLocationCmd(app),
		newCalendarCmd(app),
		newUnfinishedCmd(app),
		newTrackedCmd(app),
		newExportCmd(app),
		newImportCmd(app),
		newClearCmd(app),
		newBoardCmd(app),
		newServeCmd(app),
	)
	return root
}

func globalFlags(configPath *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet("weekgrid", pflag.ContinueOnError)
	fs.StringVar(configPath, "config", "", "YAML config file (default $WEEKGRID_CONFIG)")
	return fs
}

// ConfigPath extracts --config from the raw arguments so configuration can
// be loaded before the command tree is built. Other flags are ignored.
func ConfigPath(args []string) string {
	var path string
	fs := globalFlags(&path)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	_ = fs.Parse(args)
	return path
}

const defaultFlushTimeout = 15 * time.Second

func sessionMode(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if mode, ok := c.Annotations[sessionAnnotation]; ok {
			return mode
		}
	}
	return ""
}

func beforeCommand(ctx context.Context, app *App, cmd *cobra.Command) error {
	mode := sessionMode(cmd)
	if mode == sessionNone {
		return nil
	}
	if _, err := app.Session.Restore(ctx); err != nil {
		return fmt.Errorf("restoring sign-in: %w", err)
	}
	if mode == sessionRequired {
		if _, err := app.Session.Require(); err != nil {
			return fmt.Errorf("%w: run `weekgrid login` first", err)
		}
	}
	return nil
}

// afterCommand pushes any save still waiting on the debounce timer. A
// failed push is reported but the local change stands.
func afterCommand(cmd *cobra.Command, app *App) {
	if sessionMode(cmd) == sessionNone || app.Sync == nil {
		return
	}
	timeout := app.Config.RequestTimeout()
	if timeout <= 0 {
		timeout = defaultFlushTimeout
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()
	if err := app.Sync.Flush(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: saved locally, remote save failed: %v\n", err)
	}
}

func required(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[sessionAnnotation] = sessionRequired
	return cmd
}
