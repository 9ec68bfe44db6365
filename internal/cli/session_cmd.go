package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/weekgrid/internal/cli/formatter"
	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/remotesync"
	"github.com/alexanderramin/weekgrid/internal/repository"
	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var in IdentityInput

	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Sign in and load your plan",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{sessionAnnotation: sessionNone},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := promptIdentity(app, &in); err != nil {
				return err
			}
			if err := validateEmail(in.Email); err != nil {
				return err
			}
			ctx := cmd.Context()
			id := domain.Identity{ID: in.ID, Email: in.Email, DisplayName: in.Name}
			if _, err := app.Session.SignIn(ctx, id); err != nil {
				return err
			}
			defer flushSync(ctx, cmd, app)

			cur, role := app.Session.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", formatter.Bold(cur.Label()), role)
			if msg := syncSummary(ctx, app, cur.ID); msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&in.ID, "id", "", "Account ID")
	cmd.Flags().StringVar(&in.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Save pending changes and sign out",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, _ := app.Session.Current()
			if cur == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
				return nil
			}
			app.Session.SignOut(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Signed out %s\n", cur.Label())
			return nil
		},
	}
}

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sign-in and sync status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, role := app.Session.Current()
			snap := app.Planner.Snapshot()
			view := formatter.StatusView{
				Identity:     cur,
				Role:         role,
				DeviceID:     app.DeviceID,
				Remote:       app.RemoteLabel,
				LastModified: snap.LastModified,
				Tasks:        len(snap.Tasks),
				Locations:    len(snap.Locations),
				Tracked:      len(snap.TrackedTasks),
			}
			if cur != nil && app.Status != nil {
				st, err := app.Status.Get(cmd.Context(), cur.ID)
				if err != nil && !errors.Is(err, repository.ErrNotFound) {
					return err
				}
				view.Sync = st
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatStatus(view))
			return nil
		},
	}
}

func newSyncCmd(app *App) *cobra.Command {
	return required(&cobra.Command{
		Use:   "sync",
		Short: "Reconcile with the remote copy now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outcome := app.Sync.Reconcile(cmd.Context())
			cur, _ := app.Session.Current()
			if outcome == remotesync.OutcomeFailed {
				return fmt.Errorf("sync failed: %s", lastSyncMessage(cmd.Context(), app, cur.ID))
			}
			fmt.Fprintln(cmd.OutOrStdout(), describeOutcome(outcome))
			return nil
		},
	})
}

func describeOutcome(o remotesync.Outcome) string {
	switch o {
	case remotesync.OutcomeCreated:
		return "Started a new plan for this account."
	case remotesync.OutcomeAdopted:
		return "Loaded a newer plan from the remote copy."
	case remotesync.OutcomePushed:
		return "Uploaded local changes."
	case remotesync.OutcomeInSync:
		return "Already in sync."
	case remotesync.OutcomeSkipped:
		return "Not signed in; nothing to sync."
	default:
		return string(o)
	}
}

// syncSummary describes the reconciliation that sign-in just ran.
func syncSummary(ctx context.Context, app *App, uid string) string {
	if app.Status == nil {
		return ""
	}
	st, err := app.Status.Get(ctx, uid)
	if err != nil {
		return ""
	}
	if st.Outcome == string(remotesync.OutcomeFailed) {
		return formatter.StyleYellow.Render("Remote unavailable, working from the local copy: " + st.Message)
	}
	return describeOutcome(remotesync.Outcome(st.Outcome))
}

func lastSyncMessage(ctx context.Context, app *App, uid string) string {
	if app.Status != nil {
		if st, err := app.Status.Get(ctx, uid); err == nil && st.Message != "" {
			return st.Message
		}
	}
	return "remote unavailable"
}

// flushSync is afterCommand for commands that manage the session
// themselves.
func flushSync(ctx context.Context, cmd *cobra.Command, app *App) {
	if err := app.Sync.Flush(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: remote save failed: %v\n", err)
	}
}
