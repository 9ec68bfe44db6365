package cli

import (
	"context"
	"log/slog"

	"github.com/alexanderramin/weekgrid/internal/config"
	"github.com/alexanderramin/weekgrid/internal/planner"
	"github.com/alexanderramin/weekgrid/internal/remotesync"
	"github.com/alexanderramin/weekgrid/internal/repository"
	"github.com/alexanderramin/weekgrid/internal/session"
)

// App holds everything the commands act on. cmd/weekgrid wires it.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Planner *planner.Service
	Session *session.Binder
	Sync    *remotesync.Engine
	Status  repository.SyncStatusRepo

	DeviceID string
	// RemoteLabel describes where documents sync to, for `status`.
	RemoteLabel string

	// Serve runs the document service on addr until ctx is done.
	Serve func(ctx context.Context, addr string) error

	// IsInteractive reports whether prompts can be shown. Nil means never.
	IsInteractive func() bool
	// Confirm asks a yes/no question. Nil uses a huh confirmation.
	Confirm func(title string) (bool, error)
	// PromptIdentity fills missing identity fields. Nil uses a huh form.
	PromptIdentity func(id *IdentityInput) error
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}
