package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderramin/weekgrid/internal/cli"
	"github.com/alexanderramin/weekgrid/internal/clock"
	"github.com/alexanderramin/weekgrid/internal/config"
	"github.com/alexanderramin/weekgrid/internal/db"
	"github.com/alexanderramin/weekgrid/internal/localcache"
	"github.com/alexanderramin/weekgrid/internal/planner"
	"github.com/alexanderramin/weekgrid/internal/remote"
	"github.com/alexanderramin/weekgrid/internal/remotesync"
	"github.com/alexanderramin/weekgrid/internal/repository"
	"github.com/alexanderramin/weekgrid/internal/session"
	"github.com/alexanderramin/weekgrid/internal/state"
	"github.com/mattn/go-isatty"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(cli.ConfigPath(os.Args[1:]))
	if err != nil {
		return err
	}
	logger, err := config.NewLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	// Open database
	database, err := db.OpenDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	deviceID, err := repository.NewSQLiteDeviceRepo(database).GetOrCreate(ctx)
	if err != nil {
		return err
	}
	clk := clock.Real()

	// Without a remote service the local database stands in for it, so
	// per-account documents and sync status still work offline.
	var docs remote.DocumentStore
	remoteLabel := "local (" + cfg.DB + ")"
	if cfg.Remote.URL != "" {
		clientCfg := remote.DefaultClientConfig(cfg.Remote.URL)
		clientCfg.Token = cfg.Remote.Token
		clientCfg.Timeout = cfg.RemoteTimeout()
		clientCfg.MaxRetries = cfg.Remote.MaxRetries
		docs = remote.NewHTTPStore(clientCfg, logger)
		remoteLabel = cfg.Remote.URL
	} else {
		docs = remote.NewRepositoryStore(repository.NewSQLiteDocumentRepo(database), clk)
	}

	// Wire the sync core
	cache := localcache.New(db.NewSQLiteUnitOfWork(database), repository.NewSQLiteSnapshotRepo(database), logger)
	store := state.New(cache, clk, logger)
	statusRepo := repository.NewSQLiteSyncStatusRepo(database)
	engine := remotesync.New(store, docs, clk, remotesync.Config{
		Debounce:       cfg.Debounce(),
		RequestTimeout: cfg.RequestTimeout(),
		DeviceID:       deviceID,
	}, logger, remotesync.WithStatusRecorder(statusRepo))
	store.SetSaveScheduler(engine)

	binder := session.New(cache, store, engine,
		session.WithAdminEmails(cfg.AdminEmails...),
		session.WithLoginRepo(repository.NewSQLiteLoginRepo(database)),
		session.WithLogger(logger))

	app := &cli.App{
		Config: cfg,
		Logger: logger,
		Planner: planner.New(store,
			planner.WithGuard(func() error {
				_, err := binder.Require()
				return err
			}),
			planner.WithObserver(planner.NewLogUseCaseObserver(logger))),
		Session:     binder,
		Sync:        engine,
		Status:      statusRepo,
		DeviceID:    deviceID,
		RemoteLabel: remoteLabel,
		Serve: func(ctx context.Context, addr string) error {
			return serve(ctx, cfg, addr, logger)
		},
	}

	// Detect interactive terminal for prompts and the board.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// serve runs the document service on its own database until ctx is done.
func serve(ctx context.Context, cfg config.Config, addr string, logger *slog.Logger) error {
	database, err := db.OpenDB(cfg.ServerDB())
	if err != nil {
		return fmt.Errorf("opening server database: %w", err)
	}
	defer database.Close()

	store := remote.NewRepositoryStore(repository.NewSQLiteDocumentRepo(database), clock.Real())
	srv := &http.Server{
		Addr:              addr,
		Handler:           remote.NewServer(store, cfg.Serve.Token, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
