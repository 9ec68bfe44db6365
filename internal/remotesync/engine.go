// Package remotesync keeps the remote per-user document in step with the
// local state store.
//
// Outbound writes are debounced: every committed mutation restarts one
// pending timer, and only its expiry uploads the full snapshot. On login the
// local and remote timestamps are compared and the newer snapshot wins as a
// whole. Transport and decode failures are logged, never returned.
package remotesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/weekgrid/internal/clock"
	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/normalize"
	"github.com/alexanderramin/weekgrid/internal/remote"
)

// DefaultDebounce is the quiet period before a scheduled save is sent.
const DefaultDebounce = 600 * time.Millisecond

// Store is the part of the state store the engine drives.
type Store interface {
	Serializable() domain.SerializableState
	LastModified() int64
	ApplyLoadedState(raw normalize.Raw)
	PersistLocal(ctx context.Context) bool
	InitializeEmpty(ctx context.Context)
}

// StatusRecorder persists the outcome of each sync attempt.
type StatusRecorder interface {
	Record(ctx context.Context, s *domain.SyncStatus) error
}

// Outcome is the result of one reconciliation or push.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeAdopted Outcome = "adopted"
	OutcomePushed  Outcome = "pushed"
	OutcomeInSync  Outcome = "in-sync"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Changed reports whether the outcome replaced the local state.
func (o Outcome) Changed() bool {
	return o == OutcomeCreated || o == OutcomeAdopted
}

type Config struct {
	Debounce       time.Duration
	RequestTimeout time.Duration
	DeviceID       string
}

type Option func(*Engine)

// WithStatusRecorder records every outcome through r.
func WithStatusRecorder(r StatusRecorder) Option {
	return func(e *Engine) {
		e.status = r
	}
}

type Engine struct {
	store  Store
	remote remote.DocumentStore
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
	status StatusRecorder

	mu      sync.Mutex
	uid     string
	timer   clock.Timer
	pending bool
	// seq invalidates timers that were replaced or cancelled but whose
	// callback may already be running.
	seq      uint64
	inflight sync.WaitGroup
}

func New(store Store, docs remote.DocumentStore, clk clock.Clock, cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	e := &Engine{
		store:  store,
		remote: docs,
		clock:  clk,
		cfg:    cfg,
		logger: logger.With("component", "remotesync"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bind targets uid's document. Any pending save for a previous identity is
// dropped.
func (e *Engine) Bind(uid string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
	e.uid = uid
}

// Unbind stops syncing and drops any pending save.
func (e *Engine) Unbind() {
	e.Bind("")
}

// UID returns the bound identity, "" when unbound.
func (e *Engine) UID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.uid
}

// Pending reports whether a debounced save is waiting.
func (e *Engine) Pending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// ScheduleSave (re)starts the debounce timer. It does nothing while
// unbound.
func (e *Engine) ScheduleSave() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.uid == "" {
		return
	}
	e.cancelLocked()
	e.pending = true
	seq := e.seq
	e.timer = e.clock.AfterFunc(e.cfg.Debounce, func() { e.fire(seq) })
}

func (e *Engine) cancelLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.pending = false
	e.seq++
}

func (e *Engine) fire(seq uint64) {
	e.mu.Lock()
	if seq != e.seq || !e.pending {
		e.mu.Unlock()
		return
	}
	e.timer = nil
	e.pending = false
	uid := e.uid
	e.inflight.Add(1)
	e.mu.Unlock()

	defer e.inflight.Done()
	_ = e.push(context.Background(), uid)
}

// Flush sends a pending save now and waits for in-flight writes. It
// returns the push error, if any, or ctx's error when waiting is cut short.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	var pushErr error
	if e.pending && e.uid != "" {
		uid := e.uid
		e.cancelLocked()
		e.inflight.Add(1)
		e.mu.Unlock()
		pushErr = e.push(ctx, uid)
		e.inflight.Done()
	} else {
		e.mu.Unlock()
	}

	done := make(chan struct{})
	go func() {
		e.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return pushErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ReconcileOnLogin runs Reconcile and reports whether the local state was
// replaced.
func (e *Engine) ReconcileOnLogin(ctx context.Context) bool {
	return e.Reconcile(ctx).Changed()
}

// Reconcile compares the local and remote snapshots of the bound identity
// and makes both equal to the newer one.
func (e *Engine) Reconcile(ctx context.Context) Outcome {
	uid := e.UID()
	if uid == "" {
		return OutcomeSkipped
	}

	env, err := e.get(ctx, uid)
	if errors.Is(err, remote.ErrNotFound) {
		// A new identity starts blank; whatever this device holds locally is
		// never uploaded into a fresh account.
		e.store.InitializeEmpty(ctx)
		if err := e.put(ctx, uid); err != nil {
			return e.fail(ctx, uid, 0, "creating remote document", err)
		}
		return e.record(ctx, uid, OutcomeCreated, e.store.LastModified(), e.store.LastModified(), "")
	}
	if err != nil {
		return e.fail(ctx, uid, 0, "loading remote document", err)
	}

	raw, remoteLast, err := env.State()
	if err != nil {
		return e.fail(ctx, uid, 0, "decoding remote document", err)
	}
	localLast := e.store.LastModified()

	switch {
	case remoteLast > localLast:
		e.store.ApplyLoadedState(raw)
		e.store.PersistLocal(ctx)
		return e.record(ctx, uid, OutcomeAdopted, localLast, remoteLast, "")
	case localLast > remoteLast:
		if err := e.put(ctx, uid); err != nil {
			return e.fail(ctx, uid, remoteLast, "pushing local state", err)
		}
		return e.record(ctx, uid, OutcomePushed, localLast, remoteLast, "")
	default:
		return e.record(ctx, uid, OutcomeInSync, localLast, remoteLast, "")
	}
}

func (e *Engine) push(ctx context.Context, uid string) error {
	if err := e.put(ctx, uid); err != nil {
		e.fail(ctx, uid, 0, "saving remote document", err)
		return err
	}
	last := e.store.LastModified()
	e.record(ctx, uid, OutcomePushed, last, last, "")
	return nil
}

func (e *Engine) get(ctx context.Context, uid string) (*remote.Envelope, error) {
	ctx, cancel := e.requestContext(ctx)
	defer cancel()
	return e.remote.Get(ctx, uid)
}

func (e *Engine) put(ctx context.Context, uid string) error {
	env, err := remote.Encode(e.store.Serializable(), e.cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	ctx, cancel := e.requestContext(ctx)
	defer cancel()
	_, err = e.remote.Put(ctx, uid, env)
	return err
}

func (e *Engine) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) fail(ctx context.Context, uid string, remoteLast int64, what string, err error) Outcome {
	e.logger.WarnContext(ctx, "remote sync failed", "uid", uid, "step", what, "error", err)
	return e.record(ctx, uid, OutcomeFailed, e.store.LastModified(), remoteLast, what+": "+err.Error())
}

func (e *Engine) record(ctx context.Context, uid string, o Outcome, localLast, remoteLast int64, msg string) Outcome {
	e.logger.DebugContext(ctx, "remote sync", "uid", uid, "outcome", o,
		"local_last_modified", localLast, "remote_last_modified", remoteLast)
	if e.status == nil {
		return o
	}
	err := e.status.Record(ctx, &domain.SyncStatus{
		Namespace:          uid,
		Outcome:            string(o),
		LocalLastModified:  localLast,
		RemoteLastModified: remoteLast,
		Message:            msg,
		SyncedAt:           e.clock.Now(),
	})
	if err != nil {
		e.logger.WarnContext(ctx, "recording sync status failed", "uid", uid, "error", err)
	}
	return o
}
