// Package session binds the planner to the signed-in identity.
//
// Signing in scopes the local cache to the identity, loads what it holds
// and reconciles with the remote document. Signing out flushes pending
// writes, unbinds everything and leaves an empty guest state behind.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/alexanderramin/weekgrid/internal/clock"
	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/repository"
)

var (
	ErrNotSignedIn     = errors.New("not signed in")
	ErrInvalidIdentity = errors.New("identity has no id")
)

type Role = domain.Role

const (
	RoleAdmin = domain.RoleAdmin
	RoleUser  = domain.RoleUser
	RoleGuest = domain.RoleGuest
)

// Event is published on every sign-in and sign-out. Identity is nil for
// guests.
type Event struct {
	Identity *domain.Identity `json:"identity"`
	Role     Role             `json:"role"`
}

// Cache is the namespaced local cache.
type Cache interface {
	Bind(identityID string)
	Unbind()
}

// Store is the part of the state store the binder drives.
type Store interface {
	LoadFromCache(ctx context.Context) bool
	ResetToEmpty()
}

// Syncer is the remote sync engine.
type Syncer interface {
	Bind(uid string)
	Unbind()
	ReconcileOnLogin(ctx context.Context) bool
	Flush(ctx context.Context) error
}

type Option func(*Binder)

// WithAdminEmails grants the admin role to these addresses. Matching is
// case-insensitive.
func WithAdminEmails(emails ...string) Option {
	return func(b *Binder) {
		for _, e := range emails {
			if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
				b.admins[e] = struct{}{}
			}
		}
	}
}

// WithLoginRepo caches the last sign-in so Restore can replay it.
func WithLoginRepo(r repository.LoginRepo) Option {
	return func(b *Binder) {
		b.logins = r
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *Binder) {
		if l != nil {
			b.logger = l
		}
	}
}

func WithClock(c clock.Clock) Option {
	return func(b *Binder) {
		if c != nil {
			b.clock = c
		}
	}
}

type Binder struct {
	cache  Cache
	store  Store
	sync   Syncer
	logins repository.LoginRepo
	admins map[string]struct{}
	clock  clock.Clock
	logger *slog.Logger

	// transition serializes sign-in and sign-out.
	transition sync.Mutex

	mu        sync.RWMutex
	current   *domain.Identity
	role      Role
	listeners []*subscription
}

type subscription struct {
	fn func(Event)
}

func New(cache Cache, store Store, syncer Syncer, opts ...Option) *Binder {
	b := &Binder{
		cache:  cache,
		store:  store,
		sync:   syncer,
		admins: make(map[string]struct{}),
		clock:  clock.Real(),
		logger: slog.New(slog.DiscardHandler),
		role:   RoleGuest,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "session")
	return b
}

// RoleFor returns the role a signed-in user with email gets.
func (b *Binder) RoleFor(email string) Role {
	if _, ok := b.admins[strings.ToLower(strings.TrimSpace(email))]; ok {
		return RoleAdmin
	}
	return RoleUser
}

// Subscribe registers fn for every transition. Listeners run on the
// goroutine performing the transition and must not sign in or out.
func (b *Binder) Subscribe(fn func(Event)) (cancel func()) {
	sub := &subscription{fn: fn}
	b.mu.Lock()
	b.listeners = append(b.listeners, sub)
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.listeners {
			if s == sub {
				b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
				return
			}
		}
	}
}

// SignIn binds id and reconciles with its remote document. It reports
// whether reconciliation replaced the local state. Signing in as a
// different identity signs the previous one out first.
func (b *Binder) SignIn(ctx context.Context, id domain.Identity) (bool, error) {
	id.ID = strings.TrimSpace(id.ID)
	if id.ID == "" {
		return false, ErrInvalidIdentity
	}
	id.Email = strings.ToLower(strings.TrimSpace(id.Email))

	b.transition.Lock()
	defer b.transition.Unlock()

	if cur := b.identity(); cur != nil && cur.ID != id.ID {
		b.signOutLocked(ctx)
	}

	role := b.RoleFor(id.Email)
	b.mu.Lock()
	b.current = &id
	b.role = role
	b.mu.Unlock()

	if b.logins != nil {
		rec := &domain.LoginRecord{Identity: id, SignedInAt: b.clock.Now()}
		if err := b.logins.Put(ctx, rec); err != nil {
			b.logger.WarnContext(ctx, "caching login failed", "uid", id.ID, "error", err)
		}
	}

	b.sync.Bind(id.ID)
	b.cache.Bind(id.ID)
	if !b.store.LoadFromCache(ctx) {
		// Nothing cached for this identity: never let guest or previous
		// identity data stand in for it.
		b.store.ResetToEmpty()
	}
	b.logger.InfoContext(ctx, "signed in", "uid", id.ID, "role", role)
	b.publish(Event{Identity: &id, Role: role})

	return b.sync.ReconcileOnLogin(ctx), nil
}

// SignOut flushes pending remote writes, unbinds and resets to an empty
// guest state. Signing out while signed out is a no-op.
func (b *Binder) SignOut(ctx context.Context) {
	b.transition.Lock()
	defer b.transition.Unlock()
	if b.identity() == nil {
		return
	}
	b.signOutLocked(ctx)
}

func (b *Binder) signOutLocked(ctx context.Context) {
	uid := b.identity().ID
	if err := b.sync.Flush(ctx); err != nil {
		b.logger.WarnContext(ctx, "flushing before sign-out failed", "uid", uid, "error", err)
	}
	b.sync.Unbind()
	b.cache.Unbind()
	b.store.ResetToEmpty()
	if b.logins != nil {
		if err := b.logins.Clear(ctx); err != nil {
			b.logger.WarnContext(ctx, "clearing cached login failed", "error", err)
		}
	}

	b.mu.Lock()
	b.current = nil
	b.role = RoleGuest
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "signed out", "uid", uid)
	b.publish(Event{Role: RoleGuest})
}

// Restore signs in the cached identity, if any. It reports whether an
// identity was restored.
func (b *Binder) Restore(ctx context.Context) (bool, error) {
	if b.logins == nil {
		return false, nil
	}
	rec, err := b.logins.Get(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("restoring login: %w", err)
	}
	if _, err := b.SignIn(ctx, rec.Identity); err != nil {
		return false, fmt.Errorf("restoring login: %w", err)
	}
	return true, nil
}

// Run applies auth transitions from ch until ctx is done or ch is closed.
// A nil identity signs out.
func (b *Binder) Run(ctx context.Context, ch <-chan *domain.Identity) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case id, ok := <-ch:
			if !ok {
				return nil
			}
			if id == nil {
				b.SignOut(ctx)
				continue
			}
			if _, err := b.SignIn(ctx, *id); err != nil {
				b.logger.WarnContext(ctx, "ignoring auth transition", "error", err)
			}
		}
	}
}

// Current returns the bound identity and its role. The identity is nil
// for guests.
func (b *Binder) Current() (*domain.Identity, Role) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == nil {
		return nil, RoleGuest
	}
	id := *b.current
	return &id, b.role
}

// Require returns the bound identity, or ErrNotSignedIn.
func (b *Binder) Require() (domain.Identity, error) {
	id, _ := b.Current()
	if id == nil {
		return domain.Identity{}, ErrNotSignedIn
	}
	return *id, nil
}

func (b *Binder) identity() *domain.Identity {
	id, _ := b.Current()
	return id
}

func (b *Binder) publish(ev Event) {
	b.mu.RLock()
	subs := make([]*subscription, len(b.listeners))
	copy(subs, b.listeners)
	b.mu.RUnlock()
	for _, s := range subs {
		s.fn(ev)
	}
}
