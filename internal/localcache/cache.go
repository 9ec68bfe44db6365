// Package localcache keeps a per-identity copy of the planner snapshot in
// the local SQLite database.
//
// Every failure is logged and swallowed: a broken cache never blocks the
// mutation that triggered the write.
package localcache

import (
	"context"
	"log/slog"
	"sync"

	"github.com/alexanderramin/weekgrid/internal/db"
	"github.com/alexanderramin/weekgrid/internal/normalize"
	"github.com/alexanderramin/weekgrid/internal/repository"
)

// Cache reads and writes the snapshot of the bound identity. While unbound,
// Load reports nothing and Save does nothing.
type Cache struct {
	uow    db.UnitOfWork
	reader repository.SnapshotRepo
	logger *slog.Logger

	mu        sync.Mutex
	namespace string
}

// New returns an unbound cache. Saves run inside uow; loads go through
// reader.
func New(uow db.UnitOfWork, reader repository.SnapshotRepo, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{uow: uow, reader: reader, logger: logger.With("component", "localcache")}
}

// Bind scopes the cache to identityID. Data stored before namespacing, or
// under another identity, is never read.
func (c *Cache) Bind(identityID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.namespace = identityID
}

func (c *Cache) Unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.namespace = ""
}

// Namespace returns the bound identity, or "" when unbound.
func (c *Cache) Namespace() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.namespace
}

// Load returns the stored fields of the bound identity. The bool is false
// when unbound, when nothing is stored, or when the read failed.
func (c *Cache) Load(ctx context.Context) (normalize.Raw, bool) {
	ns := c.Namespace()
	if ns == "" {
		return nil, false
	}
	fields, err := c.reader.Load(ctx, ns)
	if err != nil {
		c.logger.WarnContext(ctx, "local cache load failed", "namespace", ns, "error", err)
		return nil, false
	}
	if len(fields) == 0 {
		return nil, false
	}
	return normalize.Raw(fields), true
}

// Save writes every field of snapshot in one transaction. It reports
// whether the write happened.
func (c *Cache) Save(ctx context.Context, snapshot normalize.Raw) bool {
	ns := c.Namespace()
	if ns == "" {
		return false
	}
	err := c.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return repository.NewSQLiteSnapshotRepo(tx).Save(ctx, ns, snapshot)
	})
	if err != nil {
		c.logger.WarnContext(ctx, "local cache save failed", "namespace", ns, "error", err)
		return false
	}
	return true
}
