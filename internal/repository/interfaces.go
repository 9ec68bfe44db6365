package repository

import (
	"context"
	"encoding/json"

	"github.com/alexanderramin/weekgrid/internal/domain"
)

// SnapshotRepo stores the local planner cache, one row per state field,
// partitioned by namespace.
type SnapshotRepo interface {
	Load(ctx context.Context, namespace string) (map[string]json.RawMessage, error)
	Save(ctx context.Context, namespace string, fields map[string]json.RawMessage) error
	Clear(ctx context.Context, namespace string) error
	Namespaces(ctx context.Context) ([]string, error)
}

type LoginRepo interface {
	Get(ctx context.Context) (*domain.LoginRecord, error)
	Put(ctx context.Context, rec *domain.LoginRecord) error
	Clear(ctx context.Context) error
}

type DeviceRepo interface {
	GetOrCreate(ctx context.Context) (string, error)
}

type SyncStatusRepo interface {
	Get(ctx context.Context, namespace string) (*domain.SyncStatus, error)
	Record(ctx context.Context, s *domain.SyncStatus) error
}

// DocumentRepo is the server-side store of remote envelopes.
type DocumentRepo interface {
	Get(ctx context.Context, uid string) (*domain.RemoteDocument, error)
	Put(ctx context.Context, doc *domain.RemoteDocument) error
	Delete(ctx context.Context, uid string) error
	List(ctx context.Context) ([]*domain.RemoteDocument, error)
}
