package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/alexanderramin/weekgrid/internal/clock"
	"github.com/alexanderramin/weekgrid/internal/domain"
	"github.com/alexanderramin/weekgrid/internal/repository"
)

// DocumentStore holds one envelope per identity.
type DocumentStore interface {
	// Get returns ErrNotFound when the identity has no document.
	Get(ctx context.Context, uid string) (*Envelope, error)
	// Put replaces the document and returns it as stored, with UpdatedAt
	// stamped by the store.
	Put(ctx context.Context, uid string, env Envelope) (*Envelope, error)
}

// MemoryStore is an in-process DocumentStore.
type MemoryStore struct {
	clock clock.Clock

	mu   sync.Mutex
	docs map[string]Envelope
	puts int
	gets int
	// Err, when set, fails every call.
	Err error
}

func NewMemoryStore(clk clock.Clock) *MemoryStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryStore{clock: clk, docs: make(map[string]Envelope)}
}

func (m *MemoryStore) Get(_ context.Context, uid string) (*Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if m.Err != nil {
		return nil, m.Err
	}
	env, ok := m.docs[uid]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", uid, ErrNotFound)
	}
	return &env, nil
}

func (m *MemoryStore) Put(_ context.Context, uid string, env Envelope) (*Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	if m.Err != nil {
		return nil, m.Err
	}
	env.UpdatedAt = clock.NowMillis(m.clock)
	m.docs[uid] = env
	return &env, nil
}

// Seed stores env as is, without stamping or counting.
func (m *MemoryStore) Seed(uid string, env Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[uid] = env
}

// Puts reports how many writes were attempted.
func (m *MemoryStore) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Gets reports how many reads were attempted.
func (m *MemoryStore) Gets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

// RepositoryStore is the DocumentStore backing the document service.
type RepositoryStore struct {
	repo  repository.DocumentRepo
	clock clock.Clock
}

func NewRepositoryStore(repo repository.DocumentRepo, clk clock.Clock) *RepositoryStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &RepositoryStore{repo: repo, clock: clk}
}

func (s *RepositoryStore) Get(ctx context.Context, uid string) (*Envelope, error) {
	doc, err := s.repo.Get(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("document %s: %w", uid, ErrNotFound)
		}
		return nil, err
	}
	return &Envelope{
		Payload:      doc.Payload,
		LastModified: doc.LastModified,
		UpdatedAt:    doc.UpdatedAt,
		DeviceID:     doc.DeviceID,
	}, nil
}

func (s *RepositoryStore) Put(ctx context.Context, uid string, env Envelope) (*Envelope, error) {
	env.UpdatedAt = clock.NowMillis(s.clock)
	err := s.repo.Put(ctx, &domain.RemoteDocument{
		UID:          uid,
		Payload:      env.Payload,
		LastModified: env.LastModified,
		UpdatedAt:    env.UpdatedAt,
		DeviceID:     env.DeviceID,
	})
	if err != nil {
		return nil, err
	}
	return &env, nil
}
