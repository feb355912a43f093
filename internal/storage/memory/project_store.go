package memory

import (
	"context"
	"sort"
	"sync"

	"aptos-project-metrics/internal/domain"
	"aptos-project-metrics/internal/storage"
)

// ProjectStore is an in-memory implementation of storage.ProjectStore.
type ProjectStore struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]*domain.Project // keyed by project id
}

// NewProjectStore creates a new in-memory project store.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{
		nextID: 1,
		data:   make(map[int64]*domain.Project),
	}
}

// Compile-time interface check.
var _ storage.ProjectStore = (*ProjectStore)(nil)

// Create adds a new project. Returns ErrDuplicateKey if the name is taken.
func (s *ProjectStore) Create(_ context.Context, p *domain.Project) (*domain.Project, error) {
	if p == nil || p.Name == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.data {
		if existing.Name == p.Name {
			return nil, storage.ErrDuplicateKey
		}
	}

	created := copyProject(p)
	created.ID = s.nextID
	s.nextID++
	s.data[created.ID] = created

	out := copyProject(created)
	return out, nil
}

// GetByID retrieves a project. Returns ErrNotFound if not exists.
func (s *ProjectStore) GetByID(_ context.Context, id int64) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyProject(p), nil
}

// GetByAddress retrieves a project by contract address. Returns ErrNotFound if not exists.
func (s *ProjectStore) GetByAddress(_ context.Context, address string) (*domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.data {
		if p.ContractAddress == address {
			return copyProject(p), nil
		}
	}
	return nil, storage.ErrNotFound
}

// GetAttribute reads a single attribute. Returns ErrNotFound if absent.
func (s *ProjectStore) GetAttribute(_ context.Context, projectID int64, key string) (domain.Value, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[projectID]
	if !exists {
		return domain.Value{}, storage.ErrNotFound
	}
	if v, ok := p.Attribute(key); ok {
		return v, nil
	}
	return domain.Value{}, storage.ErrNotFound
}

// UpsertAttribute writes one attribute, last write wins per key.
func (s *ProjectStore) UpsertAttribute(_ context.Context, projectID int64, key string, value domain.Value) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[projectID]
	if !exists {
		return storage.ErrNotFound
	}

	for i := range p.Attributes {
		if p.Attributes[i].Key == key {
			p.Attributes[i].Value = value
			return nil
		}
	}
	p.Attributes = append(p.Attributes, domain.Attribute{Key: key, Value: value})
	return nil
}

// copyProject deep-copies a project to prevent external mutation.
func copyProject(p *domain.Project) *domain.Project {
	out := *p
	out.Attributes = make([]domain.Attribute, len(p.Attributes))
	copy(out.Attributes, p.Attributes)
	sort.Slice(out.Attributes, func(i, j int) bool {
		return out.Attributes[i].Key < out.Attributes[j].Key
	})
	return &out
}
