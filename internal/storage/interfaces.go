package storage

import (
	"context"

	"aptos-project-metrics/internal/domain"
)

// ProjectStore provides access to tracked projects and their attribute bags.
type ProjectStore interface {
	// Create adds a new project with its initial attributes.
	// Returns ErrDuplicateKey if the name is already taken.
	Create(ctx context.Context, p *domain.Project) (*domain.Project, error)

	// GetByID retrieves a project and its attributes. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id int64) (*domain.Project, error)

	// GetByAddress retrieves a project by contract address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Project, error)

	// GetAttribute reads a single attribute. Returns ErrNotFound if the key is absent.
	GetAttribute(ctx context.Context, projectID int64, key string) (domain.Value, error)

	// UpsertAttribute writes one attribute, replacing any previous value for
	// the key. Idempotent, last write wins per key.
	UpsertAttribute(ctx context.Context, projectID int64, key string, value domain.Value) error
}

// MetricPointStore is an append-only history of computed metric observations.
type MetricPointStore interface {
	// Insert appends one observation.
	Insert(ctx context.Context, p *domain.MetricPoint) error

	// GetByProjectMetric retrieves observations for one (project, metric),
	// ordered by observed_at ASC.
	GetByProjectMetric(ctx context.Context, projectID int64, metric domain.MetricKind) ([]*domain.MetricPoint, error)
}
