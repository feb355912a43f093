package postgres

import (
	"context"
	"fmt"

	"aptos-project-metrics/internal/domain"
	"aptos-project-metrics/internal/storage"
)

// ProjectStore implements storage.ProjectStore using PostgreSQL.
// Attributes live in project_attribute(project_id, key, value, value_type)
// with a unique (project_id, key) constraint; UpsertAttribute is an
// ON CONFLICT DO UPDATE, so repeated writes of the same key are idempotent.
type ProjectStore struct {
	pool *Pool
}

// NewProjectStore creates a new ProjectStore.
func NewProjectStore(pool *Pool) *ProjectStore {
	return &ProjectStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ProjectStore = (*ProjectStore)(nil)

// Create adds a new project with its initial attributes in one transaction.
func (s *ProjectStore) Create(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	if p == nil || p.Name == "" {
		return nil, storage.ErrInvalidInput
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin create project: %w", err)
	}
	defer tx.Rollback(ctx)

	created := *p
	err = tx.QueryRow(ctx, `
		INSERT INTO project (name, token, category, contract_address)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, p.Name, p.Token, p.Category, p.ContractAddress).
		Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, storage.ErrDuplicateKey
		}
		return nil, fmt.Errorf("insert project: %w", err)
	}

	for _, attr := range p.Attributes {
		_, err = tx.Exec(ctx, `
			INSERT INTO project_attribute (project_id, key, value, value_type)
			VALUES ($1, $2, $3, $4)
		`, created.ID, attr.Key, attr.Value.Text(), string(attr.Value.Type))
		if err != nil {
			return nil, fmt.Errorf("insert attribute %s: %w", attr.Key, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit create project: %w", err)
	}
	return &created, nil
}

// GetByID retrieves a project and its attribute bag. Returns ErrNotFound if not exists.
func (s *ProjectStore) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	return s.getBy(ctx, `
		SELECT id, name, token, category, contract_address, created_at, updated_at
		FROM project
		WHERE id = $1
	`, id)
}

// GetByAddress retrieves a project by contract address. Returns ErrNotFound if not exists.
func (s *ProjectStore) GetByAddress(ctx context.Context, address string) (*domain.Project, error) {
	return s.getBy(ctx, `
		SELECT id, name, token, category, contract_address, created_at, updated_at
		FROM project
		WHERE contract_address = $1
	`, address)
}

func (s *ProjectStore) getBy(ctx context.Context, query string, arg any) (*domain.Project, error) {
	var p domain.Project
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&p.ID, &p.Name, &p.Token, &p.Category, &p.ContractAddress, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}

	attrs, err := s.loadAttributes(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Attributes = attrs
	return &p, nil
}

// GetAttribute reads a single attribute. Returns ErrNotFound if the key is absent.
func (s *ProjectStore) GetAttribute(ctx context.Context, projectID int64, key string) (domain.Value, error) {
	var text, typ string
	err := s.pool.QueryRow(ctx, `
		SELECT value, value_type
		FROM project_attribute
		WHERE project_id = $1 AND key = $2
	`, projectID, key).Scan(&text, &typ)
	if err != nil {
		if isNotFoundError(err) {
			return domain.Value{}, storage.ErrNotFound
		}
		return domain.Value{}, fmt.Errorf("get attribute %s: %w", key, err)
	}

	v, err := domain.ParseValue(text, domain.ValueType(typ))
	if err != nil {
		return domain.Value{}, fmt.Errorf("decode attribute %s: %w", key, err)
	}
	return v, nil
}

// UpsertAttribute writes one attribute, last write wins per (project_id, key).
func (s *ProjectStore) UpsertAttribute(ctx context.Context, projectID int64, key string, value domain.Value) error {
	if key == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO project_attribute (project_id, key, value, value_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (project_id, key)
		DO UPDATE SET value = EXCLUDED.value, value_type = EXCLUDED.value_type
	`, projectID, key, value.Text(), string(value.Type))
	if err != nil {
		return fmt.Errorf("upsert attribute %s: %w", key, err)
	}
	return nil
}

// loadAttributes reads the full attribute bag of a project.
func (s *ProjectStore) loadAttributes(ctx context.Context, projectID int64) ([]domain.Attribute, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT key, value, value_type
		FROM project_attribute
		WHERE project_id = $1
		ORDER BY key ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("load attributes: %w", err)
	}
	defer rows.Close()

	var attrs []domain.Attribute
	for rows.Next() {
		var key, text, typ string
		if err := rows.Scan(&key, &text, &typ); err != nil {
			return nil, fmt.Errorf("scan attribute row: %w", err)
		}
		v, err := domain.ParseValue(text, domain.ValueType(typ))
		if err != nil {
			return nil, fmt.Errorf("decode attribute %s: %w", key, err)
		}
		attrs = append(attrs, domain.Attribute{Key: key, Value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attribute rows: %w", err)
	}
	return attrs, nil
}
