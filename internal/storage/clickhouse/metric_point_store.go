package clickhouse

import (
	"context"
	"fmt"

	"aptos-project-metrics/internal/domain"
	"aptos-project-metrics/internal/storage"
)

// MetricPointStore implements storage.MetricPointStore using ClickHouse.
// Observations are append-only; MergeTree does not enforce uniqueness and
// the scheduler never writes the same (project, metric, observed_at) twice.
type MetricPointStore struct {
	conn *Conn
}

// NewMetricPointStore creates a new MetricPointStore.
func NewMetricPointStore(conn *Conn) *MetricPointStore {
	return &MetricPointStore{conn: conn}
}

// Compile-time interface check.
var _ storage.MetricPointStore = (*MetricPointStore)(nil)

// Insert appends one observation.
func (s *MetricPointStore) Insert(ctx context.Context, p *domain.MetricPoint) error {
	if p == nil || p.Metric == "" {
		return storage.ErrInvalidInput
	}

	exact := uint8(0)
	if p.Exact {
		exact = 1
	}

	err := s.conn.Exec(ctx, `
		INSERT INTO metric_points (project_id, metric, value, exact, observed_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ProjectID, string(p.Metric), p.Value, exact, p.ObservedAt)
	if err != nil {
		return fmt.Errorf("insert metric point: %w", err)
	}
	return nil
}

// GetByProjectMetric retrieves observations ordered by observed_at ASC.
func (s *MetricPointStore) GetByProjectMetric(ctx context.Context, projectID int64, metric domain.MetricKind) ([]*domain.MetricPoint, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT project_id, metric, value, exact, observed_at
		FROM metric_points
		WHERE project_id = ? AND metric = ?
		ORDER BY observed_at ASC
	`, projectID, string(metric))
	if err != nil {
		return nil, fmt.Errorf("query metric points: %w", err)
	}
	defer rows.Close()

	var points []*domain.MetricPoint
	for rows.Next() {
		var p domain.MetricPoint
		var metricStr string
		var exact uint8
		if err := rows.Scan(&p.ProjectID, &metricStr, &p.Value, &exact, &p.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan metric point: %w", err)
		}
		p.Metric = domain.MetricKind(metricStr)
		p.Exact = exact == 1
		points = append(points, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metric points: %w", err)
	}
	return points, nil
}
