package memory

import (
	"context"
	"sort"
	"sync"

	"aptos-project-metrics/internal/domain"
	"aptos-project-metrics/internal/storage"
)

// MetricPointStore is an in-memory implementation of storage.MetricPointStore.
type MetricPointStore struct {
	mu     sync.RWMutex
	points []*domain.MetricPoint
}

// NewMetricPointStore creates a new in-memory metric point store.
func NewMetricPointStore() *MetricPointStore {
	return &MetricPointStore{}
}

// Compile-time interface check.
var _ storage.MetricPointStore = (*MetricPointStore)(nil)

// Insert appends one observation.
func (s *MetricPointStore) Insert(_ context.Context, p *domain.MetricPoint) error {
	if p == nil || p.Metric == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pointCopy := *p
	s.points = append(s.points, &pointCopy)
	return nil
}

// GetByProjectMetric retrieves observations ordered by observed_at ASC.
func (s *MetricPointStore) GetByProjectMetric(_ context.Context, projectID int64, metric domain.MetricKind) ([]*domain.MetricPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MetricPoint
	for _, p := range s.points {
		if p.ProjectID == projectID && p.Metric == metric {
			pointCopy := *p
			result = append(result, &pointCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ObservedAt < result[j].ObservedAt
	})

	return result, nil
}
