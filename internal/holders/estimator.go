// Package holders estimates how many accounts hold a positive balance of a
// token. The indexer exposes holder pages but no total count, so the count
// is located by a segmented search over page offsets.
package holders

import (
	"context"
	"fmt"
	"sync"
)

// Ledger is the remote API surface the estimator needs.
type Ledger interface {
	CoinBalanceCount(ctx context.Context, coinType string, offset, limit uint64) (int, error)
}

// Search bounds and fan-out. The ceiling caps the search at one billion
// holders, far beyond any real token.
const (
	searchFloor   = 1
	searchCeiling = 1_000_000_000
	pageLimit     = 100
	probeFanOut   = 10
)

// Estimator locates the holder count of a token by probing balance pages.
type Estimator struct {
	ledger Ledger
}

// NewEstimator creates a holder count estimator.
func NewEstimator(ledger Ledger) *Estimator {
	return &Estimator{ledger: ledger}
}

// Estimate returns the number of accounts holding a positive balance of the
// token. Each round probes ten evenly spaced offsets concurrently and
// inspects the page sizes in offset order: a partial page pins the exact
// count, an empty page narrows the range downward, ten full pages shift the
// range upward. Any probe failure aborts the whole estimate.
func (e *Estimator) Estimate(ctx context.Context, token string) (uint64, error) {
	left := uint64(searchFloor)
	right := uint64(searchCeiling)

	for left <= right {
		segment := (right - left + 1) / probeFanOut
		if segment == 0 {
			break
		}

		counts := make([]int, probeFanOut)
		errs := make([]error, probeFanOut)

		var wg sync.WaitGroup
		for i := 0; i < probeFanOut; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				offset := left + uint64(i)*segment
				counts[i], errs[i] = e.ledger.CoinBalanceCount(ctx, token, offset, pageLimit)
			}(i)
		}
		wg.Wait()

		narrowed := false
		for i := 0; i < probeFanOut; i++ {
			if errs[i] != nil {
				return 0, fmt.Errorf("probe holder page: %w", errs[i])
			}

			offset := left + uint64(i)*segment
			count := counts[i]
			switch {
			case count > 0 && count < pageLimit:
				return offset + uint64(count), nil
			case count == 0:
				right = offset - 1
				if i > 0 {
					left = left + uint64(i-1)*segment
				}
				narrowed = true
			}
			if narrowed {
				break
			}
		}

		if !narrowed {
			// Every probe returned a full page: the count lies beyond the
			// last probed offset.
			left = right - segment + 1
		}
	}

	return left, nil
}
