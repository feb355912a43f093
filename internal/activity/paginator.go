// Package activity aggregates windowed on-chain activity for a project:
// trading volume, active user counts, and protocol fees. All three walk the
// same indexer pagination scheme: pages of records ordered by descending
// transaction version, scanned concurrently in batches until a page crosses
// the window boundary.
package activity

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Pagination parameters. The record ceiling caps a single aggregation run;
// hitting it yields a truncated result rather than an unbounded scan.
const (
	pageSize      = 100
	recordCeiling = 500_000
)

// Fan-out per batch. User scans use a lower fan-out: every page fetch
// carries the full sender payload and the indexer throttles these harder.
const (
	defaultFanOut = 250
	userFanOut    = 50
)

// fetchPage fetches and folds one page at the given record offset. It
// reports whether the page crossed the window boundary, which stops the
// scan after the current batch.
type fetchPage func(ctx context.Context, offset uint64) (boundary bool, err error)

// scan walks pages in concurrent batches of fanOut until a boundary is
// reported or the record ceiling is reached. It returns whether the scan
// completed exactly: false means the ceiling truncated it. Any page error
// aborts the scan.
func scan(ctx context.Context, fanOut int, fetch fetchPage) (bool, error) {
	var offset uint64

	for {
		var boundary atomic.Bool

		g, gctx := errgroup.WithContext(ctx)
		for i := 0; i < fanOut; i++ {
			pageOffset := offset
			offset += pageSize
			g.Go(func() error {
				found, err := fetch(gctx, pageOffset)
				if err != nil {
					return err
				}
				if found {
					boundary.Store(true)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return false, err
		}

		if boundary.Load() {
			return true, nil
		}
		if offset >= recordCeiling {
			return false, nil
		}
	}
}
