package activity

import (
	"context"
	"fmt"
	"log"
	"sync"

	"aptos-project-metrics/internal/aptos"
	"aptos-project-metrics/internal/domain"
	"aptos-project-metrics/internal/observability"
	"aptos-project-metrics/internal/pricing"
)

// VolumeLedger is the remote API surface the volume aggregator needs.
type VolumeLedger interface {
	CoinActivities(ctx context.Context, address, entryFunction string, offset, limit uint64) ([]aptos.CoinActivity, error)
}

// VolumeAggregator sums the USD trading volume that flowed through a
// contract's swap entry function inside a window.
type VolumeAggregator struct {
	ledger VolumeLedger
	oracle pricing.Source
	logger *log.Logger
	fanOut int
}

// NewVolumeAggregator creates a trading volume aggregator.
func NewVolumeAggregator(ledger VolumeLedger, oracle pricing.Source, logger *log.Logger) *VolumeAggregator {
	return &VolumeAggregator{
		ledger: ledger,
		oracle: oracle,
		logger: logger,
		fanOut: defaultFanOut,
	}
}

// TradingVolume returns the USD volume of swaps inside the window. Raw
// amounts are summed per token first so each distinct token is priced once.
// The second return value reports whether the scan covered the whole window.
func (a *VolumeAggregator) TradingVolume(ctx context.Context, address, entryFunction string, window domain.Window) (float64, bool, error) {
	var (
		mu      sync.Mutex
		volumes = make(map[string]uint64)
	)

	exact, err := scan(ctx, a.fanOut, func(ctx context.Context, offset uint64) (bool, error) {
		activities, err := a.ledger.CoinActivities(ctx, address, entryFunction, offset, pageSize)
		if err != nil {
			return false, err
		}
		observability.RecordPageFetched(string(domain.MetricTradingVolume))
		if len(activities) == 0 {
			// History exhausted before the cutoff.
			return true, nil
		}

		local := make(map[string]uint64)
		boundary := false
		for _, activity := range activities {
			if activity.Timestamp.Before(window.Cutoff) {
				boundary = true
				break
			}
			local[activity.CoinType] += activity.Amount
		}

		mu.Lock()
		for token, amount := range local {
			volumes[token] += amount
		}
		mu.Unlock()

		return boundary, nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("scan trading volume: %w", err)
	}

	total := pricing.SumValueUSD(ctx, a.oracle, a.logger, volumes, 1)
	return total, exact, nil
}
