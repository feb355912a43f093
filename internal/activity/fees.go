package activity

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"aptos-project-metrics/internal/aptos"
	"aptos-project-metrics/internal/domain"
	"aptos-project-metrics/internal/observability"
	"aptos-project-metrics/internal/pricing"
)

// Swap fee schedule: the pool retains feeNumerator/feeDenominator of every
// input amount. Indexed swap amounts are post-fee, so the fee is recovered
// by dividing by (denominator-numerator)/numerator.
const (
	feeNumerator   = 25
	feeDenominator = 10000
)

// FeeLedger is the remote API surface the fee aggregator needs. Swap event
// pages carry no timestamps, so each page's age is resolved through a
// second lookup by transaction version.
type FeeLedger interface {
	SwapEvents(ctx context.Context, indexedTypePrefix string, offset, limit uint64) ([]aptos.SwapEvent, error)
	TransactionTimestamp(ctx context.Context, version int64) (time.Time, error)
}

// FeeAggregator sums the USD protocol fees collected from swap events
// inside a window.
type FeeAggregator struct {
	ledger FeeLedger
	oracle pricing.Source
	logger *log.Logger
	fanOut int
}

// NewFeeAggregator creates a swap fee aggregator.
func NewFeeAggregator(ledger FeeLedger, oracle pricing.Source, logger *log.Logger) *FeeAggregator {
	return &FeeAggregator{
		ledger: ledger,
		oracle: oracle,
		logger: logger,
		fanOut: defaultFanOut,
	}
}

// SwapFees returns the USD fees collected on swaps inside the window.
// eventType is the fully qualified swap event type of the contract; input
// amounts are attributed to the traded pair parsed from each event's
// indexed type. Page age is checked against the oldest event of the page,
// so a page straddling the cutoff is dropped whole. The second return value
// reports whether the scan covered the window.
func (a *FeeAggregator) SwapFees(ctx context.Context, eventType string, window domain.Window) (float64, bool, error) {
	var (
		mu      sync.Mutex
		swapped = make(map[string]uint64)
	)

	exact, err := scan(ctx, a.fanOut, func(ctx context.Context, offset uint64) (bool, error) {
		events, err := a.ledger.SwapEvents(ctx, eventType, offset, pageSize)
		if err != nil {
			return false, err
		}
		observability.RecordPageFetched(string(domain.MetricDailyFees))
		if len(events) == 0 {
			return true, nil
		}

		oldest := events[len(events)-1]
		ts, err := a.ledger.TransactionTimestamp(ctx, oldest.Version)
		if err != nil {
			return false, err
		}
		if ts.Before(window.Cutoff) {
			return true, nil
		}

		local := make(map[string]uint64)
		for _, event := range events {
			tokenX, tokenY, err := aptos.TypeParamPair(event.IndexedType)
			if err != nil {
				return false, fmt.Errorf("parse swap pair: %w", err)
			}
			if event.AmountXIn > 0 {
				local[tokenX] += event.AmountXIn
			}
			if event.AmountYIn > 0 {
				local[tokenY] += event.AmountYIn
			}
		}

		mu.Lock()
		for token, amount := range local {
			swapped[token] += amount
		}
		mu.Unlock()

		return false, nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("scan swap fees: %w", err)
	}

	divisor := float64(feeDenominator-feeNumerator) / float64(feeNumerator)
	total := pricing.SumValueUSD(ctx, a.oracle, a.logger, swapped, divisor)
	return total, exact, nil
}
