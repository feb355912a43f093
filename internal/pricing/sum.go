package pricing

import (
	"context"
	"log"
	"sync"

	"aptos-project-metrics/internal/domain"
)

// Source is the price lookup surface consumed by the aggregation components.
// Satisfied by Oracle.
type Source interface {
	Quote(ctx context.Context, token string) (domain.PriceQuote, bool)
}

// SumValueUSD converts per-token raw amounts to a USD sum, quoting each
// distinct token concurrently. Unpriced tokens contribute zero. divisor
// rescales each raw amount before conversion.
func SumValueUSD(ctx context.Context, source Source, logger *log.Logger, amounts map[string]uint64, divisor float64) float64 {
	var (
		mu    sync.Mutex
		total float64
		wg    sync.WaitGroup
	)

	for token, amount := range amounts {
		wg.Add(1)
		go func(token string, amount uint64) {
			defer wg.Done()
			quote, ok := source.Quote(ctx, token)
			if !ok {
				logger.Printf("no price for %s, dropping %d raw units", token, amount)
				return
			}
			value := quote.ValueUSD(amount) / divisor
			mu.Lock()
			total += value
			mu.Unlock()
		}(token, amount)
	}
	wg.Wait()

	return total
}
