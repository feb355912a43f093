// Package pricing resolves token prices in USD from on-chain swap pool
// balances against the USDC and USDT stablecoins.
package pricing

import (
	"context"
	"log"
	"math"
	"sync"

	"aptos-project-metrics/internal/domain"
	"aptos-project-metrics/internal/observability"
)

// Ledger is the remote API surface the oracle needs.
type Ledger interface {
	CoinDecimals(ctx context.Context, coinType string) (uint8, error)
	PairBalances(ctx context.Context, poolAddress, tokenX, tokenY string) (uint64, uint64, error)
}

// Oracle prices tokens from the balances of their stablecoin swap pools.
// A failed lookup is reported as not-ok rather than as an error: callers
// decide whether a missing price is fatal.
type Oracle struct {
	ledger      Ledger
	poolAddress string
	logger      *log.Logger
}

// NewOracle creates a price oracle reading pools published under poolAddress.
func NewOracle(ledger Ledger, poolAddress string, logger *log.Logger) *Oracle {
	return &Oracle{
		ledger:      ledger,
		poolAddress: poolAddress,
		logger:      logger,
	}
}

// Quote resolves the USD price and decimals of a token. Stablecoins are
// quoted at exactly 1.0 without touching the ledger. The USDC pool is
// preferred; the USDT pool is the fallback.
func (o *Oracle) Quote(ctx context.Context, token string) (domain.PriceQuote, bool) {
	if domain.IsStablecoin(token) {
		return domain.PriceQuote{Price: 1.0, Decimals: domain.DecimalsUSD}, true
	}

	decimals, err := o.ledger.CoinDecimals(ctx, token)
	if err != nil {
		o.logger.Printf("no decimals for %s: %v", token, err)
		return domain.PriceQuote{}, false
	}

	type poolBalances struct {
		x, y uint64
		ok   bool
	}
	var usdc, usdt poolBalances

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		usdc.x, usdc.y, usdc.ok = o.pairBalances(ctx, token, domain.USDC)
	}()
	go func() {
		defer wg.Done()
		usdt.x, usdt.y, usdt.ok = o.pairBalances(ctx, token, domain.USDT)
	}()
	wg.Wait()

	for _, pool := range []poolBalances{usdc, usdt} {
		if !pool.ok || pool.x == 0 {
			continue
		}
		price := float64(pool.y) / float64(pool.x) *
			math.Pow10(int(decimals)-int(domain.DecimalsUSD))
		return domain.PriceQuote{Price: price, Decimals: decimals}, true
	}

	o.logger.Printf("no stablecoin pool for %s", token)
	observability.RecordPriceLookupFailure()
	return domain.PriceQuote{}, false
}

// pairBalances fetches pool balances for (token, stablecoin), falling back
// to the reversed pair ordering with the balances swapped back.
func (o *Oracle) pairBalances(ctx context.Context, token, stablecoin string) (uint64, uint64, bool) {
	x, y, err := o.ledger.PairBalances(ctx, o.poolAddress, token, stablecoin)
	if err == nil {
		return x, y, true
	}

	y, x, err = o.ledger.PairBalances(ctx, o.poolAddress, stablecoin, token)
	if err == nil {
		return x, y, true
	}
	return 0, 0, false
}
