// Package valuation computes the stock metrics of a project: total value
// locked across its liquidity pools and the market capitalization of its
// token.
package valuation

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"aptos-project-metrics/internal/aptos"
	"aptos-project-metrics/internal/pricing"
)

// ResourceLedger is the remote API surface the TVL calculator needs.
type ResourceLedger interface {
	GetAccountResources(ctx context.Context, address string) ([]aptos.Resource, error)
}

// pairReserve is the payload of a liquidity pool reserve resource.
type pairReserve struct {
	ReserveX string `json:"reserve_x"`
	ReserveY string `json:"reserve_y"`
}

// reserveTypeFragment identifies pool reserve resources among everything
// else attached to the contract account.
const reserveTypeFragment = "swap::TokenPairReserve"

// ValueLockedCalculator sums the USD value of all pool reserves held by a
// contract account.
type ValueLockedCalculator struct {
	ledger ResourceLedger
	oracle pricing.Source
	logger *log.Logger
}

// NewValueLockedCalculator creates a TVL calculator.
func NewValueLockedCalculator(ledger ResourceLedger, oracle pricing.Source, logger *log.Logger) *ValueLockedCalculator {
	return &ValueLockedCalculator{
		ledger: ledger,
		oracle: oracle,
		logger: logger,
	}
}

// TotalValueLocked fetches the contract's resources once, folds every pool
// reserve into per-token sums and prices the sums concurrently. Tokens
// without a price contribute zero. Malformed reserve resources are skipped.
func (c *ValueLockedCalculator) TotalValueLocked(ctx context.Context, address string) (float64, error) {
	resources, err := c.ledger.GetAccountResources(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("fetch contract resources: %w", err)
	}

	reserves := make(map[string]uint64)
	for _, resource := range resources {
		if !strings.Contains(resource.Type, reserveTypeFragment) {
			continue
		}

		var reserve pairReserve
		if err := json.Unmarshal(resource.Data, &reserve); err != nil {
			c.logger.Printf("skipping malformed reserve %s: %v", resource.Type, err)
			continue
		}
		tokenX, tokenY, err := aptos.TypeParamPair(resource.Type)
		if err != nil {
			c.logger.Printf("skipping reserve with unparsable pair %s: %v", resource.Type, err)
			continue
		}

		reserveX, _ := strconv.ParseUint(reserve.ReserveX, 10, 64)
		reserveY, _ := strconv.ParseUint(reserve.ReserveY, 10, 64)
		reserves[tokenX] += reserveX
		reserves[tokenY] += reserveY
	}

	return pricing.SumValueUSD(ctx, c.oracle, c.logger, reserves, 1), nil
}
