package valuation

import (
	"context"
	"fmt"

	"aptos-project-metrics/internal/domain"
	"aptos-project-metrics/internal/pricing"
)

// SupplyLedger is the remote API surface the market cap calculator needs.
type SupplyLedger interface {
	CoinSupply(ctx context.Context, address, coinType string) (float64, error)
}

// MarketCapCalculator computes both market cap variants of a project token.
// Unlike the flow metrics, a missing price here is a hard failure: a market
// cap of zero would be indistinguishable from a real collapse.
type MarketCapCalculator struct {
	ledger SupplyLedger
	oracle pricing.Source
}

// NewMarketCapCalculator creates a market cap calculator.
func NewMarketCapCalculator(ledger SupplyLedger, oracle pricing.Source) *MarketCapCalculator {
	return &MarketCapCalculator{
		ledger: ledger,
		oracle: oracle,
	}
}

// MarketCap prices the project token and multiplies by supply. The fully
// diluted variant uses the operator-provided max supply attribute and stays
// zero when the attribute is absent; the circulating variant uses the live
// on-chain supply read from the coin's issuing account.
func (c *MarketCapCalculator) MarketCap(ctx context.Context, project *domain.Project, tokenAddress string) (domain.MarketCap, error) {
	quote, ok := c.oracle.Quote(ctx, project.Token)
	if !ok {
		return domain.MarketCap{}, fmt.Errorf("no price for %s", project.Token)
	}

	circulating, err := c.ledger.CoinSupply(ctx, tokenAddress, project.Token)
	if err != nil {
		return domain.MarketCap{}, fmt.Errorf("fetch circulating supply: %w", err)
	}

	var fullyDiluted float64
	if maxSupply, ok := project.IntAttribute(domain.AttrTokenMaxSupply); ok {
		fullyDiluted = quote.Price * float64(maxSupply)
	}

	return domain.MarketCap{
		FullyDiluted: fullyDiluted,
		Circulating:  quote.Price * circulating,
	}, nil
}
