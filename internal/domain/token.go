package domain

import "math"

// Reference stablecoins used for price triangulation. Both are bridged
// assets with a fixed, known decimal precision.
const (
	USDT = "0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDT"
	USDC = "0xf22bede237a07e121b56d91a491eb7bcdfd1f5907926a9e58338f964a01b17fa::asset::USDC"

	// DecimalsUSD is the decimal precision of both reference stablecoins.
	DecimalsUSD uint8 = 6
)

// IsStablecoin reports whether token is one of the reference stablecoins.
func IsStablecoin(token string) bool {
	return token == USDT || token == USDC
}

// PriceQuote is a point-in-time USD price of a token together with the
// token's decimal precision. Quotes are never cached; they are valid only
// for the instant they were computed.
type PriceQuote struct {
	Price    float64
	Decimals uint8
}

// ValueUSD converts a raw on-chain amount of the quoted token to USD.
func (q PriceQuote) ValueUSD(raw uint64) float64 {
	return q.Price * float64(raw) / math.Pow10(int(q.Decimals))
}

// MarketCap holds both market capitalization variants of a project token.
type MarketCap struct {
	FullyDiluted float64 // price * max supply, 0 when max supply is unknown
	Circulating  float64 // price * live circulating supply
}
