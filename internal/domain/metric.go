package domain

// MetricKind identifies one scheduled metric computation.
type MetricKind string

const (
	MetricTotalValueLocked      MetricKind = "total_value_locked"
	MetricMarketCapFullyDiluted MetricKind = "market_cap_fully_diluted"
	MetricMarketCapCirculating  MetricKind = "market_cap_circulating"
	MetricHolderCount           MetricKind = "num_token_holders"
	MetricTradingVolume         MetricKind = "trading_volume"
	MetricDailyActiveUsers      MetricKind = "daily_active_users"
	MetricWeeklyActiveUsers     MetricKind = "weekly_active_users"
	MetricDailyFees             MetricKind = "daily_fees"
)

// Project attribute keys written by the scheduler. Market cap fans out into
// two attributes; every other metric maps to a single key named after it.
const (
	AttrTotalValueLocked      = "total_value_locked"
	AttrMarketCapFullyDiluted = "market_cap_fully_diluted"
	AttrMarketCapCirculating  = "market_cap_circulating"
	AttrHolderCount           = "num_token_holders"
	AttrTradingVolume         = "trading_volume"
	AttrDailyActiveUsers      = "daily_active_users"
	AttrWeeklyActiveUsers     = "weekly_active_users"
	AttrDailyFees             = "daily_fees"

	// AttrTokenMaxSupply is operator-provided input, not a computed metric.
	AttrTokenMaxSupply = "token_max_supply"
)

// MetricPoint is one observation of a computed metric, appended to the
// history store on every successful scheduler tick. Exact is false when a
// windowed aggregation hit its record-scan ceiling before reaching the
// window cutoff.
type MetricPoint struct {
	ProjectID  int64
	Metric     MetricKind
	Value      float64
	Exact      bool
	ObservedAt int64 // Unix timestamp in milliseconds
}
