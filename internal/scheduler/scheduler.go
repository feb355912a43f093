// Package scheduler runs the periodic metric jobs for a tracked project.
// Each job lives in its own goroutine with its own ticker, so a slow
// aggregation never delays the other metrics; job starts are staggered so
// the remote API is not hit by everything at once.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"aptos-project-metrics/internal/domain"
	"aptos-project-metrics/internal/observability"
	"aptos-project-metrics/internal/storage"
)

// DefaultStagger is the delay between consecutive job starts.
const DefaultStagger = 120 * time.Second

// Target identifies the on-chain surface of the tracked project.
type Target struct {
	ProjectID     int64
	PoolAddress   string // contract account holding the swap pools
	EntryFunction string // swap entry function scanned for trading volume
	SwapEventType string // fully qualified swap event type
	Token         string // project token coin type
	TokenAddress  string // issuing account of the project token
}

// Metric sources, satisfied by the concrete calculators. Each job consumes
// exactly one.
type (
	ValueLockedSource interface {
		TotalValueLocked(ctx context.Context, address string) (float64, error)
	}
	MarketCapSource interface {
		MarketCap(ctx context.Context, project *domain.Project, tokenAddress string) (domain.MarketCap, error)
	}
	HolderSource interface {
		Estimate(ctx context.Context, token string) (uint64, error)
	}
	VolumeSource interface {
		TradingVolume(ctx context.Context, address, entryFunction string, window domain.Window) (float64, bool, error)
	}
	UserSource interface {
		ActiveUsers(ctx context.Context, address string, window domain.Window) (int, bool, error)
	}
	FeeSource interface {
		SwapFees(ctx context.Context, eventType string, window domain.Window) (float64, bool, error)
	}
)

// Config assembles a Scheduler. History is optional; when nil, metric
// observations are only written to the project attribute bag.
type Config struct {
	Projects storage.ProjectStore
	History  storage.MetricPointStore
	Target   Target

	ValueLocked ValueLockedSource
	MarketCap   MarketCapSource
	Holders     HolderSource
	Volume      VolumeSource
	Users       UserSource
	Fees        FeeSource

	Logger  *log.Logger
	Stagger time.Duration
	Now     func() time.Time
}

// Scheduler owns the job loops of one project.
type Scheduler struct {
	cfg Config
}

// New creates a scheduler. Zero Stagger and Now get defaults.
func New(cfg Config) *Scheduler {
	if cfg.Stagger == 0 {
		cfg.Stagger = DefaultStagger
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Scheduler{cfg: cfg}
}

// job is one periodic metric computation.
type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

func (s *Scheduler) jobs() []job {
	return []job{
		{"total_value_locked", time.Hour, s.runTotalValueLocked},
		{"market_cap", time.Hour, s.runMarketCap},
		{"num_token_holders", 24 * time.Hour, s.runHolderCount},
		{"trading_volume", time.Hour, s.runTradingVolume},
		{"daily_active_users", 2 * time.Hour, s.runDailyActiveUsers},
		{"weekly_active_users", 24 * time.Hour, s.runWeeklyActiveUsers},
		{"daily_fees", 24 * time.Hour, s.runDailyFees},
	}
}

// Run starts every job loop and blocks until ctx is cancelled and all loops
// have drained.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for i, j := range s.jobs() {
		if i > 0 {
			select {
			case <-ctx.Done():
				wg.Wait()
				return
			case <-time.After(s.cfg.Stagger):
			}
		}

		wg.Add(1)
		go func(j job) {
			defer wg.Done()
			s.runLoop(ctx, j)
		}(j)
	}

	wg.Wait()
}

// runLoop executes the job once immediately, then on every tick. The ticker
// is read only after the previous run finishes, so a run that outlasts its
// interval skips ticks instead of overlapping itself.
func (s *Scheduler) runLoop(ctx context.Context, j job) {
	s.execute(ctx, j)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.execute(ctx, j)
		}
	}
}

// execute runs one tick of a job. Failures are logged and counted; the loop
// keeps going.
func (s *Scheduler) execute(ctx context.Context, j job) {
	start := time.Now()
	err := j.run(ctx)
	took := time.Since(start)
	observability.RecordJobRun(j.name, err, took)

	if err != nil {
		s.cfg.Logger.Printf("job %s failed after %s: %v", j.name, took.Round(time.Millisecond), err)
		return
	}
	s.cfg.Logger.Printf("job %s completed in %s", j.name, took.Round(time.Millisecond))
}

// record persists one metric observation: the attribute bag always, the
// history store when configured.
func (s *Scheduler) record(ctx context.Context, metric domain.MetricKind, key string, value domain.Value, observed float64, exact bool) error {
	if err := s.cfg.Projects.UpsertAttribute(ctx, s.cfg.Target.ProjectID, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	observability.RecordAttributeWrite()

	if !exact {
		observability.RecordTruncated(string(metric))
		s.cfg.Logger.Printf("%s hit the scan ceiling, value is a lower bound", metric)
	}

	if s.cfg.History != nil {
		point := &domain.MetricPoint{
			ProjectID:  s.cfg.Target.ProjectID,
			Metric:     metric,
			Value:      observed,
			Exact:      exact,
			ObservedAt: s.cfg.Now().UnixMilli(),
		}
		if err := s.cfg.History.Insert(ctx, point); err != nil {
			return fmt.Errorf("append %s history: %w", metric, err)
		}
	}
	return nil
}

func (s *Scheduler) runTotalValueLocked(ctx context.Context) error {
	tvl, err := s.cfg.ValueLocked.TotalValueLocked(ctx, s.cfg.Target.PoolAddress)
	if err != nil {
		return err
	}
	return s.record(ctx, domain.MetricTotalValueLocked, domain.AttrTotalValueLocked, domain.FloatValue(tvl), tvl, true)
}

func (s *Scheduler) runMarketCap(ctx context.Context) error {
	project, err := s.cfg.Projects.GetByID(ctx, s.cfg.Target.ProjectID)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}

	mc, err := s.cfg.MarketCap.MarketCap(ctx, project, s.cfg.Target.TokenAddress)
	if err != nil {
		return err
	}

	if err := s.record(ctx, domain.MetricMarketCapFullyDiluted, domain.AttrMarketCapFullyDiluted,
		domain.FloatValue(mc.FullyDiluted), mc.FullyDiluted, true); err != nil {
		return err
	}
	return s.record(ctx, domain.MetricMarketCapCirculating, domain.AttrMarketCapCirculating,
		domain.FloatValue(mc.Circulating), mc.Circulating, true)
}

func (s *Scheduler) runHolderCount(ctx context.Context) error {
	holders, err := s.cfg.Holders.Estimate(ctx, s.cfg.Target.Token)
	if err != nil {
		return err
	}
	return s.record(ctx, domain.MetricHolderCount, domain.AttrHolderCount,
		domain.IntValue(int64(holders)), float64(holders), true)
}

func (s *Scheduler) runTradingVolume(ctx context.Context) error {
	window := domain.LookBack(s.cfg.Now(), 7*24*time.Hour)
	volume, exact, err := s.cfg.Volume.TradingVolume(ctx, s.cfg.Target.PoolAddress, s.cfg.Target.EntryFunction, window)
	if err != nil {
		return err
	}
	return s.record(ctx, domain.MetricTradingVolume, domain.AttrTradingVolume,
		domain.FloatValue(volume), volume, exact)
}

func (s *Scheduler) runDailyActiveUsers(ctx context.Context) error {
	window := domain.SinceMidnight(s.cfg.Now(), 0)
	users, exact, err := s.cfg.Users.ActiveUsers(ctx, s.cfg.Target.PoolAddress, window)
	if err != nil {
		return err
	}
	return s.record(ctx, domain.MetricDailyActiveUsers, domain.AttrDailyActiveUsers,
		domain.IntValue(int64(users)), float64(users), exact)
}

func (s *Scheduler) runWeeklyActiveUsers(ctx context.Context) error {
	window := domain.SinceMidnight(s.cfg.Now(), 7)
	users, exact, err := s.cfg.Users.ActiveUsers(ctx, s.cfg.Target.PoolAddress, window)
	if err != nil {
		return err
	}
	return s.record(ctx, domain.MetricWeeklyActiveUsers, domain.AttrWeeklyActiveUsers,
		domain.IntValue(int64(users)), float64(users), exact)
}

func (s *Scheduler) runDailyFees(ctx context.Context) error {
	window := domain.SinceMidnight(s.cfg.Now(), 0)
	fees, exact, err := s.cfg.Fees.SwapFees(ctx, s.cfg.Target.SwapEventType, window)
	if err != nil {
		return err
	}
	return s.record(ctx, domain.MetricDailyFees, domain.AttrDailyFees,
		domain.FloatValue(fees), fees, exact)
}
