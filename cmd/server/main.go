// Package main runs the metrics aggregation service: periodic jobs that
// compute TVL, market cap, holder count, trading volume, active users and
// fees for a tracked on-chain project, writing results to the project's
// attribute bag and optionally to a metric history.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"aptos-project-metrics/internal/activity"
	"aptos-project-metrics/internal/aptos"
	"aptos-project-metrics/internal/domain"
	"aptos-project-metrics/internal/holders"
	"aptos-project-metrics/internal/observability"
	"aptos-project-metrics/internal/pricing"
	"aptos-project-metrics/internal/scheduler"
	"aptos-project-metrics/internal/storage"
	chstore "aptos-project-metrics/internal/storage/clickhouse"
	"aptos-project-metrics/internal/storage/memory"
	"aptos-project-metrics/internal/storage/migrations"
	pgstore "aptos-project-metrics/internal/storage/postgres"
	"aptos-project-metrics/internal/valuation"
)

// Public Aptos mainnet endpoints, overridable per deployment.
const (
	defaultFullnodeURL = "https://fullnode.mainnet.aptoslabs.com/v1"
	defaultIndexerURL  = "https://indexer.mainnet.aptoslabs.com/v1"
)

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	fullnodeURL := flag.String("fullnode-url", envOr("APTOS_FULLNODE_URL", defaultFullnodeURL), "Aptos fullnode REST endpoint")
	indexerURL := flag.String("indexer-url", envOr("APTOS_INDEXER_URL", defaultIndexerURL), "Aptos indexer GraphQL endpoint")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string for metric history (optional)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address")

	projectName := flag.String("project-name", os.Getenv("PROJECT_NAME"), "Tracked project name")
	poolAddress := flag.String("pool-address", os.Getenv("POOL_ADDRESS"), "Contract account holding the swap pools")
	token := flag.String("token", os.Getenv("PROJECT_TOKEN"), "Project token coin type")
	tokenAddress := flag.String("token-address", os.Getenv("TOKEN_ADDRESS"), "Issuing account of the project token (default: token address prefix)")
	entryFunction := flag.String("entry-function", os.Getenv("ENTRY_FUNCTION"), "Swap entry function scanned for volume (default: <pool-address>::router::swap_exact_input)")
	swapEventType := flag.String("swap-event-type", os.Getenv("SWAP_EVENT_TYPE"), "Swap event type scanned for fees (default: <pool-address>::swap::SwapEvent)")
	maxSupply := flag.Int64("token-max-supply", 0, "Max token supply for fully diluted market cap (0 = unknown)")

	stagger := flag.Duration("stagger", scheduler.DefaultStagger, "Delay between job starts")
	rateLimit := flag.Float64("rate-limit", aptos.DefaultRateLimit, "Ledger API requests per second")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	// Validate required flags
	if *projectName == "" || *poolAddress == "" || *token == "" {
		logger.Fatal("--project-name, --pool-address and --token are required")
	}
	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	// Derive the on-chain surface from the pool address where not given
	if *entryFunction == "" {
		*entryFunction = *poolAddress + "::router::swap_exact_input"
	}
	if *swapEventType == "" {
		*swapEventType = *poolAddress + "::swap::SwapEvent"
	}
	if *tokenAddress == "" {
		*tokenAddress = strings.SplitN(*token, "::", 2)[0]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create stores
	projects, history, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	// Ensure the tracked project exists
	project, err := ensureProject(ctx, projects, *projectName, *token, *poolAddress, *maxSupply)
	if err != nil {
		logger.Fatalf("Failed to ensure project: %v", err)
	}
	logger.Printf("Tracking project %q (id=%d) at %s", project.Name, project.ID, project.ContractAddress)

	// Remote ledger client and metric calculators
	client := aptos.NewHTTPClient(*fullnodeURL, *indexerURL, aptos.WithRateLimit(*rateLimit))
	oracle := pricing.NewOracle(client, *poolAddress, log.New(os.Stdout, "[pricing] ", log.LstdFlags))

	sched := scheduler.New(scheduler.Config{
		Projects: projects,
		History:  history,
		Target: scheduler.Target{
			ProjectID:     project.ID,
			PoolAddress:   *poolAddress,
			EntryFunction: *entryFunction,
			SwapEventType: *swapEventType,
			Token:         *token,
			TokenAddress:  *tokenAddress,
		},
		ValueLocked: valuation.NewValueLockedCalculator(client, oracle, log.New(os.Stdout, "[valuation] ", log.LstdFlags)),
		MarketCap:   valuation.NewMarketCapCalculator(client, oracle),
		Holders:     holders.NewEstimator(client),
		Volume:      activity.NewVolumeAggregator(client, oracle, log.New(os.Stdout, "[activity] ", log.LstdFlags)),
		Users:       activity.NewUserCounter(client),
		Fees:        activity.NewFeeAggregator(client, oracle, log.New(os.Stdout, "[activity] ", log.LstdFlags)),
		Logger:      log.New(os.Stdout, "[scheduler] ", log.LstdFlags),
		Stagger:     *stagger,
	})

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		select {
		case sig := <-sigCh:
			logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		}
	}()

	// Start HTTP server for health and metrics
	go startHTTPServer(logger, *metricsAddr)

	logger.Println("Starting scheduler...")
	sched.Run(ctx)
	logger.Println("Shutdown complete")
}

// createStores builds the project store and the optional metric history
// store, running migrations on anything it connects to.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (storage.ProjectStore, storage.MetricPointStore, func(), error) {
	if useMemory {
		return memory.NewProjectStore(), memory.NewMetricPointStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run postgres migrations: %w", err)
	}

	// History is optional: without ClickHouse, only attributes are kept.
	if clickhouseDSN == "" {
		return pgstore.NewProjectStore(pool), nil, pool.Close, nil
	}

	conn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		conn.Close()
		pool.Close()
		return nil, nil, nil, fmt.Errorf("run clickhouse migrations: %w", err)
	}

	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return pgstore.NewProjectStore(pool), chstore.NewMetricPointStore(conn), cleanup, nil
}

// ensureProject loads the tracked project by contract address, creating it
// on first run. The max supply attribute is written when provided so the
// fully diluted market cap has something to work with.
func ensureProject(ctx context.Context, projects storage.ProjectStore, name, token, address string, maxSupply int64) (*domain.Project, error) {
	project, err := projects.GetByAddress(ctx, address)
	if errors.Is(err, storage.ErrNotFound) {
		project, err = projects.Create(ctx, &domain.Project{
			Name:            name,
			Token:           token,
			Category:        "dex",
			ContractAddress: address,
		})
	}
	if err != nil {
		return nil, err
	}

	if maxSupply > 0 {
		if err := projects.UpsertAttribute(ctx, project.ID, domain.AttrTokenMaxSupply, domain.IntValue(maxSupply)); err != nil {
			return nil, fmt.Errorf("set max supply: %w", err)
		}
	}
	return project, nil
}

// startHTTPServer serves health and Prometheus metrics.
func startHTTPServer(logger *log.Logger, addr string) {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())

	logger.Printf("Starting HTTP server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		logger.Printf("HTTP server error: %v", err)
	}
}

// envOr returns the environment variable value or a default.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
