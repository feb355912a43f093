// Package aptos provides an HTTP client for the Aptos fullnode REST API and
// the indexer GraphQL API. All calls take a context, retry transient
// transport failures with exponential backoff, and share a client-side rate
// limiter so concurrent fan-outs do not overrun the remote API.
package aptos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultRateLimit   = 50 // requests per second
)

// ErrNotFound is returned when a requested resource or record does not exist
// on the remote ledger.
var ErrNotFound = errors.New("not found on ledger")

// Client is the interface consumed by the aggregation components. HTTPClient
// is the production implementation.
type Client interface {
	GetAccountResources(ctx context.Context, address string) ([]Resource, error)
	GetAccountResource(ctx context.Context, address, resourceType string) (*Resource, error)
	CoinDecimals(ctx context.Context, coinType string) (uint8, error)
	PairBalances(ctx context.Context, poolAddress, tokenX, tokenY string) (uint64, uint64, error)
	CoinBalanceCount(ctx context.Context, coinType string, offset, limit uint64) (int, error)
	CoinActivities(ctx context.Context, address, entryFunction string, offset, limit uint64) ([]CoinActivity, error)
	TransactionSenders(ctx context.Context, address string, offset, limit uint64) ([]SenderRecord, error)
	SwapEvents(ctx context.Context, indexedTypePrefix string, offset, limit uint64) ([]SwapEvent, error)
	TransactionTimestamp(ctx context.Context, version int64) (time.Time, error)
	CoinSupply(ctx context.Context, address, coinType string) (float64, error)
}

// HTTPClient implements Client over the fullnode REST and indexer GraphQL
// endpoints.
type HTTPClient struct {
	fullnodeURL string
	indexerURL  string
	client      *http.Client
	limiter     *rate.Limiter
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts per call.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets the maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.maxDelay = d
	}
}

// WithRateLimit caps outbound requests per second across all callers.
func WithRateLimit(rps float64) ClientOption {
	return func(c *HTTPClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), int(rps))
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new Aptos API client. fullnodeURL serves the REST
// surface, indexerURL the GraphQL surface; they may point at the same host.
func NewHTTPClient(fullnodeURL, indexerURL string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		fullnodeURL: strings.TrimRight(fullnodeURL, "/"),
		indexerURL:  strings.TrimRight(indexerURL, "/"),
		client:      &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ Client = (*HTTPClient)(nil)

// get performs a REST GET with retries and decodes the JSON response.
// A 404 maps to ErrNotFound and is not retried.
func (c *HTTPClient) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, c.fullnodeURL+path, nil)
	}, result)
}

// graphqlRequest is the standard GraphQL POST envelope.
type graphqlRequest struct {
	Query string `json:"query"`
}

// graphqlError is one entry of the GraphQL errors array.
type graphqlError struct {
	Message string `json:"message"`
}

// graphql performs a GraphQL query with retries and decodes the data payload.
// Errors reported in the GraphQL envelope are returned without retry.
func (c *HTTPClient) graphql(ctx context.Context, query string, data any) error {
	body, err := json.Marshal(graphqlRequest{Query: query})
	if err != nil {
		return fmt.Errorf("marshal graphql query: %w", err)
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphqlError  `json:"errors"`
	}

	err = c.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.indexerURL+"/graphql", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &envelope)
	if err != nil {
		return err
	}

	if len(envelope.Errors) > 0 {
		return fmt.Errorf("graphql error: %s", envelope.Errors[0].Message)
	}
	if data != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, data); err != nil {
			return fmt.Errorf("unmarshal graphql data: %w", err)
		}
	}
	return nil
}

// do runs one request with the retry/backoff loop. newReq is called per
// attempt because request bodies cannot be reused.
func (c *HTTPClient) do(ctx context.Context, newReq func() (*http.Request, error), result any) error {
	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := newReq()
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			// Absent resources are a data condition, not a transport fault.
			return ErrNotFound
		case resp.StatusCode == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
			continue
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("unmarshal response: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// escapeResourceType encodes a Move resource type for use in a URL path.
func escapeResourceType(resourceType string) string {
	return url.PathEscape(resourceType)
}
