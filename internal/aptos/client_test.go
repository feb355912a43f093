package aptos

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPClient_PairBalances(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/accounts/0xpool/resource/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if !strings.Contains(r.URL.Path, "swap::TokenPairMetadata") {
			t.Errorf("expected pair metadata resource, got %s", r.URL.Path)
		}

		resp := map[string]interface{}{
			"type": "0xpool::swap::TokenPairMetadata<0xa::coin::A,0xb::coin::B>",
			"data": map[string]interface{}{
				"balance_x": map[string]interface{}{"value": "1500000"},
				"balance_y": map[string]interface{}{"value": "3000000"},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.URL)
	ctx := context.Background()

	balanceX, balanceY, err := client.PairBalances(ctx, "0xpool", "0xa::coin::A", "0xb::coin::B")
	if err != nil {
		t.Fatalf("PairBalances: %v", err)
	}

	if balanceX != 1500000 {
		t.Errorf("expected balance_x 1500000, got %d", balanceX)
	}

	if balanceY != 3000000 {
		t.Errorf("expected balance_y 3000000, got %d", balanceY)
	}
}

func TestHTTPClient_GetAccountResource_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.URL)
	ctx := context.Background()

	_, err := client.GetAccountResource(ctx, "0xdead", "0x1::coin::CoinInfo<0xdead::t::T>")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPClient_CoinDecimals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if !strings.Contains(req.Query, "coin_infos") {
			t.Errorf("expected coin_infos query, got %s", req.Query)
		}
		if !strings.Contains(req.Query, "0xa::coin::A") {
			t.Errorf("expected coin type in query, got %s", req.Query)
		}

		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"coin_infos": []map[string]interface{}{
					{"decimals": 8},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.URL)
	ctx := context.Background()

	decimals, err := client.CoinDecimals(ctx, "0xa::coin::A")
	if err != nil {
		t.Fatalf("CoinDecimals: %v", err)
	}

	if decimals != 8 {
		t.Errorf("expected 8 decimals, got %d", decimals)
	}
}

func TestHTTPClient_CoinDecimals_Unregistered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"coin_infos": []map[string]interface{}{},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.URL)
	ctx := context.Background()

	_, err := client.CoinDecimals(ctx, "0xunknown::coin::X")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHTTPClient_CoinBalanceCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		json.NewDecoder(r.Body).Decode(&req)

		if !strings.Contains(req.Query, "offset: 40") {
			t.Errorf("expected offset 40 in query, got %s", req.Query)
		}

		balances := make([]map[string]interface{}, 37)
		for i := range balances {
			balances[i] = map[string]interface{}{"owner_address": "0xholder"}
		}

		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"current_coin_balances": balances,
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.URL)
	ctx := context.Background()

	count, err := client.CoinBalanceCount(ctx, "0xa::coin::A", 40, 100)
	if err != nil {
		t.Fatalf("CoinBalanceCount: %v", err)
	}

	if count != 37 {
		t.Errorf("expected 37 holders, got %d", count)
	}
}

func TestHTTPClient_CoinActivities(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		json.NewDecoder(r.Body).Decode(&req)

		if !strings.Contains(req.Query, "account_transactions") {
			t.Errorf("expected account_transactions query, got %s", req.Query)
		}
		if !strings.Contains(req.Query, "entry_function_id_str") {
			t.Errorf("expected entry function filter, got %s", req.Query)
		}

		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"account_transactions": []map[string]interface{}{
					{
						"coin_activities": []map[string]interface{}{
							{
								"amount":                uint64(1000),
								"coin_info":             map[string]interface{}{"coin_type": "0xa::coin::A"},
								"transaction_timestamp": "2026-08-28T10:00:00",
							},
							{
								"amount":                uint64(2000),
								"coin_info":             map[string]interface{}{"coin_type": "0xb::coin::B"},
								"transaction_timestamp": "2026-08-28T10:00:00",
							},
						},
					},
					{
						"coin_activities": []map[string]interface{}{
							{
								"amount":                uint64(500),
								"coin_info":             map[string]interface{}{"coin_type": "0xa::coin::A"},
								"transaction_timestamp": "2026-08-27T09:30:00",
							},
						},
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.URL)
	ctx := context.Background()

	activities, err := client.CoinActivities(ctx, "0xdex", "0xdex::router::swap_exact_input", 0, 100)
	if err != nil {
		t.Fatalf("CoinActivities: %v", err)
	}

	if len(activities) != 3 {
		t.Fatalf("expected 3 activities, got %d", len(activities))
	}

	if activities[0].Amount != 1000 {
		t.Errorf("expected amount 1000, got %d", activities[0].Amount)
	}

	if activities[2].CoinType != "0xa::coin::A" {
		t.Errorf("expected coin type 0xa::coin::A, got %s", activities[2].CoinType)
	}

	want := time.Date(2026, 8, 27, 9, 30, 0, 0, time.UTC)
	if !activities[2].Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, activities[2].Timestamp)
	}
}

func TestHTTPClient_TransactionSenders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"account_transactions": []map[string]interface{}{
					{
						"user_transaction": map[string]interface{}{
							"sender":    "0xalice",
							"timestamp": "2026-08-28T10:00:00.123456",
						},
					},
					{
						"user_transaction": nil,
					},
					{
						"user_transaction": map[string]interface{}{
							"sender":    "0xbob",
							"timestamp": "2026-08-28T09:00:00",
						},
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.URL)
	ctx := context.Background()

	senders, err := client.TransactionSenders(ctx, "0xdex", 0, 100)
	if err != nil {
		t.Fatalf("TransactionSenders: %v", err)
	}

	if len(senders) != 2 {
		t.Fatalf("expected 2 senders, got %d", len(senders))
	}

	if senders[0].Sender != "0xalice" {
		t.Errorf("expected 0xalice, got %s", senders[0].Sender)
	}

	if senders[0].Timestamp.Nanosecond() != 123456000 {
		t.Errorf("expected fractional timestamp preserved, got %v", senders[0].Timestamp)
	}

	if senders[1].Sender != "0xbob" {
		t.Errorf("expected 0xbob, got %s", senders[1].Sender)
	}
}

func TestHTTPClient_SwapEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req graphqlRequest
		json.NewDecoder(r.Body).Decode(&req)

		if !strings.Contains(req.Query, "0xdex::swap::SwapEvent%") {
			t.Errorf("expected indexed type prefix match, got %s", req.Query)
		}

		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"events": []map[string]interface{}{
					{
						"data":                map[string]interface{}{"amount_x_in": "700", "amount_y_in": "0"},
						"indexed_type":        "0xdex::swap::SwapEvent<0xa::coin::A, 0xb::coin::B>",
						"transaction_version": int64(42),
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.URL)
	ctx := context.Background()

	events, err := client.SwapEvents(ctx, "0xdex::swap::SwapEvent", 0, 100)
	if err != nil {
		t.Fatalf("SwapEvents: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	if events[0].AmountXIn != 700 || events[0].AmountYIn != 0 {
		t.Errorf("unexpected amounts: %d, %d", events[0].AmountXIn, events[0].AmountYIn)
	}

	if events[0].Version != 42 {
		t.Errorf("expected version 42, got %d", events[0].Version)
	}
}

func TestHTTPClient_CoinSupply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "0x1::coin::CoinInfo") {
			t.Errorf("expected coin info resource, got %s", r.URL.Path)
		}

		resp := map[string]interface{}{
			"type": "0x1::coin::CoinInfo<0xa::coin::A>",
			"data": map[string]interface{}{
				"decimals": 6,
				"supply": map[string]interface{}{
					"vec": []map[string]interface{}{
						{
							"integer": map[string]interface{}{
								"vec": []map[string]interface{}{
									{"value": "2500000000"},
								},
							},
						},
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.URL)
	ctx := context.Background()

	supply, err := client.CoinSupply(ctx, "0xa", "0xa::coin::A")
	if err != nil {
		t.Fatalf("CoinSupply: %v", err)
	}

	if supply != 2500 {
		t.Errorf("expected supply 2500, got %f", supply)
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		resp := map[string]interface{}{
			"data": map[string]interface{}{
				"coin_infos": []map[string]interface{}{
					{"decimals": 6},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)
	ctx := context.Background()

	decimals, err := client.CoinDecimals(ctx, "0xa::coin::A")
	if err != nil {
		t.Fatalf("CoinDecimals: %v", err)
	}

	if decimals != 6 {
		t.Errorf("expected 6 decimals, got %d", decimals)
	}

	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_GraphQLError(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		resp := map[string]interface{}{
			"errors": []map[string]interface{}{
				{"message": "field 'coin_infos' not found"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.URL, WithRetryDelay(time.Millisecond))
	ctx := context.Background()

	_, err := client.CoinDecimals(ctx, "0xa::coin::A")
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if !strings.Contains(err.Error(), "coin_infos") {
		t.Errorf("expected graphql error message, got %v", err)
	}

	if attempts.Load() != 1 {
		t.Errorf("expected no retries on graphql error, got %d attempts", attempts.Load())
	}
}
