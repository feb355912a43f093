package aptos

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// GetAccountResources fetches every Move resource attached to an account.
func (c *HTTPClient) GetAccountResources(ctx context.Context, address string) ([]Resource, error) {
	var resources []Resource
	path := fmt.Sprintf("/accounts/%s/resources", address)
	if err := c.get(ctx, path, &resources); err != nil {
		return nil, fmt.Errorf("get account resources for %s: %w", address, err)
	}
	return resources, nil
}

// GetAccountResource fetches a single typed Move resource. Returns
// ErrNotFound when the account does not hold the resource.
func (c *HTTPClient) GetAccountResource(ctx context.Context, address, resourceType string) (*Resource, error) {
	var resource Resource
	path := fmt.Sprintf("/accounts/%s/resource/%s", address, escapeResourceType(resourceType))
	if err := c.get(ctx, path, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

// CoinDecimals looks up the registered decimals of a coin type on the
// indexer. Returns ErrNotFound for unregistered coins.
func (c *HTTPClient) CoinDecimals(ctx context.Context, coinType string) (uint8, error) {
	query := fmt.Sprintf(`query CoinInfos {
  coin_infos(where: {coin_type: {_eq: %q}}) {
    decimals
  }
}`, coinType)

	var data struct {
		CoinInfos []struct {
			Decimals uint8 `json:"decimals"`
		} `json:"coin_infos"`
	}
	if err := c.graphql(ctx, query, &data); err != nil {
		return 0, fmt.Errorf("query coin decimals for %s: %w", coinType, err)
	}
	if len(data.CoinInfos) == 0 {
		return 0, ErrNotFound
	}
	return data.CoinInfos[0].Decimals, nil
}

// pairMetadata is the payload of a swap pool metadata resource.
type pairMetadata struct {
	BalanceX struct {
		Value string `json:"value"`
	} `json:"balance_x"`
	BalanceY struct {
		Value string `json:"value"`
	} `json:"balance_y"`
}

// PairBalances reads the pool balances for the ordered pair (tokenX, tokenY).
// Returns ErrNotFound when no pool exists for that ordering.
func (c *HTTPClient) PairBalances(ctx context.Context, poolAddress, tokenX, tokenY string) (uint64, uint64, error) {
	resourceType := fmt.Sprintf("%s::swap::TokenPairMetadata<%s,%s>", poolAddress, tokenX, tokenY)
	resource, err := c.GetAccountResource(ctx, poolAddress, resourceType)
	if err != nil {
		return 0, 0, err
	}

	var metadata pairMetadata
	if err := json.Unmarshal(resource.Data, &metadata); err != nil {
		return 0, 0, fmt.Errorf("unmarshal pair metadata: %w", err)
	}
	balanceX, err := strconv.ParseUint(metadata.BalanceX.Value, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse balance_x: %w", err)
	}
	balanceY, err := strconv.ParseUint(metadata.BalanceY.Value, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse balance_y: %w", err)
	}
	return balanceX, balanceY, nil
}

// CoinBalanceCount returns how many accounts in the page starting at offset
// hold a positive balance of the coin. A full page means the true holder set
// extends past this offset.
func (c *HTTPClient) CoinBalanceCount(ctx context.Context, coinType string, offset, limit uint64) (int, error) {
	query := fmt.Sprintf(`query CoinBalances {
  current_coin_balances(
    offset: %d
    limit: %d
    where: {coin_type: {_eq: %q}, amount: {_gt: "0"}}
  ) {
    owner_address
  }
}`, offset, limit, coinType)

	var data struct {
		Balances []struct {
			OwnerAddress string `json:"owner_address"`
		} `json:"current_coin_balances"`
	}
	if err := c.graphql(ctx, query, &data); err != nil {
		return 0, fmt.Errorf("query coin balances at offset %d: %w", offset, err)
	}
	return len(data.Balances), nil
}

// CoinActivities fetches one page of coin movements for transactions sent to
// the contract through the given entry function, newest first. Movements are
// flattened in page order.
func (c *HTTPClient) CoinActivities(ctx context.Context, address, entryFunction string, offset, limit uint64) ([]CoinActivity, error) {
	query := fmt.Sprintf(`query AccountTransactionsData {
  account_transactions(
    offset: %d
    limit: %d
    where: {account_address: {_eq: %q}, user_transaction: {entry_function_id_str: {_eq: %q}}}
    order_by: {transaction_version: desc}
  ) {
    coin_activities {
      amount
      coin_info {
        coin_type
      }
      transaction_timestamp
    }
  }
}`, offset, limit, address, entryFunction)

	var data struct {
		Transactions []struct {
			CoinActivities []struct {
				Amount   uint64 `json:"amount"`
				CoinInfo struct {
					CoinType string `json:"coin_type"`
				} `json:"coin_info"`
				TransactionTimestamp string `json:"transaction_timestamp"`
			} `json:"coin_activities"`
		} `json:"account_transactions"`
	}
	if err := c.graphql(ctx, query, &data); err != nil {
		return nil, fmt.Errorf("query coin activities at offset %d: %w", offset, err)
	}

	var activities []CoinActivity
	for _, tx := range data.Transactions {
		for _, activity := range tx.CoinActivities {
			ts, err := parseTimestamp(activity.TransactionTimestamp)
			if err != nil {
				return nil, err
			}
			activities = append(activities, CoinActivity{
				Amount:    activity.Amount,
				CoinType:  activity.CoinInfo.CoinType,
				Timestamp: ts,
			})
		}
	}
	return activities, nil
}

// TransactionSenders fetches one page of user transaction senders for a
// contract account, newest first. Rows without a user transaction are
// skipped.
func (c *HTTPClient) TransactionSenders(ctx context.Context, address string, offset, limit uint64) ([]SenderRecord, error) {
	query := fmt.Sprintf(`query AccountTransactionsData {
  account_transactions(
    offset: %d
    limit: %d
    where: {account_address: {_eq: %q}}
    order_by: {transaction_version: desc}
  ) {
    user_transaction {
      sender
      timestamp
    }
  }
}`, offset, limit, address)

	var data struct {
		Transactions []struct {
			UserTransaction *struct {
				Sender    string `json:"sender"`
				Timestamp string `json:"timestamp"`
			} `json:"user_transaction"`
		} `json:"account_transactions"`
	}
	if err := c.graphql(ctx, query, &data); err != nil {
		return nil, fmt.Errorf("query transaction senders at offset %d: %w", offset, err)
	}

	var records []SenderRecord
	for _, tx := range data.Transactions {
		if tx.UserTransaction == nil {
			continue
		}
		ts, err := parseTimestamp(tx.UserTransaction.Timestamp)
		if err != nil {
			return nil, err
		}
		records = append(records, SenderRecord{
			Sender:    tx.UserTransaction.Sender,
			Timestamp: ts,
		})
	}
	return records, nil
}

// SwapEvents fetches one page of swap events whose indexed type starts with
// the given prefix, newest first.
func (c *HTTPClient) SwapEvents(ctx context.Context, indexedTypePrefix string, offset, limit uint64) ([]SwapEvent, error) {
	query := fmt.Sprintf(`query SwapEvents {
  events(
    where: {indexed_type: {_like: %q}}
    order_by: {transaction_version: desc}
    offset: %d
    limit: %d
  ) {
    data
    indexed_type
    transaction_version
  }
}`, indexedTypePrefix+"%", offset, limit)

	var data struct {
		Events []struct {
			Data struct {
				AmountXIn string `json:"amount_x_in"`
				AmountYIn string `json:"amount_y_in"`
			} `json:"data"`
			IndexedType        string `json:"indexed_type"`
			TransactionVersion int64  `json:"transaction_version"`
		} `json:"events"`
	}
	if err := c.graphql(ctx, query, &data); err != nil {
		return nil, fmt.Errorf("query swap events at offset %d: %w", offset, err)
	}

	events := make([]SwapEvent, 0, len(data.Events))
	for _, ev := range data.Events {
		amountXIn, err := strconv.ParseUint(ev.Data.AmountXIn, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse amount_x_in: %w", err)
		}
		amountYIn, err := strconv.ParseUint(ev.Data.AmountYIn, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse amount_y_in: %w", err)
		}
		events = append(events, SwapEvent{
			AmountXIn:   amountXIn,
			AmountYIn:   amountYIn,
			IndexedType: ev.IndexedType,
			Version:     ev.TransactionVersion,
		})
	}
	return events, nil
}

// TransactionTimestamp resolves the timestamp of a transaction by version.
func (c *HTTPClient) TransactionTimestamp(ctx context.Context, version int64) (time.Time, error) {
	query := fmt.Sprintf(`query TransactionTimestamp {
  account_transactions(
    where: {transaction_version: {_eq: "%d"}}
    limit: 1
  ) {
    user_transaction {
      timestamp
    }
  }
}`, version)

	var data struct {
		Transactions []struct {
			UserTransaction *struct {
				Timestamp string `json:"timestamp"`
			} `json:"user_transaction"`
		} `json:"account_transactions"`
	}
	if err := c.graphql(ctx, query, &data); err != nil {
		return time.Time{}, fmt.Errorf("query timestamp for version %d: %w", version, err)
	}
	if len(data.Transactions) == 0 || data.Transactions[0].UserTransaction == nil {
		return time.Time{}, ErrNotFound
	}
	return parseTimestamp(data.Transactions[0].UserTransaction.Timestamp)
}

// coinInfoResource is the payload of a 0x1::coin::CoinInfo resource. The
// supply sits behind two layers of Move option encoding.
type coinInfoResource struct {
	Decimals uint8 `json:"decimals"`
	Supply   struct {
		Vec []struct {
			Integer struct {
				Vec []struct {
					Value string `json:"value"`
				} `json:"vec"`
			} `json:"integer"`
		} `json:"vec"`
	} `json:"supply"`
}

// CoinSupply reads the on-chain circulating supply of a coin, adjusted for
// its decimals. The coin info resource lives on the coin's issuing account.
func (c *HTTPClient) CoinSupply(ctx context.Context, address, coinType string) (float64, error) {
	resourceType := fmt.Sprintf("0x1::coin::CoinInfo<%s>", coinType)
	resource, err := c.GetAccountResource(ctx, address, resourceType)
	if err != nil {
		return 0, fmt.Errorf("get coin info for %s: %w", coinType, err)
	}

	var info coinInfoResource
	if err := json.Unmarshal(resource.Data, &info); err != nil {
		return 0, fmt.Errorf("unmarshal coin info: %w", err)
	}
	if len(info.Supply.Vec) == 0 || len(info.Supply.Vec[0].Integer.Vec) == 0 {
		return 0, fmt.Errorf("coin info for %s has no tracked supply", coinType)
	}
	raw, err := strconv.ParseFloat(info.Supply.Vec[0].Integer.Vec[0].Value, 64)
	if err != nil {
		return 0, fmt.Errorf("parse supply value: %w", err)
	}
	return raw / math.Pow10(int(info.Decimals)), nil
}
