package activity

import (
	"context"
	"fmt"
	"sync"

	"aptos-project-metrics/internal/aptos"
	"aptos-project-metrics/internal/domain"
	"aptos-project-metrics/internal/observability"
)

// SenderLedger is the remote API surface the user counter needs.
type SenderLedger interface {
	TransactionSenders(ctx context.Context, address string, offset, limit uint64) ([]aptos.SenderRecord, error)
}

// UserCounter counts distinct transaction senders against a contract inside
// a window. The same counter serves daily and weekly counts; only the
// window differs.
type UserCounter struct {
	ledger SenderLedger
	fanOut int
}

// NewUserCounter creates an active user counter.
func NewUserCounter(ledger SenderLedger) *UserCounter {
	return &UserCounter{
		ledger: ledger,
		fanOut: userFanOut,
	}
}

// ActiveUsers returns the number of distinct senders inside the window. The
// second return value reports whether the scan covered the whole window.
func (c *UserCounter) ActiveUsers(ctx context.Context, address string, window domain.Window) (int, bool, error) {
	var (
		mu      sync.Mutex
		senders = make(map[string]struct{})
	)

	exact, err := scan(ctx, c.fanOut, func(ctx context.Context, offset uint64) (bool, error) {
		records, err := c.ledger.TransactionSenders(ctx, address, offset, pageSize)
		if err != nil {
			return false, err
		}
		observability.RecordPageFetched("active_users")
		if len(records) == 0 {
			return true, nil
		}

		local := make(map[string]struct{})
		boundary := false
		for _, record := range records {
			if record.Timestamp.Before(window.Cutoff) {
				boundary = true
				break
			}
			local[record.Sender] = struct{}{}
		}

		mu.Lock()
		for sender := range local {
			senders[sender] = struct{}{}
		}
		mu.Unlock()

		return boundary, nil
	})
	if err != nil {
		return 0, false, fmt.Errorf("scan active users: %w", err)
	}

	return len(senders), exact, nil
}
