package application

import (
	"context"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
)

// HistoryEvent is either a snapshot of the transaction list or a terminal error.
type HistoryEvent struct {
	Transactions []domain.Transaction
	Err          error
}

type HistoryService struct {
	store TransactionStore
}

func NewHistoryService(store TransactionStore) *HistoryService {
	return &HistoryService{store: store}
}

// Observe forwards live snapshots from the store. A store error is delivered as
// the last event before the channel closes; there is no reconnect.
func (h *HistoryService) Observe(ctx context.Context) <-chan HistoryEvent {
	out := make(chan HistoryEvent)

	go func() {
		defer close(out)

		snaps, errs := h.store.Subscribe(ctx)
		for snap := range snaps {
			select {
			case out <- HistoryEvent{Transactions: snap}:
			case <-ctx.Done():
				drain(snaps)
				return
			}
		}

		if err := <-errs; err != nil && ctx.Err() == nil {
			select {
			case out <- HistoryEvent{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return out
}

func drain(ch <-chan []domain.Transaction) {
	for range ch {
	}
}
