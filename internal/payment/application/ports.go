package application

import (
	"context"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
)

type PaymentGateway interface {
	SendPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResponse, error)
	ValidatePayment(ctx context.Context, req domain.PaymentRequest) (bool, error)
}

// TransactionStore persists transaction records and streams live snapshots of them.
//
// Subscribe emits the full list ordered by timestamp descending, once on start and
// again on every change. Both channels are closed once the subscription ends; the
// error channel carries at most one listener error. Cancelling ctx releases the
// underlying listener before the channels close.
type TransactionStore interface {
	SaveTransaction(ctx context.Context, t domain.Transaction) error
	Subscribe(ctx context.Context) (<-chan []domain.Transaction, <-chan error)
	GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
	UpdateTransactionStatus(ctx context.Context, id string, status domain.Status) error
}
