package application

import (
	"context"

	"github.com/dmehra2102/Send-Payment-Service/internal/gateway/domain"
)

type Repository interface {
	Record(ctx context.Context, p domain.Payment, t domain.Transaction) error
	Payments(ctx context.Context) ([]domain.Payment, error)
	Transactions(ctx context.Context) ([]domain.Transaction, error)
}
