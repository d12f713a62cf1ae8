package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dmehra2102/Send-Payment-Service/internal/gateway/domain"
)

// Repository keeps payments and transactions in insertion order for the
// lifetime of the process.
type Repository struct {
	mu           sync.RWMutex
	payments     []domain.Payment
	transactions []domain.Transaction
}

func NewRepository() *Repository {
	return &Repository{}
}

func (r *Repository) Record(_ context.Context, p domain.Payment, t domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, p)
	r.transactions = append(r.transactions, t)
	return nil
}

func (r *Repository) Payments(context.Context) ([]domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Clone(r.payments)
	if out == nil {
		out = []domain.Payment{}
	}
	return out, nil
}

func (r *Repository) Transactions(context.Context) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := slices.Clone(r.transactions)
	if out == nil {
		out = []domain.Transaction{}
	}
	return out, nil
}
