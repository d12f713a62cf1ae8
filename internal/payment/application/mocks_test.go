package application

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockGateway implements PaymentGateway for testing
type MockGateway struct {
	mu           sync.Mutex
	SendFunc     func(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResponse, error)
	ValidateFunc func(ctx context.Context, req domain.PaymentRequest) (bool, error)
	SendCalls    []domain.PaymentRequest
}

func (m *MockGateway) SendPayment(ctx context.Context, req domain.PaymentRequest) (domain.PaymentResponse, error) {
	m.mu.Lock()
	m.SendCalls = append(m.SendCalls, req)
	m.mu.Unlock()

	if m.SendFunc != nil {
		return m.SendFunc(ctx, req)
	}
	return domain.PaymentResponse{Success: true, Message: "ok"}, nil
}

func (m *MockGateway) ValidatePayment(ctx context.Context, req domain.PaymentRequest) (bool, error) {
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, req)
	}
	return true, nil
}

func (m *MockGateway) sendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.SendCalls)
}

// MockStore implements TransactionStore for testing
type MockStore struct {
	mu            sync.Mutex
	SaveFunc      func(ctx context.Context, t domain.Transaction) error
	SubscribeFunc func(ctx context.Context) (<-chan []domain.Transaction, <-chan error)
	GetFunc       func(ctx context.Context, id string) (*domain.Transaction, error)
	Saved         []domain.Transaction
}

func (m *MockStore) SaveTransaction(ctx context.Context, t domain.Transaction) error {
	m.mu.Lock()
	m.Saved = append(m.Saved, t)
	m.mu.Unlock()

	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, t)
	}
	return nil
}

func (m *MockStore) Subscribe(ctx context.Context) (<-chan []domain.Transaction, <-chan error) {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx)
	}
	snaps := make(chan []domain.Transaction)
	errs := make(chan error)
	close(snaps)
	close(errs)
	return snaps, errs
}

func (m *MockStore) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockStore) DeleteTransaction(ctx context.Context, id string) error {
	return nil
}

func (m *MockStore) UpdateTransactionStatus(ctx context.Context, id string, status domain.Status) error {
	return nil
}

func (m *MockStore) saved() []domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Transaction(nil), m.Saved...)
}
