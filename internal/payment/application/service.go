package application

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
)

type Service struct {
	log     *slog.Logger
	gateway PaymentGateway
	store   TransactionStore
	tracer  trace.Tracer
	now     func() time.Time
	intn    func(n int) int
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRandom replaces the source used for the numeric suffix of generated ids.
func WithRandom(intn func(n int) int) Option {
	return func(s *Service) { s.intn = intn }
}

func NewService(log *slog.Logger, gateway PaymentGateway, store TransactionStore, opts ...Option) *Service {
	s := &Service{
		log:     log,
		gateway: gateway,
		store:   store,
		tracer:  otel.Tracer("payment-service"),
		now:     time.Now,
		intn:    rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes a finished submission. Transaction is only set when State is
// StateCompleted.
type Result struct {
	State       domain.State
	Message     string
	Transaction domain.Transaction
}

// Submit validates req, sends it to the gateway and records the transaction.
// It makes one gateway call and at most one store write, and never retries.
func (s *Service) Submit(ctx context.Context, req domain.PaymentRequest) (Result, error) {
	ctx, span := s.tracer.Start(ctx, "SubmitPayment")
	defer span.End()

	res, err := s.submit(ctx, req)
	res.State = domain.StateOf(err)

	span.SetAttributes(attribute.String("payment.state", string(res.State)))
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (s *Service) submit(ctx context.Context, req domain.PaymentRequest) (Result, error) {
	if v := domain.Validate(req); !v.IsValid {
		s.log.Info("payment rejected", "errors", v.Errors)
		return Result{}, &domain.ValidationError{Errors: v.Errors}
	}

	resp, err := s.gateway.SendPayment(ctx, req)
	if err != nil {
		s.log.Error("gateway call failed", "recipient", req.RecipientEmail, "err", err)
		return Result{}, err
	}
	if !resp.Success {
		s.log.Warn("gateway rejected payment", "recipient", req.RecipientEmail, "message", resp.Message)
		return Result{}, &domain.GatewayRejection{Message: resp.Message}
	}

	id := s.generateID()
	if resp.TransactionID != nil {
		id = *resp.TransactionID
	}
	t := domain.NewCompletedTransaction(id, req, s.now())

	if err := s.store.SaveTransaction(ctx, t); err != nil {
		// The gateway already moved the money; there is no compensation here.
		s.log.Error("transaction not recorded after gateway success", "transaction_id", t.ID, "err", err)
		return Result{}, &domain.PersistenceError{Transaction: t, Err: err}
	}

	s.log.Info("payment completed", "transaction_id", t.ID, "amount", t.Amount, "currency", t.Currency)
	return Result{Message: resp.Message, Transaction: t}, nil
}

func (s *Service) generateID() string {
	return fmt.Sprintf("txn_%d_%d", s.now().Unix(), 1000+s.intn(9000))
}

// Validate asks the gateway whether it would accept req.
func (s *Service) Validate(ctx context.Context, req domain.PaymentRequest) (bool, error) {
	return s.gateway.ValidatePayment(ctx, req)
}

func (s *Service) Transaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.store.GetTransactionByID(ctx, id)
}
