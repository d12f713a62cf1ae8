package application

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmehra2102/Send-Payment-Service/internal/gateway/domain"
)

// ErrSimulatedFailure is returned after a payment was recorded but the
// configured fault rate chose to fail the reply.
var ErrSimulatedFailure = errors.New("simulated network failure")

type Service struct {
	log       *slog.Logger
	repo      Repository
	tracer    trace.Tracer
	faultRate float64
	roll      func() float64
	now       func() time.Time
	newID     func() string
	started   time.Time
}

type Option func(*Service)

// WithFaultRate makes Process fail with probability rate in [0,1].
func WithFaultRate(rate float64) Option {
	return func(s *Service) { s.faultRate = rate }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDs(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithRoll(roll func() float64) Option {
	return func(s *Service) { s.roll = roll }
}

func NewService(log *slog.Logger, repo Repository, opts ...Option) *Service {
	s := &Service{
		log:    log,
		repo:   repo,
		tracer: otel.Tracer("gateway-service"),
		roll:   rand.Float64,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	s.started = s.now()
	return s
}

// Process checks in, records the payment and its transaction and returns the
// payment.
func (s *Service) Process(ctx context.Context, in domain.Input) (domain.Payment, error) {
	ctx, span := s.tracer.Start(ctx, "ProcessPayment")
	defer span.End()

	c, err := domain.Check(in)
	if err != nil {
		return domain.Payment{}, err
	}

	p := domain.Payment{
		ID:             s.newID(),
		RecipientEmail: c.RecipientEmail,
		Amount:         c.Amount,
		Currency:       c.Currency,
		Timestamp:      s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Status:         domain.StatusCompleted,
	}
	span.SetAttributes(attribute.String("payment.id", p.ID), attribute.String("payment.currency", p.Currency))

	if err := s.repo.Record(ctx, p, p.Transaction()); err != nil {
		return domain.Payment{}, err
	}

	if s.faultRate > 0 && s.roll() < s.faultRate {
		s.log.Warn("simulated payment failure", "payment_id", p.ID)
		return p, ErrSimulatedFailure
	}
	s.log.Info("payment processed", "payment_id", p.ID, "currency", p.Currency)
	return p, nil
}

func (s *Service) Validate(in domain.Input) bool {
	_, err := domain.Check(in)
	return err == nil
}

func (s *Service) Payments(ctx context.Context) ([]domain.Payment, error) {
	return s.repo.Payments(ctx)
}

func (s *Service) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.Transactions(ctx)
}

// Uptime is the time since the service was built.
func (s *Service) Uptime() time.Duration {
	return s.now().Sub(s.started)
}

func (s *Service) Now() time.Time {
	return s.now()
}
