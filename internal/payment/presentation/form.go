package presentation

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/application"
	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
)

const (
	MsgFillAllFields     = "Please fill in all fields"
	MsgInvalidAmount     = "Invalid amount format"
	MsgPaymentFailed     = "Payment failed"
	MsgTransactionsError = "Failed to load transactions"
)

type Submitter interface {
	Submit(ctx context.Context, req domain.PaymentRequest) (application.Result, error)
}

type FormState struct {
	RecipientEmail string
	Amount         string
	Currency       string
	IsLoading      bool
	ErrorMessage   string
	SuccessMessage string
}

// PaymentForm holds the send-payment screen state. Every edit clears the
// previous outcome message.
type PaymentForm struct {
	svc      Submitter
	onChange func(FormState)

	mu    sync.Mutex
	state FormState
}

func NewPaymentForm(svc Submitter) *PaymentForm {
	return &PaymentForm{
		svc:   svc,
		state: FormState{Currency: domain.USD.Code},
	}
}

// OnChange registers fn to receive a copy of the state after every change.
func (f *PaymentForm) OnChange(fn func(FormState)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

func (f *PaymentForm) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *PaymentForm) SetRecipientEmail(email string) {
	f.update(func(s *FormState) {
		s.RecipientEmail = email
		s.ErrorMessage, s.SuccessMessage = "", ""
	})
}

func (f *PaymentForm) SetAmount(amount string) {
	f.update(func(s *FormState) {
		s.Amount = amount
		s.ErrorMessage, s.SuccessMessage = "", ""
	})
}

func (f *PaymentForm) SetCurrency(code string) {
	f.update(func(s *FormState) {
		s.Currency = code
		s.ErrorMessage, s.SuccessMessage = "", ""
	})
}

func (f *PaymentForm) ClearMessages() {
	f.update(func(s *FormState) {
		s.ErrorMessage, s.SuccessMessage = "", ""
	})
}

// Send submits the current fields and returns the resulting state. It blocks
// until the submission finishes.
func (f *PaymentForm) Send(ctx context.Context) FormState {
	current := f.State()

	if strings.TrimSpace(current.RecipientEmail) == "" || strings.TrimSpace(current.Amount) == "" {
		return f.update(func(s *FormState) { s.ErrorMessage = MsgFillAllFields })
	}
	amount, err := strconv.ParseFloat(strings.TrimSpace(current.Amount), 64)
	if err != nil {
		return f.update(func(s *FormState) { s.ErrorMessage = MsgInvalidAmount })
	}

	req := domain.PaymentRequest{
		RecipientEmail: current.RecipientEmail,
		Amount:         amount,
		Currency:       current.Currency,
	}
	f.update(func(s *FormState) {
		s.IsLoading = true
		s.ErrorMessage = ""
	})

	res, err := f.svc.Submit(ctx, req)
	if err != nil {
		msg := err.Error()
		if msg == "" {
			msg = MsgPaymentFailed
		}
		return f.update(func(s *FormState) {
			s.IsLoading = false
			s.ErrorMessage = msg
		})
	}
	return f.update(func(s *FormState) {
		s.IsLoading = false
		s.SuccessMessage = res.Message
		s.RecipientEmail = ""
		s.Amount = ""
	})
}

func (f *PaymentForm) update(fn func(*FormState)) FormState {
	f.mu.Lock()
	fn(&f.state)
	s, cb := f.state, f.onChange
	f.mu.Unlock()

	if cb != nil {
		cb(s)
	}
	return s
}
