package presentation

import (
	"context"
	"slices"
	"sync"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/application"
	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
)

type Observer interface {
	Observe(ctx context.Context) <-chan application.HistoryEvent
}

type HistoryState struct {
	Transactions []domain.Transaction
	IsLoading    bool
	ErrorMessage string
}

// History mirrors the live transaction list for a renderer.
type History struct {
	src      Observer
	onChange func(HistoryState)

	mu     sync.Mutex
	state  HistoryState
	cancel context.CancelFunc
	done   chan struct{}
}

func NewHistory(src Observer) *History {
	return &History{src: src}
}

func (h *History) OnChange(fn func(HistoryState)) {
	h.mu.Lock()
	h.onChange = fn
	h.mu.Unlock()
}

func (h *History) State() HistoryState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return copyState(h.state)
}

// Start subscribes to the transaction list. Any previous subscription is
// stopped first. The returned channel closes when this subscription ends.
func (h *History) Start(ctx context.Context) <-chan struct{} {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	h.mu.Lock()
	prevCancel, prevDone := h.cancel, h.done
	h.cancel, h.done = cancel, done
	h.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	h.update(func(s *HistoryState) { s.IsLoading = true })
	events := h.src.Observe(ctx)

	go func() {
		defer close(done)
		for ev := range events {
			if ev.Err != nil {
				msg := ev.Err.Error()
				if msg == "" {
					msg = MsgTransactionsError
				}
				h.update(func(s *HistoryState) {
					s.IsLoading = false
					s.ErrorMessage = msg
				})
				continue
			}
			h.update(func(s *HistoryState) {
				s.Transactions = ev.Transactions
				s.IsLoading = false
				s.ErrorMessage = ""
			})
		}
	}()
	return done
}

// Refresh restarts the subscription.
func (h *History) Refresh(ctx context.Context) <-chan struct{} {
	return h.Start(ctx)
}

// Stop ends the current subscription and waits for it to wind down.
func (h *History) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (h *History) ClearError() {
	h.update(func(s *HistoryState) { s.ErrorMessage = "" })
}

func (h *History) update(fn func(*HistoryState)) {
	h.mu.Lock()
	fn(&h.state)
	s, cb := copyState(h.state), h.onChange
	h.mu.Unlock()

	if cb != nil {
		cb(s)
	}
}

func copyState(s HistoryState) HistoryState {
	s.Transactions = slices.Clone(s.Transactions)
	return s
}
