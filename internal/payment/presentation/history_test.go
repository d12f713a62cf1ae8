package presentation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/application"
	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
)

// chanObserver hands out a fresh channel per Observe call so tests can drive
// each subscription.
type chanObserver struct {
	subs chan chan application.HistoryEvent
}

func newChanObserver() *chanObserver {
	return &chanObserver{subs: make(chan chan application.HistoryEvent, 16)}
}

func (o *chanObserver) Observe(ctx context.Context) <-chan application.HistoryEvent {
	in := make(chan application.HistoryEvent)
	out := make(chan application.HistoryEvent)
	o.subs <- in
	go func() {
		defer close(out)
		for {
			select {
			case ev, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func waitFor(t *testing.T, h *History, cond func(HistoryState) bool) HistoryState {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s := h.State(); cond(s) {
			return s
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met; state = %+v", h.State())
	return HistoryState{}
}

func TestHistory_TracksSnapshotsAndErrors(t *testing.T) {
	obs := newChanObserver()
	h := NewHistory(obs)

	done := h.Start(context.Background())
	if !h.State().IsLoading {
		t.Error("expected loading after Start")
	}
	sub := <-obs.subs

	t1 := domain.Transaction{ID: "t1"}
	sub <- application.HistoryEvent{Transactions: []domain.Transaction{t1}}
	s := waitFor(t, h, func(s HistoryState) bool { return len(s.Transactions) == 1 })
	if s.IsLoading || s.ErrorMessage != "" {
		t.Errorf("state = %+v", s)
	}

	sub <- application.HistoryEvent{Err: errors.New("permission denied")}
	s = waitFor(t, h, func(s HistoryState) bool { return s.ErrorMessage != "" })
	if s.ErrorMessage != "permission denied" {
		t.Errorf("ErrorMessage = %q", s.ErrorMessage)
	}
	if len(s.Transactions) != 1 {
		t.Error("error should keep the last snapshot")
	}

	h.ClearError()
	if h.State().ErrorMessage != "" {
		t.Error("ClearError did not clear")
	}

	close(sub)
	<-done
}

func TestHistory_EmptyErrorFallsBack(t *testing.T) {
	obs := newChanObserver()
	h := NewHistory(obs)
	h.Start(context.Background())
	sub := <-obs.subs

	sub <- application.HistoryEvent{Err: errors.New("")}
	s := waitFor(t, h, func(s HistoryState) bool { return s.ErrorMessage != "" })
	if s.ErrorMessage != MsgTransactionsError {
		t.Errorf("ErrorMessage = %q", s.ErrorMessage)
	}
	h.Stop()
}

func TestHistory_RefreshReplacesSubscription(t *testing.T) {
	obs := newChanObserver()
	h := NewHistory(obs)

	first := h.Start(context.Background())
	<-obs.subs

	h.Refresh(context.Background())
	select {
	case <-first:
	default:
		t.Fatal("first subscription still running after Refresh")
	}
	second := <-obs.subs

	second <- application.HistoryEvent{Transactions: []domain.Transaction{{ID: "a"}, {ID: "b"}}}
	waitFor(t, h, func(s HistoryState) bool { return len(s.Transactions) == 2 })
	h.Stop()
}

func TestHistory_StateIsACopy(t *testing.T) {
	obs := newChanObserver()
	h := NewHistory(obs)
	h.Start(context.Background())
	sub := <-obs.subs
	sub <- application.HistoryEvent{Transactions: []domain.Transaction{{ID: "a"}}}
	s := waitFor(t, h, func(s HistoryState) bool { return len(s.Transactions) == 1 })

	s.Transactions[0].ID = "mutated"
	if h.State().Transactions[0].ID != "a" {
		t.Error("State shares backing array")
	}
	h.Stop()
}

func TestHistory_ConcurrentStartsLeaveOneSubscription(t *testing.T) {
	obs := newChanObserver()
	h := NewHistory(obs)

	const n = 8
	dones := make([]<-chan struct{}, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dones[i] = h.Start(context.Background())
		}()
	}
	wg.Wait()
	h.Stop()

	for i, done := range dones {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("subscription %d still running after Stop", i)
		}
	}
}
