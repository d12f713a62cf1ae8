package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
)

func at(min int) time.Time {
	return time.Date(2024, 1, 1, 10, min, 0, 0, time.UTC)
}

func scriptedStore(snapshots [][]domain.Transaction, finalErr error) *MockStore {
	return &MockStore{
		SubscribeFunc: func(ctx context.Context) (<-chan []domain.Transaction, <-chan error) {
			snaps := make(chan []domain.Transaction)
			errs := make(chan error, 1)
			go func() {
				defer close(errs)
				defer close(snaps)
				for _, s := range snapshots {
					select {
					case snaps <- s:
					case <-ctx.Done():
						return
					}
				}
				if finalErr != nil {
					errs <- finalErr
					return
				}
				<-ctx.Done()
			}()
			return snaps, errs
		},
	}
}

func TestObserve_ForwardsSnapshotsInOrder(t *testing.T) {
	t1 := domain.Transaction{ID: "t1", Timestamp: at(1)}
	t2 := domain.Transaction{ID: "t2", Timestamp: at(2)}
	store := scriptedStore([][]domain.Transaction{{}, {t1}, {t2, t1}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := NewHistoryService(store).Observe(ctx)

	wantLens := []int{0, 1, 2}
	for i, want := range wantLens {
		select {
		case ev := <-events:
			if ev.Err != nil {
				t.Fatalf("event %d: unexpected error %v", i, ev.Err)
			}
			if len(ev.Transactions) != want {
				t.Fatalf("event %d: len = %d, want %d", i, len(ev.Transactions), want)
			}
			for j := 1; j < len(ev.Transactions); j++ {
				if ev.Transactions[j-1].Timestamp.Before(ev.Transactions[j].Timestamp) {
					t.Errorf("event %d not in descending order: %v", i, ev.Transactions)
				}
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected channel to close after cancel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestObserve_StoreErrorIsTerminal(t *testing.T) {
	boom := errors.New("listener failed")
	store := scriptedStore([][]domain.Transaction{{{ID: "t1"}}}, boom)

	events := NewHistoryService(store).Observe(context.Background())

	var got []HistoryEvent
	for ev := range events {
		got = append(got, ev)
	}
	if len(got) != 2 {
		t.Fatalf("events = %d, want 2", len(got))
	}
	if !errors.Is(got[1].Err, boom) {
		t.Errorf("last event err = %v, want %v", got[1].Err, boom)
	}
}
