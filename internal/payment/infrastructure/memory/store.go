package memory

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
)

// Store keeps transactions in process memory and pushes snapshots to subscribers.
type Store struct {
	log       *slog.Logger
	mu        sync.Mutex
	docs      map[string]domain.Transaction
	listeners map[int]chan struct{}
	nextID    int
}

func NewStore(log *slog.Logger) *Store {
	return &Store{
		log:       log,
		docs:      make(map[string]domain.Transaction),
		listeners: make(map[int]chan struct{}),
	}
}

func (s *Store) SaveTransaction(ctx context.Context, t domain.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[t.ID] = t
	s.notifyLocked()
	s.mu.Unlock()
	return nil
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; ok {
		delete(s.docs, id)
		s.notifyLocked()
	}
	return nil
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, id string, status domain.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.Status = status
	s.docs[id] = t
	s.notifyLocked()
	return nil
}

func (s *Store) Subscribe(ctx context.Context) (<-chan []domain.Transaction, <-chan error) {
	snaps := make(chan []domain.Transaction)
	errs := make(chan error, 1)

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	changed := make(chan struct{}, 1)
	changed <- struct{}{}
	s.listeners[id] = changed
	s.mu.Unlock()

	go func() {
		defer close(errs)
		defer close(snaps)
		defer s.unregister(id)

		for {
			select {
			case <-ctx.Done():
				return
			case <-changed:
			}
			select {
			case snaps <- s.snapshot():
			case <-ctx.Done():
				return
			}
		}
	}()

	return snaps, errs
}

// Listeners reports how many subscriptions are currently registered.
func (s *Store) Listeners() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

func (s *Store) unregister(id int) {
	s.mu.Lock()
	delete(s.listeners, id)
	s.mu.Unlock()
	s.log.Debug("transaction listener removed", "listener_id", id)
}

func (s *Store) notifyLocked() {
	for _, ch := range s.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *Store) snapshot() []domain.Transaction {
	s.mu.Lock()
	out := make([]domain.Transaction, 0, len(s.docs))
	for _, t := range s.docs {
		out = append(out, t)
	}
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b domain.Transaction) int {
		if c := b.Timestamp.Compare(a.Timestamp); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}
