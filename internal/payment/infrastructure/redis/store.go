package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
)

const (
	docPrefix     = "transactions:doc:"
	timeIndex     = "transactions:by_time"
	ChangeChannel = "transactions:changed"
)

// Store keeps each transaction as a JSON document, indexes ids by timestamp
// in a sorted set and publishes the id on every write.
type Store struct {
	log *slog.Logger
	rdb *redis.Client
}

func NewStore(log *slog.Logger, rdb *redis.Client) *Store {
	return &Store{log: log, rdb: rdb}
}

func docKey(id string) string {
	return docPrefix + id
}

func (s *Store) SaveTransaction(ctx context.Context, t domain.Transaction) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transaction: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, docKey(t.ID), doc, 0)
		p.ZAdd(ctx, timeIndex, redis.Z{Score: float64(t.Timestamp.UnixMilli()), Member: t.ID})
		p.Publish(ctx, ChangeChannel, t.ID)
		return nil
	})
	return err
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	raw, err := s.rdb.Get(ctx, docKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, docKey(id))
		p.ZRem(ctx, timeIndex, id)
		p.Publish(ctx, ChangeChannel, id)
		return nil
	})
	return err
}

func (s *Store) UpdateTransactionStatus(ctx context.Context, id string, status domain.Status) error {
	t, err := s.GetTransactionByID(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return domain.ErrNotFound
	}
	t.Status = status
	return s.SaveTransaction(ctx, *t)
}

// List returns every decodable transaction, newest first. Documents that are
// missing or malformed are logged and skipped.
func (s *Store) List(ctx context.Context) ([]domain.Transaction, error) {
	ids, err := s.rdb.ZRevRange(ctx, timeIndex, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Transaction, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			s.log.Warn("skipping missing transaction document", "id", ids[i])
			continue
		}
		t, err := decode([]byte(raw))
		if err != nil {
			s.log.Warn("skipping malformed transaction", "id", ids[i], "err", err)
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Store) Subscribe(ctx context.Context) (<-chan []domain.Transaction, <-chan error) {
	snaps := make(chan []domain.Transaction)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(snaps)

		ps := s.rdb.Subscribe(ctx, ChangeChannel)
		defer ps.Close()

		// Wait for the subscription to be confirmed so no write between the
		// first read and the first message is lost.
		if _, err := ps.Receive(ctx); err != nil {
			if ctx.Err() == nil {
				errs <- err
			}
			return
		}
		msgs := ps.Channel()

		for {
			list, err := s.List(ctx)
			if err != nil {
				if ctx.Err() == nil {
					errs <- err
				}
				return
			}
			select {
			case snaps <- list:
			case <-ctx.Done():
				return
			}

			select {
			case _, ok := <-msgs:
				if !ok {
					if ctx.Err() == nil {
						errs <- fmt.Errorf("subscription to %s closed", ChangeChannel)
					}
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return snaps, errs
}

type document struct {
	ID             *string  `json:"id"`
	RecipientEmail *string  `json:"recipientEmail"`
	Amount         *float64 `json:"amount"`
	Currency       *string  `json:"currency"`
	Timestamp      *string  `json:"timestamp"`
	Status         string   `json:"status"`
	Description    *string  `json:"description"`
}

func decode(raw []byte) (domain.Transaction, error) {
	var d document
	if err := json.Unmarshal(raw, &d); err != nil {
		return domain.Transaction{}, err
	}
	if d.ID == nil || d.RecipientEmail == nil || d.Amount == nil || d.Currency == nil || d.Timestamp == nil {
		return domain.Transaction{}, errors.New("document has missing fields")
	}
	ts, err := domain.ParseTimestamp(*d.Timestamp)
	if err != nil {
		return domain.Transaction{}, err
	}
	return domain.Transaction{
		ID:             *d.ID,
		RecipientEmail: *d.RecipientEmail,
		Amount:         *d.Amount,
		Currency:       *d.Currency,
		Timestamp:      ts,
		Status:         domain.ParseStatus(d.Status),
		Description:    d.Description,
	}, nil
}
