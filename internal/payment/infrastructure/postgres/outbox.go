package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Send-Payment-Service/pkg/outbox"
)

// OutboxStore leases TransactionRecorded rows to a relay. Rows whose lease
// expired without being marked are picked up again.
type OutboxStore struct {
	log        *slog.Logger
	pool       *pgxpool.Pool
	maxRetries int
}

func NewOutboxStore(log *slog.Logger, pool *pgxpool.Pool) *OutboxStore {
	return &OutboxStore{log: log, pool: pool, maxRetries: 5}
}

func (s *OutboxStore) LockBatch(ctx context.Context, relayID string, batchSize int, lease time.Duration) ([]outbox.Event, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	rows, err := tx.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, type, payload, headers, traceparent, created_at, retry_count
		FROM outbox
		WHERE status = $2 OR (status = $3 AND lease_until < now())
		ORDER BY id
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`, batchSize, outbox.StatusPending, outbox.StatusInProgress)
	if err != nil {
		return nil, err
	}

	var events []outbox.Event
	for rows.Next() {
		var ev outbox.Event
		if err := rows.Scan(&ev.ID, &ev.AggregateType, &ev.AggregateID, &ev.Type, &ev.Payload, &ev.Headers, &ev.Traceparent, &ev.CreatedAt, &ev.RetryCount); err != nil {
			rows.Close()
			return nil, err
		}
		ev.Status = outbox.StatusInProgress
		ev.RelayID = relayID
		events = append(events, ev)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, tx.Commit(ctx)
	}

	ids := make([]int64, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.ID)
	}

	_, err = tx.Exec(ctx, `UPDATE outbox SET status=$4, relay_id=$1, lease_until=now() + $2::interval WHERE id = ANY($3)`, relayID, lease.String(), ids, outbox.StatusInProgress)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, ids []int64) error {
	ct, err := s.pool.Exec(ctx, `UPDATE outbox SET status=$2, lease_until=NULL WHERE id = ANY($1)`, ids, outbox.StatusSent)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return errors.New("no rows updated")
	}
	return nil
}

// MarkFailed returns the row to pending until it has failed maxRetries times.
func (s *OutboxStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	_, err := s.pool.Exec(ctx, `UPDATE outbox
		SET status = CASE WHEN retry_count + 1 >= $3 THEN $4::text ELSE $5::text END,
			last_error=$2, retry_count=retry_count+1, lease_until=NULL
		WHERE id=$1`, id, errMsg, s.maxRetries, outbox.StatusFailed, outbox.StatusPending)
	return err
}
