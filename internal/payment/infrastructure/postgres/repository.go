package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmehra2102/Send-Payment-Service/internal/payment/domain"
	"github.com/dmehra2102/Send-Payment-Service/pkg/outbox"
	"github.com/dmehra2102/Send-Payment-Service/pkg/tracing"
)

// NotifyChannel is the LISTEN/NOTIFY channel raised on every transaction change.
const NotifyChannel = "transactions_changed"

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

// SaveTransaction upserts t and queues a TransactionRecorded outbox event in the
// same database transaction.
func (r *Repository) SaveTransaction(ctx context.Context, t domain.Transaction) error {
	payload, err := json.Marshal(domain.NewTransactionRecorded(t))
	if err != nil {
		return fmt.Errorf("encode outbox payload: %w", err)
	}
	headers := map[string]string{"source": "sendpay"}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	_, err = tx.Exec(ctx, `INSERT INTO transactions (id, recipient_email, amount, currency, occurred_at, status, description, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO UPDATE SET recipient_email=$2, amount=$3, currency=$4, occurred_at=$5, status=$6, description=$7, updated_at=$8`,
		t.ID, t.RecipientEmail, t.Amount, t.Currency, t.Timestamp, string(t.Status), t.Description, time.Now().UTC())
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, headers, traceparent, status) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		"transaction", t.ID, domain.EventTransactionRecorded, payload, headers, tracing.Traceparent(ctx), outbox.StatusPending)
	if err != nil {
		return err
	}

	if _, err = tx.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, t.ID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *Repository) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, recipient_email, amount, currency, occurred_at, status, description FROM transactions WHERE id=$1`, id)

	var rec record
	err := row.Scan(&rec.id, &rec.email, &rec.amount, &rec.currency, &rec.occurredAt, &rec.status, &rec.description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := rec.transaction()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `DELETE FROM transactions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() > 0 {
		if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, id); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repository) UpdateTransactionStatus(ctx context.Context, id string, status domain.Status) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ct, err := tx.Exec(ctx, `UPDATE transactions SET status=$2, updated_at=$3 WHERE id=$1`, id, string(status), time.Now().UTC())
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// List returns every well formed transaction, newest first. Rows missing
// required columns are logged and skipped.
func (r *Repository) List(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, recipient_email, amount, currency, occurred_at, status, description
		FROM transactions ORDER BY occurred_at DESC NULLS LAST, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Transaction, 0)
	for rows.Next() {
		var rec record
		if err := rows.Scan(&rec.id, &rec.email, &rec.amount, &rec.currency, &rec.occurredAt, &rec.status, &rec.description); err != nil {
			return nil, err
		}
		t, err := rec.transaction()
		if err != nil {
			r.log.Warn("skipping malformed transaction", "id", rec.id, "err", err)
			continue
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Subscribe holds one pooled connection in LISTEN mode for the lifetime of ctx
// and re-reads the full list after every notification.
func (r *Repository) Subscribe(ctx context.Context) (<-chan []domain.Transaction, <-chan error) {
	snaps := make(chan []domain.Transaction)
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(snaps)

		conn, err := r.pool.Acquire(ctx)
		if err != nil {
			if ctx.Err() == nil {
				errs <- err
			}
			return
		}
		defer r.release(conn)

		if _, err := conn.Exec(ctx, "LISTEN "+NotifyChannel); err != nil {
			if ctx.Err() == nil {
				errs <- err
			}
			return
		}

		for {
			list, err := r.List(ctx)
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

			if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
				if ctx.Err() == nil {
					r.log.Error("transaction listener failed", "err", err)
					errs <- err
				}
				return
			}
		}
	}()

	return snaps, errs
}

func (r *Repository) release(conn *pgxpool.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := conn.Exec(ctx, "UNLISTEN "+NotifyChannel); err != nil {
		// A connection interrupted mid-wait cannot be reused.
		_ = conn.Conn().Close(ctx)
	}
	conn.Release()
}

type record struct {
	id          string
	email       *string
	amount      *float64
	currency    *string
	occurredAt  *time.Time
	status      *string
	description *string
}

func (rec record) transaction() (domain.Transaction, error) {
	if rec.email == nil || rec.amount == nil || rec.currency == nil || rec.occurredAt == nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s has missing fields", rec.id)
	}
	status := ""
	if rec.status != nil {
		status = *rec.status
	}
	return domain.Transaction{
		ID:             rec.id,
		RecipientEmail: *rec.email,
		Amount:         *rec.amount,
		Currency:       *rec.currency,
		Timestamp:      rec.occurredAt.UTC(),
		Status:         domain.ParseStatus(status),
		Description:    rec.description,
	}, nil
}
