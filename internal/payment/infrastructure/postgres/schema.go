package postgres

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id              TEXT PRIMARY KEY,
	recipient_email TEXT,
	amount          DOUBLE PRECISION,
	currency        TEXT,
	occurred_at     TIMESTAMPTZ,
	status          TEXT,
	description     TEXT,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS transactions_occurred_at_idx ON transactions (occurred_at DESC);

CREATE TABLE IF NOT EXISTS outbox (
	id             BIGSERIAL PRIMARY KEY,
	aggregate_type TEXT NOT NULL,
	aggregate_id   TEXT NOT NULL,
	type           TEXT NOT NULL,
	payload        JSONB NOT NULL,
	headers        JSONB NOT NULL DEFAULT '{}',
	traceparent    TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL DEFAULT 'pending',
	relay_id       TEXT,
	lease_until    TIMESTAMPTZ,
	retry_count    INT NOT NULL DEFAULT 0,
	last_error     TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the tables used by the store and the outbox relay.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}
