package store

import "context"

// Applied idempotently at startup; the terminal owns its local schema.
const schema = `
CREATE TABLE IF NOT EXISTS products (
	id           TEXT PRIMARY KEY,
	remote_id    BIGINT UNIQUE,
	name         TEXT NOT NULL,
	price_cents  BIGINT NOT NULL,
	stock        INT NOT NULL CHECK (stock >= 0),
	description  TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	sync_status  TEXT NOT NULL,
	last_sync_at TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id             TEXT PRIMARY KEY,
	order_number   TEXT NOT NULL UNIQUE,
	total_cents    BIGINT NOT NULL,
	customer_name  TEXT NOT NULL DEFAULT '',
	customer_email TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	remote_id      BIGINT UNIQUE,
	sync_status    TEXT NOT NULL,
	last_sync_at   TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
	id          TEXT PRIMARY KEY,
	order_id    TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id  TEXT NOT NULL REFERENCES products(id),
	quantity    INT NOT NULL CHECK (quantity > 0),
	price_cents BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_products_sync_status ON products(sync_status);
CREATE INDEX IF NOT EXISTS idx_orders_sync_status ON orders(sync_status);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);
`

func (s *Postgres) Migrate(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, schema)
	return err
}
