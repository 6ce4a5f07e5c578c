package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carsonvertex/tauri-pos-app/internal/pos"
)

// Postgres is the LocalStore backed by the terminal's local database.
type Postgres struct {
	DB *pgxpool.Pool
}

func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func NewPostgres(db *pgxpool.Pool) *Postgres { return &Postgres{DB: db} }

const productCols = `id, remote_id, name, price_cents, stock, description, category, sync_status, last_sync_at, created_at, updated_at`

func scanProduct(row pgx.Row) (*pos.Product, error) {
	var p pos.Product
	var status string
	err := row.Scan(&p.ID, &p.RemoteID, &p.Name, &p.PriceCents, &p.Stock,
		&p.Description, &p.Category, &status, &p.LastSyncAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pos.ErrNotFound
		}
		return nil, err
	}
	p.SyncStatus = pos.SyncStatus(status)
	return &p, nil
}

func (s *Postgres) GetProduct(ctx context.Context, id string) (*pos.Product, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE id=$1`, id)
	return scanProduct(row)
}

func (s *Postgres) FindProductByRemoteID(ctx context.Context, remoteID int64) (*pos.Product, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+productCols+` FROM products WHERE remote_id=$1`, remoteID)
	return scanProduct(row)
}

func (s *Postgres) SaveProduct(ctx context.Context, p *pos.Product) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO products (`+productCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			remote_id=$2, name=$3, price_cents=$4, stock=$5, description=$6,
			category=$7, sync_status=$8, last_sync_at=$9, updated_at=$11`,
		p.ID, p.RemoteID, p.Name, p.PriceCents, p.Stock, p.Description,
		p.Category, string(p.SyncStatus), p.LastSyncAt, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *Postgres) DeleteProduct(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pos.ErrNotFound
	}
	return nil
}

func (s *Postgres) queryProducts(ctx context.Context, q string, args ...any) ([]pos.Product, error) {
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pos.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *Postgres) ListProducts(ctx context.Context) ([]pos.Product, error) {
	return s.queryProducts(ctx, `SELECT `+productCols+` FROM products ORDER BY name`)
}

func (s *Postgres) SearchProductsByName(ctx context.Context, q string) ([]pos.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productCols+` FROM products WHERE name ILIKE $1 ORDER BY name`,
		"%"+q+"%")
}

func (s *Postgres) LowStockProducts(ctx context.Context, threshold int) ([]pos.Product, error) {
	return s.queryProducts(ctx,
		`SELECT `+productCols+` FROM products WHERE stock <= $1 ORDER BY stock`, threshold)
}

func (s *Postgres) ProductsBySyncStatusIn(ctx context.Context, statuses []pos.SyncStatus) ([]pos.Product, error) {
	params, args := statusParams(statuses)
	return s.queryProducts(ctx,
		`SELECT `+productCols+` FROM products WHERE sync_status IN (`+params+`) ORDER BY updated_at`, args...)
}

func (s *Postgres) CountProductsBySyncStatus(ctx context.Context, status pos.SyncStatus) (int64, error) {
	var n int64
	err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE sync_status=$1`, string(status)).Scan(&n)
	return n, err
}

func (s *Postgres) UpdateProductSyncState(ctx context.Context, id string, from, to pos.SyncStatus, remoteID *int64, lastSyncAt *time.Time) (bool, error) {
	if _, err := pos.TransitionSync(from, to); err != nil {
		return false, err
	}
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE products SET
			sync_status=$3,
			remote_id=COALESCE($4, remote_id),
			last_sync_at=COALESCE($5, last_sync_at),
			updated_at=NOW()
		WHERE id=$1 AND sync_status=$2`,
		id, string(from), string(to), remoteID, lastSyncAt)
	if err != nil {
		return false, err
	}
	ok := ct.RowsAffected() == 1

	// a concurrent local edit moved the status, but an identity assigned by
	// the remote mid-push must still land, or the next cycle creates a
	// duplicate remote record
	if !ok && (remoteID != nil || lastSyncAt != nil) {
		if _, err := tx.Exec(ctx, `
			UPDATE products SET
				remote_id=COALESCE($2, remote_id),
				last_sync_at=COALESCE($3, last_sync_at)
			WHERE id=$1`,
			id, remoteID, lastSyncAt); err != nil {
			return false, err
		}
	}
	return ok, tx.Commit(ctx)
}

const orderCols = `id, order_number, total_cents, customer_name, customer_email, status, remote_id, sync_status, last_sync_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*pos.Order, error) {
	var o pos.Order
	var status, syncStatus string
	err := row.Scan(&o.ID, &o.OrderNumber, &o.TotalCents, &o.CustomerName,
		&o.CustomerEmail, &status, &o.RemoteID, &syncStatus, &o.LastSyncAt,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pos.ErrNotFound
		}
		return nil, err
	}
	o.Status = pos.OrderStatus(status)
	o.SyncStatus = pos.SyncStatus(syncStatus)
	return &o, nil
}

func (s *Postgres) GetOrder(ctx context.Context, id string) (*pos.Order, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE id=$1`, id)
	return scanOrder(row)
}

func (s *Postgres) GetOrderWithItems(ctx context.Context, id string) (*pos.Order, []pos.OrderItem, error) {
	o, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rows, err := s.DB.Query(ctx,
		`SELECT id, order_id, product_id, quantity, price_cents FROM order_items WHERE order_id=$1`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var items []pos.OrderItem
	for rows.Next() {
		var it pos.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PriceCents); err != nil {
			return nil, nil, err
		}
		items = append(items, it)
	}
	return o, items, rows.Err()
}

func (s *Postgres) FindOrderByRemoteID(ctx context.Context, remoteID int64) (*pos.Order, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+orderCols+` FROM orders WHERE remote_id=$1`, remoteID)
	return scanOrder(row)
}

func (s *Postgres) SaveOrder(ctx context.Context, o *pos.Order) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO orders (`+orderCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			order_number=$2, total_cents=$3, customer_name=$4, customer_email=$5,
			status=$6, remote_id=$7, sync_status=$8, last_sync_at=$9, updated_at=$11`,
		o.ID, o.OrderNumber, o.TotalCents, o.CustomerName, o.CustomerEmail,
		string(o.Status), o.RemoteID, string(o.SyncStatus), o.LastSyncAt,
		o.CreatedAt, o.UpdatedAt)
	return err
}

func (s *Postgres) DeleteOrder(ctx context.Context, id string) error {
	ct, err := s.DB.Exec(ctx, `DELETE FROM orders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pos.ErrNotFound
	}
	return nil
}

func (s *Postgres) queryOrders(ctx context.Context, q string, args ...any) ([]pos.Order, error) {
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pos.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (s *Postgres) ListOrders(ctx context.Context) ([]pos.Order, error) {
	return s.queryOrders(ctx, `SELECT `+orderCols+` FROM orders ORDER BY created_at DESC`)
}

func (s *Postgres) OrdersByStatus(ctx context.Context, status pos.OrderStatus) ([]pos.Order, error) {
	return s.queryOrders(ctx,
		`SELECT `+orderCols+` FROM orders WHERE status=$1 ORDER BY created_at DESC`, string(status))
}

func (s *Postgres) OrdersBySyncStatusIn(ctx context.Context, statuses []pos.SyncStatus) ([]pos.Order, error) {
	params, args := statusParams(statuses)
	return s.queryOrders(ctx,
		`SELECT `+orderCols+` FROM orders WHERE sync_status IN (`+params+`) ORDER BY updated_at`, args...)
}

func (s *Postgres) CountOrdersBySyncStatus(ctx context.Context, status pos.SyncStatus) (int64, error) {
	var n int64
	err := s.DB.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE sync_status=$1`, string(status)).Scan(&n)
	return n, err
}

func (s *Postgres) UpdateOrderSyncState(ctx context.Context, id string, from, to pos.SyncStatus, remoteID *int64, lastSyncAt *time.Time) (bool, error) {
	if _, err := pos.TransitionSync(from, to); err != nil {
		return false, err
	}
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET
			sync_status=$3,
			remote_id=COALESCE($4, remote_id),
			last_sync_at=COALESCE($5, last_sync_at),
			updated_at=NOW()
		WHERE id=$1 AND sync_status=$2`,
		id, string(from), string(to), remoteID, lastSyncAt)
	if err != nil {
		return false, err
	}
	ok := ct.RowsAffected() == 1

	if !ok && (remoteID != nil || lastSyncAt != nil) {
		if _, err := tx.Exec(ctx, `
			UPDATE orders SET
				remote_id=COALESCE($2, remote_id),
				last_sync_at=COALESCE($3, last_sync_at)
			WHERE id=$1`,
			id, remoteID, lastSyncAt); err != nil {
			return false, err
		}
	}
	return ok, tx.Commit(ctx)
}

// CreateOrder commits order + items + stock decrements as one unit. Stock is
// locked per product (FOR UPDATE), re-validated, then decremented; any
// shortfall rolls the whole transaction back.
func (s *Postgres) CreateOrder(ctx context.Context, o *pos.Order, items []pos.OrderItem, decrements []StockDecrement) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, d := range decrements {
		var name string
		var stock int
		err := tx.QueryRow(ctx, `SELECT name, stock FROM products WHERE id=$1 FOR UPDATE`, d.ProductID).Scan(&name, &stock)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("product %s: %w", d.ProductID, pos.ErrNotFound)
			}
			return err
		}
		if stock < -d.Delta {
			return &pos.InsufficientStockError{
				ProductID: d.ProductID, Name: name,
				Requested: -d.Delta, Available: stock,
			}
		}
		ct, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock + $2, sync_status=$3, updated_at=NOW()
			WHERE id=$1 AND stock + $2 >= 0`,
			d.ProductID, d.Delta, string(pos.SyncPending))
		if err != nil {
			return err
		}
		if ct.RowsAffected() != 1 {
			return &pos.InsufficientStockError{
				ProductID: d.ProductID, Name: name,
				Requested: -d.Delta, Available: stock,
			}
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (`+orderCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		o.ID, o.OrderNumber, o.TotalCents, o.CustomerName, o.CustomerEmail,
		string(o.Status), o.RemoteID, string(o.SyncStatus), o.LastSyncAt,
		o.CreatedAt, o.UpdatedAt); err != nil {
		return err
	}

	for _, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (id, order_id, product_id, quantity, price_cents)
			VALUES ($1,$2,$3,$4,$5)`,
			it.ID, it.OrderID, it.ProductID, it.Quantity, it.PriceCents); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// ApplyStockDeltas restores (or removes) stock and saves the order state in
// one transaction. Touched products are forced to PENDING.
func (s *Postgres) ApplyStockDeltas(ctx context.Context, o *pos.Order, deltas []StockDecrement) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, d := range deltas {
		ct, err := tx.Exec(ctx, `
			UPDATE products SET stock = stock + $2, sync_status=$3, updated_at=NOW()
			WHERE id=$1 AND stock + $2 >= 0`,
			d.ProductID, d.Delta, string(pos.SyncPending))
		if err != nil {
			return err
		}
		if ct.RowsAffected() != 1 {
			return fmt.Errorf("stock adjustment rejected for product %s", d.ProductID)
		}
	}

	ct, err := tx.Exec(ctx, `
		UPDATE orders SET status=$2, sync_status=$3, updated_at=$4 WHERE id=$1`,
		o.ID, string(o.Status), string(o.SyncStatus), o.UpdatedAt)
	if err != nil {
		return err
	}
	if ct.RowsAffected() != 1 {
		return pos.ErrNotFound
	}

	return tx.Commit(ctx)
}

func statusParams(statuses []pos.SyncStatus) (string, []any) {
	parts := make([]string, 0, len(statuses))
	args := make([]any, 0, len(statuses))
	for i, st := range statuses {
		parts = append(parts, fmt.Sprintf("$%d", i+1))
		args = append(args, string(st))
	}
	return strings.Join(parts, ","), args
}
