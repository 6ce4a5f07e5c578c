package store

import (
	"context"
	"time"

	"github.com/carsonvertex/tauri-pos-app/internal/pos"
)

// StockDecrement is one product-level stock change committed together with an
// order. Negative Delta removes stock, positive restores it.
type StockDecrement struct {
	ProductID string
	Delta     int
}

type ProductStore interface {
	GetProduct(ctx context.Context, id string) (*pos.Product, error)
	SaveProduct(ctx context.Context, p *pos.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context) ([]pos.Product, error)
	SearchProductsByName(ctx context.Context, q string) ([]pos.Product, error)
	LowStockProducts(ctx context.Context, threshold int) ([]pos.Product, error)
	FindProductByRemoteID(ctx context.Context, remoteID int64) (*pos.Product, error)
	ProductsBySyncStatusIn(ctx context.Context, statuses []pos.SyncStatus) ([]pos.Product, error)
	CountProductsBySyncStatus(ctx context.Context, status pos.SyncStatus) (int64, error)

	// UpdateProductSyncState moves the record's sync status from exactly
	// `from` to `to`, optionally adopting a remote id and sync time. Returns
	// false when the record's status no longer equals `from` (a concurrent
	// local edit won the race); that is not an error. A provided remote id
	// and sync time are persisted even on a lost race: once the remote has
	// assigned an identity it must never be dropped, or the next push would
	// create a duplicate remote record.
	UpdateProductSyncState(ctx context.Context, id string, from, to pos.SyncStatus, remoteID *int64, lastSyncAt *time.Time) (bool, error)
}

type OrderStore interface {
	GetOrder(ctx context.Context, id string) (*pos.Order, error)
	GetOrderWithItems(ctx context.Context, id string) (*pos.Order, []pos.OrderItem, error)
	SaveOrder(ctx context.Context, o *pos.Order) error
	DeleteOrder(ctx context.Context, id string) error
	ListOrders(ctx context.Context) ([]pos.Order, error)
	OrdersByStatus(ctx context.Context, status pos.OrderStatus) ([]pos.Order, error)
	FindOrderByRemoteID(ctx context.Context, remoteID int64) (*pos.Order, error)
	OrdersBySyncStatusIn(ctx context.Context, statuses []pos.SyncStatus) ([]pos.Order, error)
	CountOrdersBySyncStatus(ctx context.Context, status pos.SyncStatus) (int64, error)
	UpdateOrderSyncState(ctx context.Context, id string, from, to pos.SyncStatus, remoteID *int64, lastSyncAt *time.Time) (bool, error)

	// CreateOrder commits the order, its items and the stock decrements as one
	// atomic unit. Stock is re-validated under row locks inside the same
	// transaction; on any shortfall nothing persists and the error is a
	// *pos.InsufficientStockError. Touched products are forced to PENDING.
	CreateOrder(ctx context.Context, o *pos.Order, items []pos.OrderItem, decrements []StockDecrement) error

	// ApplyStockDeltas adjusts product stock and order state in one
	// transaction. Used by cancellation to restore reserved quantities.
	ApplyStockDeltas(ctx context.Context, o *pos.Order, deltas []StockDecrement) error
}

type Store interface {
	ProductStore
	OrderStore
	Migrate(ctx context.Context) error
}
