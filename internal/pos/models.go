package pos

import "time"

// Product is the local (terminal-side) product record. RemoteID is nil until
// the record has been pushed successfully at least once.
type Product struct {
	ID          string
	RemoteID    *int64
	Name        string
	PriceCents  int64
	Stock       int
	Description string
	Category    string
	SyncStatus  SyncStatus
	LastSyncAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Order struct {
	ID            string
	OrderNumber   string
	TotalCents    int64
	CustomerName  string
	CustomerEmail string
	Status        OrderStatus
	RemoteID      *int64
	SyncStatus    SyncStatus
	LastSyncAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem snapshots the unit price at order creation; the order total is
// never recomputed from live product prices.
type OrderItem struct {
	ID         string
	OrderID    string
	ProductID  string
	Quantity   int
	PriceCents int64
}

// ItemRequest is a line in an incoming order.
type ItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// SyncSummary is the per-status record count exposed on the sync status
// endpoint and cached in redis.
type SyncSummary struct {
	PendingProducts int64 `json:"pending_products"`
	PendingOrders   int64 `json:"pending_orders"`
	FailedProducts  int64 `json:"failed_products"`
	FailedOrders    int64 `json:"failed_orders"`
	SyncedProducts  int64 `json:"synced_products"`
	SyncedOrders    int64 `json:"synced_orders"`
}

func (s SyncSummary) PendingTotal() int64 {
	return s.PendingProducts + s.PendingOrders
}
