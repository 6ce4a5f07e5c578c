// Package offline implements the mutation service: the only business writer
// of local product/order state. Every touched record becomes PENDING so the
// next sync cycle picks it up.
package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/carsonvertex/tauri-pos-app/internal/kafka"
	"github.com/carsonvertex/tauri-pos-app/internal/pos"
	"github.com/carsonvertex/tauri-pos-app/internal/redisx"
	"github.com/carsonvertex/tauri-pos-app/internal/store"
)

type ProductInput struct {
	Name        string `json:"name" validate:"required"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0"`
	Stock       int    `json:"stock" validate:"gte=0"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type Service struct {
	Store   store.Store
	Numbers pos.OrderNumberGenerator
	Events  *kafkax.Producer // optional; nil disables publishing
	Redis   *redis.Client    // optional; nil disables summary caching
	Name    string           // producer name stamped on events
	Now     func() time.Time
}

func NewService(st store.Store, gen pos.OrderNumberGenerator, name string) *Service {
	return &Service{Store: st, Numbers: gen, Name: name, Now: time.Now}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateProduct persists a new product as PENDING with no remote identity.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*pos.Product, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: product name required", pos.ErrInvalidInput)
	}
	if in.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", pos.ErrInvalidInput)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", pos.ErrInvalidInput)
	}

	now := s.now()
	p := &pos.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		PriceCents:  in.PriceCents,
		Stock:       in.Stock,
		Description: in.Description,
		Category:    in.Category,
		SyncStatus:  pos.SyncPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Store.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateProduct overwrites the mutable fields and forces PENDING, even when
// the record was previously SYNCED.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*pos.Product, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: product name required", pos.ErrInvalidInput)
	}
	if in.PriceCents < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", pos.ErrInvalidInput)
	}
	if in.Stock < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", pos.ErrInvalidInput)
	}
	p, err := s.Store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name = in.Name
	p.PriceCents = in.PriceCents
	p.Stock = in.Stock
	p.Description = in.Description
	p.Category = in.Category
	p.SyncStatus = pos.SyncPending // local mutation outranks any prior state
	p.UpdatedAt = s.now()
	if err := s.Store.SaveProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateOrder snapshots unit prices, computes the total, and commits order +
// items + stock decrements as one unit. Insufficient stock on any line leaves
// no trace.
func (s *Service) CreateOrder(ctx context.Context, customerName, customerEmail string, reqs []pos.ItemRequest) (*pos.Order, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: order needs at least one item", pos.ErrInvalidInput)
	}

	now := s.now()
	order := &pos.Order{
		ID:            uuid.NewString(),
		OrderNumber:   s.Numbers.Next(),
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		Status:        pos.OrderPending,
		SyncStatus:    pos.SyncPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	items := make([]pos.OrderItem, 0, len(reqs))
	decrements := make([]store.StockDecrement, 0, len(reqs))
	for _, r := range reqs {
		if r.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive for product %s", pos.ErrInvalidInput, r.ProductID)
		}
		p, err := s.Store.GetProduct(ctx, r.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", r.ProductID, err)
		}
		items = append(items, pos.OrderItem{
			ID:         uuid.NewString(),
			OrderID:    order.ID,
			ProductID:  p.ID,
			Quantity:   r.Quantity,
			PriceCents: p.PriceCents,
		})
		decrements = append(decrements, store.StockDecrement{ProductID: p.ID, Delta: -r.Quantity})
		order.TotalCents += p.PriceCents * int64(r.Quantity)
	}

	// stock is re-validated under row locks inside the store transaction
	if err := s.Store.CreateOrder(ctx, order, items, decrements); err != nil {
		return nil, err
	}

	s.publish(pos.EventOrderCreated, order.ID, pos.OrderCreatedPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TotalCents:  order.TotalCents,
		ItemCount:   len(items),
	})
	log.Printf("order created offline: %s total=%d items=%d", order.OrderNumber, order.TotalCents, len(items))
	return order, nil
}

// CompleteOrder marks the order paid; the completion itself queues for sync.
func (s *Service) CompleteOrder(ctx context.Context, id string) (*pos.Order, error) {
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := pos.TransitionOrder(o.Status, pos.OrderCompleted)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pos.ErrInvalidInput, err)
	}
	o.Status = next
	o.SyncStatus = pos.SyncPending
	o.UpdatedAt = s.now()
	if err := s.Store.SaveOrder(ctx, o); err != nil {
		return nil, err
	}
	s.cacheOrderStatus(ctx, o)
	return o, nil
}

// CancelOrder returns the reserved quantities to stock in the same
// transaction that records the cancellation.
func (s *Service) CancelOrder(ctx context.Context, id string) (*pos.Order, error) {
	o, items, err := s.Store.GetOrderWithItems(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := pos.TransitionOrder(o.Status, pos.OrderCancelled)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pos.ErrInvalidInput, err)
	}
	o.Status = next
	o.SyncStatus = pos.SyncPending
	o.UpdatedAt = s.now()

	deltas := make([]store.StockDecrement, 0, len(items))
	for _, it := range items {
		deltas = append(deltas, store.StockDecrement{ProductID: it.ProductID, Delta: it.Quantity})
	}
	if err := s.Store.ApplyStockDeltas(ctx, o, deltas); err != nil {
		return nil, err
	}
	s.cacheOrderStatus(ctx, o)
	return o, nil
}

func (s *Service) RefundOrder(ctx context.Context, id string) (*pos.Order, error) {
	o, err := s.Store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := pos.TransitionOrder(o.Status, pos.OrderRefunded)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", pos.ErrInvalidInput, err)
	}
	o.Status = next
	o.SyncStatus = pos.SyncPending
	o.UpdatedAt = s.now()
	if err := s.Store.SaveOrder(ctx, o); err != nil {
		return nil, err
	}
	s.cacheOrderStatus(ctx, o)
	return o, nil
}

// DeleteProduct removes the local record only. The sync engine never deletes
// anything, so the remote copy, if one exists, is untouched.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.Store.DeleteProduct(ctx, id)
}

// Read-side helpers: plain filtered reads over the local store.

func (s *Service) GetProduct(ctx context.Context, id string) (*pos.Product, error) {
	return s.Store.GetProduct(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]pos.Product, error) {
	return s.Store.ListProducts(ctx)
}

func (s *Service) SearchProducts(ctx context.Context, q string) ([]pos.Product, error) {
	return s.Store.SearchProductsByName(ctx, q)
}

func (s *Service) LowStockProducts(ctx context.Context, threshold int) ([]pos.Product, error) {
	return s.Store.LowStockProducts(ctx, threshold)
}

func (s *Service) GetOrder(ctx context.Context, id string) (*pos.Order, []pos.OrderItem, error) {
	return s.Store.GetOrderWithItems(ctx, id)
}

func (s *Service) GetOrderOnly(ctx context.Context, id string) (*pos.Order, error) {
	return s.Store.GetOrder(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context) ([]pos.Order, error) {
	return s.Store.ListOrders(ctx)
}

func (s *Service) OrdersByStatus(ctx context.Context, status pos.OrderStatus) ([]pos.Order, error) {
	return s.Store.OrdersByStatus(ctx, status)
}

func (s *Service) PendingSyncCount(ctx context.Context) (int64, error) {
	sum, err := s.SyncSummary(ctx)
	if err != nil {
		return 0, err
	}
	return sum.PendingTotal(), nil
}

// SyncSummary counts records per sync status for both entities, served from
// redis when a fresh copy exists.
func (s *Service) SyncSummary(ctx context.Context) (pos.SyncSummary, error) {
	if s.Redis != nil {
		if raw, err := s.Redis.Get(ctx, redisx.KeySyncSummary).Result(); err == nil && raw != "" {
			var cached pos.SyncSummary
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		}
	}

	var sum pos.SyncSummary
	var err error
	if sum.PendingProducts, err = s.Store.CountProductsBySyncStatus(ctx, pos.SyncPending); err != nil {
		return sum, err
	}
	if sum.PendingOrders, err = s.Store.CountOrdersBySyncStatus(ctx, pos.SyncPending); err != nil {
		return sum, err
	}
	if sum.FailedProducts, err = s.Store.CountProductsBySyncStatus(ctx, pos.SyncFailed); err != nil {
		return sum, err
	}
	if sum.FailedOrders, err = s.Store.CountOrdersBySyncStatus(ctx, pos.SyncFailed); err != nil {
		return sum, err
	}
	if sum.SyncedProducts, err = s.Store.CountProductsBySyncStatus(ctx, pos.SyncSynced); err != nil {
		return sum, err
	}
	if sum.SyncedOrders, err = s.Store.CountOrdersBySyncStatus(ctx, pos.SyncSynced); err != nil {
		return sum, err
	}

	if s.Redis != nil {
		_ = s.Redis.Set(ctx, redisx.KeySyncSummary, kafkax.MustMarshal(sum), redisx.TTLSyncSummary).Err()
	}
	return sum, nil
}

func (s *Service) cacheOrderStatus(ctx context.Context, o *pos.Order) {
	if s.Redis == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	body := kafkax.MustMarshal(map[string]any{"status": o.Status, "updated_at": o.UpdatedAt})
	_ = s.Redis.Set(ctx, key, body, redisx.TTLStatusCache).Err()
}

// publish writes to the order-created topic the Events producer is bound to.
func (s *Service) publish(eventType, correlationID string, payload any) {
	if s.Events == nil {
		return
	}
	ev := pos.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.Name,
		CorrelationID: correlationID,
		Payload:       kafkax.MustMarshal(payload),
	}
	s.Events.Publish(pos.PartitionKey(correlationID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
