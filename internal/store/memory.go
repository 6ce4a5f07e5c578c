package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/carsonvertex/tauri-pos-app/internal/pos"
)

// Memory is an in-process LocalStore with the same contract as Postgres.
// A single mutex gives each operation the one-writer-per-record guarantee
// the pgx implementation gets from transactions.
type Memory struct {
	mu       sync.Mutex
	products map[string]*pos.Product
	orders   map[string]*pos.Order
	items    map[string][]pos.OrderItem // keyed by order id
}

func NewMemory() *Memory {
	return &Memory{
		products: make(map[string]*pos.Product),
		orders:   make(map[string]*pos.Order),
		items:    make(map[string][]pos.OrderItem),
	}
}

func (m *Memory) Migrate(ctx context.Context) error { return nil }

func cloneProduct(p *pos.Product) *pos.Product {
	cp := *p
	if p.RemoteID != nil {
		v := *p.RemoteID
		cp.RemoteID = &v
	}
	if p.LastSyncAt != nil {
		t := *p.LastSyncAt
		cp.LastSyncAt = &t
	}
	return &cp
}

func cloneOrder(o *pos.Order) *pos.Order {
	co := *o
	if o.RemoteID != nil {
		v := *o.RemoteID
		co.RemoteID = &v
	}
	if o.LastSyncAt != nil {
		t := *o.LastSyncAt
		co.LastSyncAt = &t
	}
	return &co
}

func (m *Memory) GetProduct(ctx context.Context, id string) (*pos.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, pos.ErrNotFound
	}
	return cloneProduct(p), nil
}

func (m *Memory) SaveProduct(ctx context.Context, p *pos.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = cloneProduct(p)
	return nil
}

func (m *Memory) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return pos.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *Memory) listProductsLocked(keep func(*pos.Product) bool) []pos.Product {
	var out []pos.Product
	for _, p := range m.products {
		if keep(p) {
			out = append(out, *cloneProduct(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (m *Memory) ListProducts(ctx context.Context) ([]pos.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listProductsLocked(func(*pos.Product) bool { return true }), nil
}

func (m *Memory) SearchProductsByName(ctx context.Context, q string) ([]pos.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q = strings.ToLower(q)
	return m.listProductsLocked(func(p *pos.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q)
	}), nil
}

func (m *Memory) LowStockProducts(ctx context.Context, threshold int) ([]pos.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.listProductsLocked(func(p *pos.Product) bool { return p.Stock <= threshold })
	sort.Slice(out, func(i, j int) bool { return out[i].Stock < out[j].Stock })
	return out, nil
}

func (m *Memory) FindProductByRemoteID(ctx context.Context, remoteID int64) (*pos.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.products {
		if p.RemoteID != nil && *p.RemoteID == remoteID {
			return cloneProduct(p), nil
		}
	}
	return nil, pos.ErrNotFound
}

func statusIn(s pos.SyncStatus, statuses []pos.SyncStatus) bool {
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

func (m *Memory) ProductsBySyncStatusIn(ctx context.Context, statuses []pos.SyncStatus) ([]pos.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.listProductsLocked(func(p *pos.Product) bool { return statusIn(p.SyncStatus, statuses) })
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (m *Memory) CountProductsBySyncStatus(ctx context.Context, status pos.SyncStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.products {
		if p.SyncStatus == status {
			n++
		}
	}
	return n, nil
}

func (m *Memory) UpdateProductSyncState(ctx context.Context, id string, from, to pos.SyncStatus, remoteID *int64, lastSyncAt *time.Time) (bool, error) {
	if _, err := pos.TransitionSync(from, to); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return false, nil
	}
	// identity and sync time land even when the status compare loses, so a
	// remote id adopted mid-push survives a concurrent local edit
	if remoteID != nil {
		v := *remoteID
		p.RemoteID = &v
	}
	if lastSyncAt != nil {
		t := *lastSyncAt
		p.LastSyncAt = &t
	}
	if p.SyncStatus != from {
		return false, nil
	}
	p.SyncStatus = to
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *Memory) GetOrder(ctx context.Context, id string) (*pos.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, pos.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (m *Memory) GetOrderWithItems(ctx context.Context, id string) (*pos.Order, []pos.OrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil, pos.ErrNotFound
	}
	items := append([]pos.OrderItem(nil), m.items[id]...)
	return cloneOrder(o), items, nil
}

func (m *Memory) SaveOrder(ctx context.Context, o *pos.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = cloneOrder(o)
	return nil
}

func (m *Memory) DeleteOrder(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[id]; !ok {
		return pos.ErrNotFound
	}
	delete(m.orders, id)
	delete(m.items, id)
	return nil
}

func (m *Memory) listOrdersLocked(keep func(*pos.Order) bool) []pos.Order {
	var out []pos.Order
	for _, o := range m.orders {
		if keep(o) {
			out = append(out, *cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *Memory) ListOrders(ctx context.Context) ([]pos.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listOrdersLocked(func(*pos.Order) bool { return true }), nil
}

func (m *Memory) OrdersByStatus(ctx context.Context, status pos.OrderStatus) ([]pos.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listOrdersLocked(func(o *pos.Order) bool { return o.Status == status }), nil
}

func (m *Memory) FindOrderByRemoteID(ctx context.Context, remoteID int64) (*pos.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.RemoteID != nil && *o.RemoteID == remoteID {
			return cloneOrder(o), nil
		}
	}
	return nil, pos.ErrNotFound
}

func (m *Memory) OrdersBySyncStatusIn(ctx context.Context, statuses []pos.SyncStatus) ([]pos.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.listOrdersLocked(func(o *pos.Order) bool { return statusIn(o.SyncStatus, statuses) })
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}

func (m *Memory) CountOrdersBySyncStatus(ctx context.Context, status pos.SyncStatus) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.orders {
		if o.SyncStatus == status {
			n++
		}
	}
	return n, nil
}

func (m *Memory) UpdateOrderSyncState(ctx context.Context, id string, from, to pos.SyncStatus, remoteID *int64, lastSyncAt *time.Time) (bool, error) {
	if _, err := pos.TransitionSync(from, to); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return false, nil
	}
	if remoteID != nil {
		v := *remoteID
		o.RemoteID = &v
	}
	if lastSyncAt != nil {
		t := *lastSyncAt
		o.LastSyncAt = &t
	}
	if o.SyncStatus != from {
		return false, nil
	}
	o.SyncStatus = to
	o.UpdatedAt = time.Now()
	return true, nil
}

func (m *Memory) CreateOrder(ctx context.Context, o *pos.Order, items []pos.OrderItem, decrements []StockDecrement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// validate every line before touching anything
	for _, d := range decrements {
		p, ok := m.products[d.ProductID]
		if !ok {
			return pos.ErrNotFound
		}
		if p.Stock < -d.Delta {
			return &pos.InsufficientStockError{
				ProductID: p.ID, Name: p.Name,
				Requested: -d.Delta, Available: p.Stock,
			}
		}
	}

	for _, d := range decrements {
		p := m.products[d.ProductID]
		p.Stock += d.Delta
		p.SyncStatus = pos.SyncPending
		p.UpdatedAt = time.Now()
	}
	m.orders[o.ID] = cloneOrder(o)
	m.items[o.ID] = append([]pos.OrderItem(nil), items...)
	return nil
}

func (m *Memory) ApplyStockDeltas(ctx context.Context, o *pos.Order, deltas []StockDecrement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[o.ID]; !ok {
		return pos.ErrNotFound
	}
	for _, d := range deltas {
		p, ok := m.products[d.ProductID]
		if !ok || p.Stock+d.Delta < 0 {
			return pos.ErrNotFound
		}
	}
	for _, d := range deltas {
		p := m.products[d.ProductID]
		p.Stock += d.Delta
		p.SyncStatus = pos.SyncPending
		p.UpdatedAt = time.Now()
	}
	m.orders[o.ID] = cloneOrder(o)
	return nil
}
