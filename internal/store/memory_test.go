package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carsonvertex/tauri-pos-app/internal/pos"
)

func seedProduct(t *testing.T, m *Memory, id string, priceCents int64, stock int) *pos.Product {
	t.Helper()
	now := time.Now()
	p := &pos.Product{
		ID: id, Name: "p-" + id, PriceCents: priceCents, Stock: stock,
		SyncStatus: pos.SyncPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, m.SaveProduct(context.Background(), p))
	return p
}

func TestMemory_ProductNotFound(t *testing.T) {
	m := NewMemory()
	_, err := m.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, pos.ErrNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	m := NewMemory()
	seedProduct(t, m, "a", 100, 5)

	got, err := m.GetProduct(context.Background(), "a")
	require.NoError(t, err)
	got.Stock = 999

	again, err := m.GetProduct(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 5, again.Stock, "mutating a returned record must not affect the store")
}

func TestMemory_UpdateProductSyncState_CAS(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedProduct(t, m, "a", 100, 5)

	ok, err := m.UpdateProductSyncState(ctx, "a", pos.SyncPending, pos.SyncSyncing, nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// record is SYNCING now; a CAS expecting PENDING must lose
	ok, err = m.UpdateProductSyncState(ctx, "a", pos.SyncPending, pos.SyncSyncing, nil, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	rid := int64(42)
	now := time.Now()
	ok, err = m.UpdateProductSyncState(ctx, "a", pos.SyncSyncing, pos.SyncSynced, &rid, &now)
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := m.GetProduct(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, pos.SyncSynced, p.SyncStatus)
	require.NotNil(t, p.RemoteID)
	assert.Equal(t, int64(42), *p.RemoteID)
	require.NotNil(t, p.LastSyncAt)
}

func TestMemory_UpdateProductSyncState_LostRaceKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedProduct(t, m, "a", 100, 5)

	ok, err := m.UpdateProductSyncState(ctx, "a", pos.SyncPending, pos.SyncSyncing, nil, nil)
	require.NoError(t, err)
	require.True(t, ok)

	// a concurrent edit moves the record back to PENDING mid-push
	p, err := m.GetProduct(ctx, "a")
	require.NoError(t, err)
	p.SyncStatus = pos.SyncPending
	require.NoError(t, m.SaveProduct(ctx, p))

	rid := int64(42)
	now := time.Now()
	ok, err = m.UpdateProductSyncState(ctx, "a", pos.SyncSyncing, pos.SyncSynced, &rid, &now)
	require.NoError(t, err)
	assert.False(t, ok, "the status compare must lose")

	p, err = m.GetProduct(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, pos.SyncPending, p.SyncStatus, "the edit stays queued")
	require.NotNil(t, p.RemoteID, "the assigned remote id must land regardless")
	assert.Equal(t, int64(42), *p.RemoteID)
	require.NotNil(t, p.LastSyncAt)
}

func TestMemory_UpdateProductSyncState_RejectsIllegalTransition(t *testing.T) {
	m := NewMemory()
	seedProduct(t, m, "a", 100, 5)

	_, err := m.UpdateProductSyncState(context.Background(), "a", pos.SyncPending, pos.SyncSynced, nil, nil)
	assert.Error(t, err)
}

func TestMemory_CreateOrder_Atomic(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedProduct(t, m, "a", 100, 10)
	seedProduct(t, m, "b", 200, 1)

	order := &pos.Order{ID: "o1", OrderNumber: "ORD-1", Status: pos.OrderPending, SyncStatus: pos.SyncPending}
	items := []pos.OrderItem{
		{ID: "i1", OrderID: "o1", ProductID: "a", Quantity: 2, PriceCents: 100},
		{ID: "i2", OrderID: "o1", ProductID: "b", Quantity: 5, PriceCents: 200},
	}
	decs := []StockDecrement{{ProductID: "a", Delta: -2}, {ProductID: "b", Delta: -5}}

	err := m.CreateOrder(ctx, order, items, decs)
	var insufficient *pos.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, "b", insufficient.ProductID)
	assert.Equal(t, 5, insufficient.Requested)
	assert.Equal(t, 1, insufficient.Available)

	// nothing persisted, no stock moved
	a, _ := m.GetProduct(ctx, "a")
	assert.Equal(t, 10, a.Stock)
	_, err = m.GetOrder(ctx, "o1")
	assert.ErrorIs(t, err, pos.ErrNotFound)
}

func TestMemory_CreateOrder_CommitsEverything(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedProduct(t, m, "a", 100, 10)

	order := &pos.Order{ID: "o1", OrderNumber: "ORD-1", Status: pos.OrderPending, SyncStatus: pos.SyncPending}
	items := []pos.OrderItem{{ID: "i1", OrderID: "o1", ProductID: "a", Quantity: 4, PriceCents: 100}}
	require.NoError(t, m.CreateOrder(ctx, order, items, []StockDecrement{{ProductID: "a", Delta: -4}}))

	a, _ := m.GetProduct(ctx, "a")
	assert.Equal(t, 6, a.Stock)
	assert.Equal(t, pos.SyncPending, a.SyncStatus)

	got, gotItems, err := m.GetOrderWithItems(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "ORD-1", got.OrderNumber)
	require.Len(t, gotItems, 1)
	assert.Equal(t, 4, gotItems[0].Quantity)
}

func TestMemory_Queries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	low := seedProduct(t, m, "low", 100, 2)
	seedProduct(t, m, "high", 100, 50)

	rid := int64(7)
	low.RemoteID = &rid
	low.SyncStatus = pos.SyncSynced
	require.NoError(t, m.SaveProduct(ctx, low))

	found, err := m.FindProductByRemoteID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "low", found.ID)

	lowStock, err := m.LowStockProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, lowStock, 1)
	assert.Equal(t, "low", lowStock[0].ID)

	dirty, err := m.ProductsBySyncStatusIn(ctx, pos.PushableStatuses())
	require.NoError(t, err)
	require.Len(t, dirty, 1)
	assert.Equal(t, "high", dirty[0].ID)

	n, err := m.CountProductsBySyncStatus(ctx, pos.SyncSynced)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	hits, err := m.SearchProductsByName(ctx, "P-LOW")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "low", hits[0].ID)
}

func TestMemory_ApplyStockDeltas_Restores(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedProduct(t, m, "a", 100, 6)

	order := &pos.Order{ID: "o1", OrderNumber: "ORD-1", Status: pos.OrderPending, SyncStatus: pos.SyncPending}
	items := []pos.OrderItem{{ID: "i1", OrderID: "o1", ProductID: "a", Quantity: 4, PriceCents: 100}}
	require.NoError(t, m.CreateOrder(ctx, order, items, []StockDecrement{{ProductID: "a", Delta: -4}}))

	order.Status = pos.OrderCancelled
	require.NoError(t, m.ApplyStockDeltas(ctx, order, []StockDecrement{{ProductID: "a", Delta: 4}}))

	a, _ := m.GetProduct(ctx, "a")
	assert.Equal(t, 6, a.Stock)
	got, _ := m.GetOrder(ctx, "o1")
	assert.Equal(t, pos.OrderCancelled, got.Status)
}
