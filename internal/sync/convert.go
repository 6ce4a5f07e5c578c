package sync

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/carsonvertex/tauri-pos-app/internal/pos"
	"github.com/carsonvertex/tauri-pos-app/internal/remote"
)

// Money crosses the wire as float dollars; locally everything is cents.

func centsToAmount(c int64) float64 { return float64(c) / 100 }

func amountToCents(a float64) int64 { return int64(math.Round(a * 100)) }

func toRemoteProduct(p *pos.Product) remote.RemoteProduct {
	rp := remote.RemoteProduct{
		Name:          p.Name,
		Price:         centsToAmount(p.PriceCents),
		StockQuantity: p.Stock,
		Description:   p.Description,
		Category:      p.Category,
	}
	if p.RemoteID != nil {
		rp.ID = *p.RemoteID
	}
	return rp
}

func newLocalProduct(rp remote.RemoteProduct, now time.Time) *pos.Product {
	id := rp.ID
	return &pos.Product{
		ID:          uuid.NewString(),
		RemoteID:    &id,
		Name:        rp.Name,
		PriceCents:  amountToCents(rp.Price),
		Stock:       rp.StockQuantity,
		Description: rp.Description,
		Category:    rp.Category,
		SyncStatus:  pos.SyncSynced,
		LastSyncAt:  &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func applyRemoteProduct(local *pos.Product, rp remote.RemoteProduct, now time.Time) {
	local.Name = rp.Name
	local.PriceCents = amountToCents(rp.Price)
	local.Stock = rp.StockQuantity
	local.Description = rp.Description
	local.Category = rp.Category
	local.LastSyncAt = &now
	local.UpdatedAt = now
}

func toRemoteOrder(o *pos.Order) remote.RemoteOrder {
	ro := remote.RemoteOrder{
		OrderNumber:  o.OrderNumber,
		TotalAmount:  centsToAmount(o.TotalCents),
		CustomerName: o.CustomerName,
		Status:       string(o.Status),
	}
	if o.RemoteID != nil {
		ro.ID = *o.RemoteID
	}
	return ro
}

func newLocalOrder(ro remote.RemoteOrder, now time.Time) *pos.Order {
	id := ro.ID
	status, ok := pos.ParseOrderStatus(ro.Status)
	if !ok {
		status = pos.OrderPending
	}
	return &pos.Order{
		ID:          uuid.NewString(),
		RemoteID:    &id,
		OrderNumber: ro.OrderNumber,
		TotalCents:  amountToCents(ro.TotalAmount),
		// the remote order shape carries no customer email
		CustomerName: ro.CustomerName,
		Status:       status,
		SyncStatus:   pos.SyncSynced,
		LastSyncAt:   &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func applyRemoteOrder(local *pos.Order, ro remote.RemoteOrder, now time.Time) {
	local.OrderNumber = ro.OrderNumber
	local.TotalCents = amountToCents(ro.TotalAmount)
	local.CustomerName = ro.CustomerName
	if status, ok := pos.ParseOrderStatus(ro.Status); ok {
		local.Status = status
	}
	local.LastSyncAt = &now
	local.UpdatedAt = now
}
