package redisx

import "time"

const (
	// Sync status summary: sync:summary -> JSON pos.SyncSummary
	KeySyncSummary = "sync:summary"

	// Cache of an order's business status: order_status:{order_id}
	KeyOrderStatus = "order_status:%s"

	// Timestamp of the last completed sync run: sync:last_run
	KeyLastSyncRun = "sync:last_run"
)

var (
	TTLSyncSummary = 30 * time.Second
	TTLStatusCache = 5 * time.Minute
)
