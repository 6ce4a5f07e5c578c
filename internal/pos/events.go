package pos

import (
	"encoding/json"
	"time"
)

const (
	EventOrderCreated     = "OrderCreated"
	EventSyncCompleted    = "SyncCompleted"
	EventSyncRecordFailed = "SyncRecordFailed"
)

// Envelope is the versioned wrapper every published event rides in.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	TotalCents  int64  `json:"total_cents"`
	ItemCount   int    `json:"item_count"`
}

type SyncCompletedPayload struct {
	Pushed     int `json:"pushed"`
	PushFailed int `json:"push_failed"`
	Pulled     int `json:"pulled"`
	Skipped    int `json:"skipped"`
}

type SyncRecordFailedPayload struct {
	Entity string `json:"entity"` // product | order
	ID     string `json:"id"`
	Reason string `json:"reason"`
}
