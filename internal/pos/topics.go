package pos

const (
	TopicOrderCreated     = "pos.order.created"
	TopicSyncCompleted    = "pos.sync.completed"
	TopicSyncRecordFailed = "pos.sync.record.failed"
)

// Partition key = record id, so all events for one record keep their order.
func PartitionKey(id string) []byte { return []byte(id) }
