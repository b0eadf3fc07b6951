package dto

// DispatcherStatus is the introspection snapshot of the change-feed consumer.
type DispatcherStatus struct {
	IsRunning        bool           `json:"is_running"`
	LastProcessedID  int64          `json:"last_processed_id"`
	UnprocessedCount int            `json:"unprocessed_count"`
	QueueSizes       map[string]int `json:"queue_sizes"`
}
