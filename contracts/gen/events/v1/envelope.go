package v1

import (
	"encoding/json"
	"time"
)

// Envelope is the canonical event shape shared with the notification,
// billing, and learning consumers. Treat as a frozen contract; additive
// changes only.
type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	TraceID       string          `json:"trace_id"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          json.RawMessage `json:"data"`
}
