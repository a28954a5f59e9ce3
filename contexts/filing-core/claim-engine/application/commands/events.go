package commands

import (
	"encoding/json"
	"time"

	"recoup/contexts/filing-core/claim-engine/ports"
)

const (
	EventClaimFiled          = "claim.filed"
	EventClaimApproved       = "claim.approved"
	EventClaimDenied         = "claim.denied"
	EventClaimActionRequired = "claim.action_required"
)

func NewClaimEnvelope(
	eventID string,
	eventType string,
	claimID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC(),
		SourceService: "claim-engine",
		TraceID:       eventID,
		SchemaVersion: 1,
		PartitionKey:  claimID,
		Data:          payload,
	}, nil
}
