package commands

import (
	"context"
	"encoding/json"
	"time"

	"gavel/contexts/governance/vote-contract/ports"
)

func newGovernanceEnvelope(
	eventID string,
	eventType string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Governance events are partitioned by the entity they concern (proposal
	// id or admin custody) for stable ordering on scoped consumers.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC(),
		SourceService: "vote-contract",
		SchemaVersion: 1,
		PartitionKey:  partitionKey,
		Data:          payload,
	}, nil
}

// stageEvent builds the envelope a successful transition hands back to the
// state store, which persists it in the same commit as the state change. A
// nil id generator (pure read/test wiring) stages nothing.
func stageEvent(
	ctx context.Context,
	idgen ports.IDGenerator,
	eventType string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) ([]ports.EventEnvelope, error) {
	if idgen == nil {
		return nil, nil
	}
	eventID, err := idgen.NewID(ctx)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	data["occurred_at"] = occurredAt.Format(time.RFC3339)
	envelope, err := newGovernanceEnvelope(eventID, eventType, partitionKey, occurredAt, data)
	if err != nil {
		return nil, err
	}
	return []ports.EventEnvelope{envelope}, nil
}
