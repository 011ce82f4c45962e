package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gavel/contexts/governance/vote-contract/adapters/memory"
	"gavel/contexts/governance/vote-contract/ports"
)

type capturingPublisher struct {
	topics []string
	events []ports.EventEnvelope
	fail   error
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.fail != nil {
		return p.fail
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func appendTestEvent(t *testing.T, store *memory.Store, eventID, eventType string, occurredAt time.Time) {
	t.Helper()
	err := store.AppendOutbox(context.Background(), ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt,
		SourceService: "vote-contract",
		SchemaVersion: 1,
		PartitionKey:  "admin",
		Data:          json.RawMessage(`{}`),
	})
	if err != nil {
		t.Fatalf("append outbox failed: %v", err)
	}
}

func TestOutboxRelayPublishesAndMarks(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturingPublisher{}
	base := time.Now().UTC()
	appendTestEvent(t, store, "evt-1", "proposal.created", base)
	appendTestEvent(t, store, "evt-2", "vote.cast", base.Add(time.Millisecond))

	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		Topic:     "governance.events",
		BatchSize: 10,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}

	if len(publisher.events) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.events))
	}
	if publisher.events[0].EventType != "proposal.created" || publisher.events[1].EventType != "vote.cast" {
		t.Fatalf("unexpected publish order: %s, %s", publisher.events[0].EventType, publisher.events[1].EventType)
	}
	for _, topic := range publisher.topics {
		if topic != "governance.events" {
			t.Fatalf("unexpected topic %s", topic)
		}
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected all rows marked published, got %d pending", len(pending))
	}

	// A second cycle is a no-op.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second relay run failed: %v", err)
	}
	if len(publisher.events) != 2 {
		t.Fatalf("expected no republish, got %d events", len(publisher.events))
	}
}

func TestOutboxRelayStopsOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	publisher := &capturingPublisher{fail: errors.New("bus down")}
	appendTestEvent(t, store, "evt-1", "proposal.created", time.Now().UTC())

	relay := OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		BatchSize: 10,
	}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish failure to surface")
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("failed publish must leave the row pending, got %d", len(pending))
	}

	// Recovery: clear the failure and retry.
	publisher.fail = nil
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	pending, err = store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected retry to drain the outbox, got %d pending", len(pending))
	}
}
