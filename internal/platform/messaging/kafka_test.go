package messaging

import (
	"context"
	"testing"

	"gavel/contexts/governance/vote-contract/ports"
)

func TestPublishReachesSubscribers(t *testing.T) {
	bus, err := NewKafka([]string{"localhost:9092"}, nil)
	if err != nil {
		t.Fatalf("new bus failed: %v", err)
	}

	events := bus.Subscribe("governance.events", 4)
	other := bus.Subscribe("unrelated.topic", 4)

	err = bus.Publish(context.Background(), "governance.events", ports.EventEnvelope{
		EventID:   "evt-1",
		EventType: "vote.cast",
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case event := <-events:
		if event.EventType != "vote.cast" {
			t.Fatalf("unexpected event type %s", event.EventType)
		}
	default:
		t.Fatalf("expected buffered event for subscriber")
	}

	select {
	case <-other:
		t.Fatalf("event must not cross topics")
	default:
	}
}

func TestPublishDropsForFullSubscriber(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new bus failed: %v", err)
	}
	events := bus.Subscribe("governance.events", 1)

	for i := 0; i < 3; i++ {
		err := bus.Publish(context.Background(), "governance.events", ports.EventEnvelope{EventID: "evt"})
		if err != nil {
			t.Fatalf("publish %d failed: %v", i, err)
		}
	}

	// Only the first event fits; the rest were dropped, not blocked on.
	<-events
	select {
	case <-events:
		t.Fatalf("expected overflow events to be dropped")
	default:
	}
}
