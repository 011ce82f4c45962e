package ports

import (
	"context"
	"time"

	"gavel/contexts/governance/vote-contract/domain/entities"
	"gavel/internal/shared/events"
)

// StateStore owns the single governance ContractState instance and serializes
// access to it. Update runs fn against the live state; fn returns the events
// the transition produced, and the store commits state change and outbox rows
// as one unit. A non-nil error from fn, or a failed event append, must leave
// the persisted state unchanged. View must not be used to mutate.
type StateStore interface {
	View(ctx context.Context, fn func(state *entities.ContractState) error) error
	Update(ctx context.Context, fn func(state *entities.ContractState) ([]EventEnvelope, error)) error
}

// CallerResolver is the host capability that answers "who is calling":
// an external account with its public key for a direct call, or a contract
// account for an inter-contract call. A direct call that cannot produce a
// public key fails with domain ErrCallerUnavailable rather than defaulting.
type CallerResolver interface {
	ResolveCaller(ctx context.Context) (entities.Account, error)
}

// BalanceOracle is the collaborating token ledger consulted for vote weight.
// Callers treat any error as balance 0; the oracle can deny voting power but
// never block an operation outright.
type BalanceOracle interface {
	BalanceOf(ctx context.Context, key entities.PublicKey) (uint64, error)
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = events.Envelope

// OutboxWriter appends a governance event for asynchronous relay.
type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

// OutboxMessage is a row ready to relay from the module outbox.
type OutboxMessage struct {
	OutboxID  string
	EventType string
	Payload   []byte
	CreatedAt time.Time
}

// OutboxRepository models worker-side outbox polling/acknowledgement.
type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// EventPublisher publishes canonical envelopes to a topic.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
