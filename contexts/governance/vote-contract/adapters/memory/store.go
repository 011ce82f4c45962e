package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"gavel/contexts/governance/vote-contract/domain/entities"
	domainerrors "gavel/contexts/governance/vote-contract/domain/errors"
	"gavel/contexts/governance/vote-contract/ports"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store holds the single in-process governance state plus the outbox, and
// doubles as caller session, clock, and id generator for in-memory wiring.
// The mutex serializes calls, so each Update is one logical operation; the
// state machine's check-then-mutate methods keep a failed Update from leaving
// partial changes behind.
type Store struct {
	mu sync.RWMutex

	state  *entities.ContractState
	outbox map[string]outboxRecord

	caller    *entities.Account
	callerErr error
	outboxErr error
}

func NewStore() *Store {
	return &Store{
		state:  entities.NewContractState(),
		outbox: make(map[string]outboxRecord),
	}
}

// SetCaller pins the identity returned to the next operations, standing in
// for the host call-stack inspection.
func (s *Store) SetCaller(account entities.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pinned := account
	s.caller = &pinned
	s.callerErr = nil
}

// ClearCaller simulates a shielded/anonymous direct call: resolution fails
// loudly instead of defaulting.
func (s *Store) ClearCaller() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.caller = nil
	s.callerErr = nil
}

func (s *Store) ResolveCaller(_ context.Context) (entities.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.callerErr != nil {
		return entities.Account{}, s.callerErr
	}
	if s.caller == nil {
		return entities.Account{}, domainerrors.ErrCallerUnavailable
	}
	return *s.caller, nil
}

func (s *Store) View(_ context.Context, fn func(state *entities.ContractState) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// Update applies fn and appends the events it returns in one critical
// section. An append failure restores the pre-transition state, so a caller
// that sees an error can rely on nothing having been recorded.
func (s *Store) Update(_ context.Context, fn func(state *entities.ContractState) ([]ports.EventEnvelope, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.Snapshot()
	events, err := fn(s.state)
	if err != nil {
		return err
	}
	for _, envelope := range events {
		if err := s.appendOutboxLocked(envelope); err != nil {
			s.state = entities.RestoreContractState(before)
			return err
		}
	}
	return nil
}

// FailOutboxWith makes subsequent event appends fail, simulating exhausted
// outbox storage.
func (s *Store) FailOutboxWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outboxErr = err
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendOutboxLocked(envelope)
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	if s.outboxErr != nil {
		return s.outboxErr
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:  outboxID,
			EventType: strings.TrimSpace(envelope.EventType),
			Payload:   payload,
			CreatedAt: createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.StateStore = (*Store)(nil)
var _ ports.CallerResolver = (*Store)(nil)
var _ ports.OutboxWriter = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
