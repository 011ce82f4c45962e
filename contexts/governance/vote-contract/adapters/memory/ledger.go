package memory

import (
	"context"
	"sync"

	"gavel/contexts/governance/vote-contract/domain/entities"
	"gavel/contexts/governance/vote-contract/ports"
)

// TokenLedger is a trivial key -> balance map implementing the balance
// oracle. It is a collaborator stand-in, not part of the governance core.
type TokenLedger struct {
	mu       sync.RWMutex
	balances map[entities.PublicKey]uint64
	failWith error
}

func NewTokenLedger() *TokenLedger {
	return &TokenLedger{
		balances: make(map[entities.PublicKey]uint64),
	}
}

func (l *TokenLedger) SetBalance(key entities.PublicKey, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[key] = amount
}

// FailWith makes every lookup return err, simulating an unreachable ledger.
// Pass nil to restore normal lookups.
func (l *TokenLedger) FailWith(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failWith = err
}

func (l *TokenLedger) BalanceOf(_ context.Context, key entities.PublicKey) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.failWith != nil {
		return 0, l.failWith
	}
	return l.balances[key], nil
}

var _ ports.BalanceOracle = (*TokenLedger)(nil)
