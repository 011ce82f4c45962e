package httpadapter

import (
	"context"

	"gavel/contexts/governance/vote-contract/domain/entities"
	domainerrors "gavel/contexts/governance/vote-contract/domain/errors"
	"gavel/contexts/governance/vote-contract/ports"
)

type callerContextKey struct{}

// WithCaller attaches the resolved caller identity to the request context.
// The host boundary (http server) decides whether the call is a direct
// external call or arrived via another contract.
func WithCaller(ctx context.Context, account entities.Account) context.Context {
	return context.WithValue(ctx, callerContextKey{}, account)
}

// ContextCallerResolver reads the caller the host boundary attached to the
// context. Absence fails loudly; operations never fall back to a default
// identity.
type ContextCallerResolver struct{}

func (ContextCallerResolver) ResolveCaller(ctx context.Context) (entities.Account, error) {
	account, ok := ctx.Value(callerContextKey{}).(entities.Account)
	if !ok {
		return entities.Account{}, domainerrors.ErrCallerUnavailable
	}
	return account, nil
}

var _ ports.CallerResolver = ContextCallerResolver{}
