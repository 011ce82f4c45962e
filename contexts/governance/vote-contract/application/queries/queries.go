package queries

import (
	"context"
	"log/slog"

	application "gavel/contexts/governance/vote-contract/application"
	"gavel/contexts/governance/vote-contract/domain/entities"
	"gavel/contexts/governance/vote-contract/ports"
)

// GovernanceQueries is the read surface. Reads carry no authorization and no
// side effects; absence (unknown proposal, account that never voted) yields
// zero values, never errors.
type GovernanceQueries struct {
	State  ports.StateStore
	Caller ports.CallerResolver
	Oracle ports.BalanceOracle
	Logger *slog.Logger
}

func (q GovernanceQueries) Admin(ctx context.Context) (entities.Account, error) {
	var admin entities.Account
	err := q.State.View(ctx, func(state *entities.ContractState) error {
		admin = state.Admin()
		return nil
	})
	return admin, err
}

func (q GovernanceQueries) PendingAdmin(ctx context.Context) (entities.Account, bool, error) {
	var (
		pending entities.Account
		ok      bool
	)
	err := q.State.View(ctx, func(state *entities.ContractState) error {
		pending, ok = state.PendingAdmin()
		return nil
	})
	return pending, ok, err
}

// IsAdmin reports whether the caller is the current admin.
func (q GovernanceQueries) IsAdmin(ctx context.Context) (bool, error) {
	caller, err := q.Caller.ResolveCaller(ctx)
	if err != nil {
		return false, err
	}
	var isAdmin bool
	err = q.State.View(ctx, func(state *entities.ContractState) error {
		isAdmin = state.IsAdmin(caller)
		return nil
	})
	return isAdmin, err
}

func (q GovernanceQueries) TokenContract(ctx context.Context) (entities.ContractID, error) {
	var id entities.ContractID
	err := q.State.View(ctx, func(state *entities.ContractState) error {
		id = state.TokenContract()
		return nil
	})
	return id, err
}

func (q GovernanceQueries) Proposal(ctx context.Context, proposalID uint32) (entities.Proposal, bool, error) {
	var (
		proposal entities.Proposal
		found    bool
	)
	err := q.State.View(ctx, func(state *entities.ContractState) error {
		proposal, found = state.Proposal(proposalID)
		return nil
	})
	return proposal, found, err
}

func (q GovernanceQueries) Proposals(ctx context.Context) ([]entities.Proposal, error) {
	var proposals []entities.Proposal
	err := q.State.View(ctx, func(state *entities.ContractState) error {
		proposals = state.Proposals()
		return nil
	})
	return proposals, err
}

func (q GovernanceQueries) ProposalCount(ctx context.Context) (uint32, error) {
	var count uint32
	err := q.State.View(ctx, func(state *entities.ContractState) error {
		count = state.ProposalCount()
		return nil
	})
	return count, err
}

// HasVoted reports whether the caller has voted on the proposal.
func (q GovernanceQueries) HasVoted(ctx context.Context, proposalID uint32) (bool, error) {
	caller, err := q.Caller.ResolveCaller(ctx)
	if err != nil {
		return false, err
	}
	return q.HasAccountVoted(ctx, caller, proposalID)
}

func (q GovernanceQueries) HasAccountVoted(ctx context.Context, account entities.Account, proposalID uint32) (bool, error) {
	var voted bool
	err := q.State.View(ctx, func(state *entities.ContractState) error {
		voted = state.HasVoted(proposalID, account)
		return nil
	})
	return voted, err
}

// VoteWeight returns the weight the caller cast on the proposal, 0 if none.
func (q GovernanceQueries) VoteWeight(ctx context.Context, proposalID uint32) (uint64, error) {
	caller, err := q.Caller.ResolveCaller(ctx)
	if err != nil {
		return 0, err
	}
	return q.AccountVoteWeight(ctx, caller, proposalID)
}

func (q GovernanceQueries) AccountVoteWeight(ctx context.Context, account entities.Account, proposalID uint32) (uint64, error) {
	var weight uint64
	err := q.State.View(ctx, func(state *entities.ContractState) error {
		weight = state.VoteWeight(proposalID, account)
		return nil
	})
	return weight, err
}

// Balance proxies the token ledger for an external key. Oracle failures
// degrade to 0, same as the voting path.
func (q GovernanceQueries) Balance(ctx context.Context, key entities.PublicKey) (uint64, error) {
	balance, err := q.Oracle.BalanceOf(ctx, key)
	if err != nil {
		application.ResolveLogger(q.Logger).Warn("balance oracle lookup failed; treating balance as zero",
			"event", "governance_balance_lookup_failed",
			"module", "governance/vote-contract",
			"layer", "application",
			"error", err.Error(),
		)
		return 0, nil
	}
	return balance, nil
}
