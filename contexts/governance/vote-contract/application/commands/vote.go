package commands

import (
	"context"
	"log/slog"

	application "gavel/contexts/governance/vote-contract/application"
	"gavel/contexts/governance/vote-contract/domain/entities"
	domainerrors "gavel/contexts/governance/vote-contract/domain/errors"
	"gavel/contexts/governance/vote-contract/ports"
)

// VoteResult reports the weight that was locked into the ledger for the
// caller's vote.
type VoteResult struct {
	ProposalID uint32
	Weight     uint64
	VoteYes    bool
}

// VoteUseCase is the voting engine: it resolves the caller, reads the live
// token balance from the oracle, and commits the ledger entry plus tally in
// one all-or-nothing state transition.
type VoteUseCase struct {
	State  ports.StateStore
	Caller ports.CallerResolver
	Oracle ports.BalanceOracle
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// Vote casts the caller's yes/no vote on a proposal. The weight is the
// caller's token balance at this instant; there is no snapshot at proposal
// creation, and a later balance change never revisits a recorded vote.
func (uc VoteUseCase) Vote(ctx context.Context, proposalID uint32, voteYes bool) (VoteResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	caller, err := uc.Caller.ResolveCaller(ctx)
	if err != nil {
		logger.Warn("vote caller resolution failed",
			"event", "governance_vote_caller_failed",
			"module", "governance/vote-contract",
			"layer", "application",
			"proposal_id", proposalID,
			"error", err.Error(),
		)
		return VoteResult{}, err
	}
	if caller.Kind() == entities.AccountKindContract {
		logger.Warn("vote rejected for contract caller",
			"event", "governance_vote_contract_caller",
			"module", "governance/vote-contract",
			"layer", "application",
			"proposal_id", proposalID,
			"caller", caller.Fingerprint(),
		)
		return VoteResult{}, domainerrors.ErrContractsCannotVote
	}

	weight := uc.resolveWeight(ctx, caller)
	now := resolveNow(uc.Clock)
	err = uc.State.Update(ctx, func(state *entities.ContractState) ([]ports.EventEnvelope, error) {
		if err := state.CastVote(caller, proposalID, voteYes, weight); err != nil {
			return nil, err
		}
		return stageEvent(ctx, uc.IDGen, "vote.cast", partitionForProposal(proposalID), now, map[string]any{
			"proposal_id": proposalID,
			"voter":       caller.String(),
			"vote_yes":    voteYes,
			"weight":      weight,
		})
	})
	if err != nil {
		logger.Warn("vote rejected",
			"event", "governance_vote_rejected",
			"module", "governance/vote-contract",
			"layer", "application",
			"proposal_id", proposalID,
			"caller", caller.Fingerprint(),
			"weight", weight,
			"error", err.Error(),
		)
		return VoteResult{}, err
	}

	logger.Info("vote cast",
		"event", "governance_vote_cast",
		"module", "governance/vote-contract",
		"layer", "application",
		"proposal_id", proposalID,
		"caller", caller.Fingerprint(),
		"vote_yes", voteYes,
		"weight", weight,
	)
	return VoteResult{ProposalID: proposalID, Weight: weight, VoteYes: voteYes}, nil
}

// resolveWeight reads the caller's balance from the token ledger. An
// unreachable oracle degrades to 0 so it can deny voting power but never
// forge it or block the call with a fault.
func (uc VoteUseCase) resolveWeight(ctx context.Context, caller entities.Account) uint64 {
	logger := application.ResolveLogger(uc.Logger)
	key, ok := caller.PublicKey()
	if !ok {
		return 0
	}
	balance, err := uc.Oracle.BalanceOf(ctx, key)
	if err != nil {
		logger.Warn("balance oracle lookup failed; treating balance as zero",
			"event", "governance_balance_lookup_failed",
			"module", "governance/vote-contract",
			"layer", "application",
			"caller", caller.Fingerprint(),
			"error", err.Error(),
		)
		return 0
	}
	return balance
}
