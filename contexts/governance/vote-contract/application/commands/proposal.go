package commands

import (
	"context"
	"log/slog"
	"strconv"

	application "gavel/contexts/governance/vote-contract/application"
	"gavel/contexts/governance/vote-contract/domain/entities"
	"gavel/contexts/governance/vote-contract/ports"
)

// ProposalUseCase owns the admin-gated proposal registry: sequential ids,
// bounded descriptions, capped size, one-way close.
type ProposalUseCase struct {
	State  ports.StateStore
	Caller ports.CallerResolver
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// AddProposal opens a new proposal and returns its id.
func (uc ProposalUseCase) AddProposal(ctx context.Context, description string) (uint32, error) {
	logger := application.ResolveLogger(uc.Logger)
	caller, err := uc.Caller.ResolveCaller(ctx)
	if err != nil {
		return 0, err
	}

	now := resolveNow(uc.Clock)
	var proposalID uint32
	err = uc.State.Update(ctx, func(state *entities.ContractState) ([]ports.EventEnvelope, error) {
		id, err := state.AddProposal(caller, description)
		if err != nil {
			return nil, err
		}
		proposalID = id
		return stageEvent(ctx, uc.IDGen, "proposal.created", partitionForProposal(id), now, map[string]any{
			"proposal_id": id,
			"description": description,
		})
	})
	if err != nil {
		logger.Warn("proposal creation rejected",
			"event", "governance_proposal_create_rejected",
			"module", "governance/vote-contract",
			"layer", "application",
			"caller", caller.Fingerprint(),
			"description_len", len(description),
			"error", err.Error(),
		)
		return 0, err
	}

	logger.Info("proposal created",
		"event", "governance_proposal_created",
		"module", "governance/vote-contract",
		"layer", "application",
		"proposal_id", proposalID,
		"caller", caller.Fingerprint(),
	)
	return proposalID, nil
}

// CloseProposal deactivates a proposal. Repeating the close is accepted; the
// registry treats it as already done rather than a conflict.
func (uc ProposalUseCase) CloseProposal(ctx context.Context, proposalID uint32) error {
	logger := application.ResolveLogger(uc.Logger)
	caller, err := uc.Caller.ResolveCaller(ctx)
	if err != nil {
		return err
	}
	now := resolveNow(uc.Clock)
	err = uc.State.Update(ctx, func(state *entities.ContractState) ([]ports.EventEnvelope, error) {
		if err := state.CloseProposal(caller, proposalID); err != nil {
			return nil, err
		}
		return stageEvent(ctx, uc.IDGen, "proposal.closed", partitionForProposal(proposalID), now, map[string]any{
			"proposal_id": proposalID,
		})
	})
	if err != nil {
		logger.Warn("proposal close rejected",
			"event", "governance_proposal_close_rejected",
			"module", "governance/vote-contract",
			"layer", "application",
			"proposal_id", proposalID,
			"caller", caller.Fingerprint(),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("proposal closed",
		"event", "governance_proposal_closed",
		"module", "governance/vote-contract",
		"layer", "application",
		"proposal_id", proposalID,
		"caller", caller.Fingerprint(),
	)
	return nil
}

func partitionForProposal(proposalID uint32) string {
	return "proposal-" + strconv.FormatUint(uint64(proposalID), 10)
}
