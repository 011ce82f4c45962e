package commands

import (
	"context"
	"log/slog"
	"time"

	application "gavel/contexts/governance/vote-contract/application"
	"gavel/contexts/governance/vote-contract/domain/entities"
	"gavel/contexts/governance/vote-contract/ports"
)

// InitCommand seeds admin custody and the token-ledger collaborator. It is
// accepted exactly once, before any other operation.
type InitCommand struct {
	Admin         entities.Account
	TokenContract entities.ContractID
}

// AdminUseCase owns contract initialization and the two-step admin transfer.
// A single-step transfer could lock the contract behind a mistyped address;
// requiring the recipient to accept removes that failure mode.
type AdminUseCase struct {
	State  ports.StateStore
	Caller ports.CallerResolver
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc AdminUseCase) Init(ctx context.Context, cmd InitCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	now := resolveNow(uc.Clock)
	err := uc.State.Update(ctx, func(state *entities.ContractState) ([]ports.EventEnvelope, error) {
		if err := state.Init(cmd.Admin, cmd.TokenContract); err != nil {
			return nil, err
		}
		return stageEvent(ctx, uc.IDGen, "governance.initialized", "admin", now, map[string]any{
			"admin":          cmd.Admin.String(),
			"token_contract": cmd.TokenContract.Hex(),
		})
	})
	if err != nil {
		logger.Warn("governance init rejected",
			"event", "governance_init_rejected",
			"module", "governance/vote-contract",
			"layer", "application",
			"admin", cmd.Admin.Fingerprint(),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("governance initialized",
		"event", "governance_initialized",
		"module", "governance/vote-contract",
		"layer", "application",
		"admin", cmd.Admin.Fingerprint(),
		"token_contract", cmd.TokenContract.Hex(),
	)
	return nil
}

func (uc AdminUseCase) ProposeAdmin(ctx context.Context, newAdmin entities.Account) error {
	logger := application.ResolveLogger(uc.Logger)
	caller, err := uc.Caller.ResolveCaller(ctx)
	if err != nil {
		return err
	}
	now := resolveNow(uc.Clock)
	err = uc.State.Update(ctx, func(state *entities.ContractState) ([]ports.EventEnvelope, error) {
		if err := state.ProposeAdmin(caller, newAdmin); err != nil {
			return nil, err
		}
		return stageEvent(ctx, uc.IDGen, "admin.proposed", "admin", now, map[string]any{
			"candidate": newAdmin.String(),
		})
	})
	if err != nil {
		logger.Warn("admin proposal rejected",
			"event", "governance_admin_propose_rejected",
			"module", "governance/vote-contract",
			"layer", "application",
			"caller", caller.Fingerprint(),
			"candidate", newAdmin.Fingerprint(),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("admin transfer proposed",
		"event", "governance_admin_proposed",
		"module", "governance/vote-contract",
		"layer", "application",
		"caller", caller.Fingerprint(),
		"candidate", newAdmin.Fingerprint(),
	)
	return nil
}

func (uc AdminUseCase) AcceptAdmin(ctx context.Context) error {
	logger := application.ResolveLogger(uc.Logger)
	caller, err := uc.Caller.ResolveCaller(ctx)
	if err != nil {
		return err
	}
	now := resolveNow(uc.Clock)
	err = uc.State.Update(ctx, func(state *entities.ContractState) ([]ports.EventEnvelope, error) {
		if err := state.AcceptAdmin(caller); err != nil {
			return nil, err
		}
		return stageEvent(ctx, uc.IDGen, "admin.accepted", "admin", now, map[string]any{
			"admin": caller.String(),
		})
	})
	if err != nil {
		logger.Warn("admin acceptance rejected",
			"event", "governance_admin_accept_rejected",
			"module", "governance/vote-contract",
			"layer", "application",
			"caller", caller.Fingerprint(),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("admin transfer accepted",
		"event", "governance_admin_accepted",
		"module", "governance/vote-contract",
		"layer", "application",
		"admin", caller.Fingerprint(),
	)
	return nil
}

func (uc AdminUseCase) CancelAdminProposal(ctx context.Context) error {
	logger := application.ResolveLogger(uc.Logger)
	caller, err := uc.Caller.ResolveCaller(ctx)
	if err != nil {
		return err
	}
	now := resolveNow(uc.Clock)
	err = uc.State.Update(ctx, func(state *entities.ContractState) ([]ports.EventEnvelope, error) {
		if err := state.CancelAdminProposal(caller); err != nil {
			return nil, err
		}
		return stageEvent(ctx, uc.IDGen, "admin.transfer_cancelled", "admin", now, nil)
	})
	if err != nil {
		logger.Warn("admin transfer cancel rejected",
			"event", "governance_admin_cancel_rejected",
			"module", "governance/vote-contract",
			"layer", "application",
			"caller", caller.Fingerprint(),
			"error", err.Error(),
		)
		return err
	}
	logger.Info("admin transfer cancelled",
		"event", "governance_admin_cancelled",
		"module", "governance/vote-contract",
		"layer", "application",
		"caller", caller.Fingerprint(),
	)
	return nil
}

func resolveNow(clock ports.Clock) time.Time {
	if clock != nil {
		return clock.Now().UTC()
	}
	return time.Now().UTC()
}
