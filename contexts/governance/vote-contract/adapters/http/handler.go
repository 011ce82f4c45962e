package httpadapter

import (
	"context"
	"log/slog"

	"gavel/contexts/governance/vote-contract/application/commands"
	"gavel/contexts/governance/vote-contract/application/queries"
	"gavel/contexts/governance/vote-contract/domain/entities"
	httptransport "gavel/contexts/governance/vote-contract/transport/http"
)

type Handler struct {
	Admin     commands.AdminUseCase
	Proposals commands.ProposalUseCase
	Votes     commands.VoteUseCase
	Queries   queries.GovernanceQueries
	Logger    *slog.Logger
}

func (h Handler) InitHandler(ctx context.Context, req httptransport.InitRequest) error {
	admin, err := accountFromDTO(req.Admin)
	if err != nil {
		return err
	}
	token, err := entities.ParseContractID(req.TokenContract)
	if err != nil {
		return err
	}
	return h.Admin.Init(ctx, commands.InitCommand{
		Admin:         admin,
		TokenContract: token,
	})
}

func (h Handler) ProposeAdminHandler(ctx context.Context, req httptransport.ProposeAdminRequest) error {
	candidate, err := accountFromDTO(req.Candidate)
	if err != nil {
		return err
	}
	return h.Admin.ProposeAdmin(ctx, candidate)
}

func (h Handler) AcceptAdminHandler(ctx context.Context) error {
	return h.Admin.AcceptAdmin(ctx)
}

func (h Handler) CancelAdminProposalHandler(ctx context.Context) error {
	return h.Admin.CancelAdminProposal(ctx)
}

func (h Handler) AdminHandler(ctx context.Context) (httptransport.AccountDTO, error) {
	admin, err := h.Queries.Admin(ctx)
	if err != nil {
		return httptransport.AccountDTO{}, err
	}
	return accountToDTO(admin), nil
}

func (h Handler) PendingAdminHandler(ctx context.Context) (httptransport.PendingAdminResponse, error) {
	pending, ok, err := h.Queries.PendingAdmin(ctx)
	if err != nil {
		return httptransport.PendingAdminResponse{}, err
	}
	if !ok {
		return httptransport.PendingAdminResponse{}, nil
	}
	account := accountToDTO(pending)
	return httptransport.PendingAdminResponse{
		Pending: true,
		Account: &account,
	}, nil
}

func (h Handler) IsAdminHandler(ctx context.Context) (httptransport.IsAdminResponse, error) {
	isAdmin, err := h.Queries.IsAdmin(ctx)
	if err != nil {
		return httptransport.IsAdminResponse{}, err
	}
	return httptransport.IsAdminResponse{IsAdmin: isAdmin}, nil
}

func (h Handler) AddProposalHandler(ctx context.Context, req httptransport.AddProposalRequest) (httptransport.AddProposalResponse, error) {
	id, err := h.Proposals.AddProposal(ctx, req.Description)
	if err != nil {
		return httptransport.AddProposalResponse{}, err
	}
	return httptransport.AddProposalResponse{ProposalID: id}, nil
}

func (h Handler) CloseProposalHandler(ctx context.Context, proposalID uint32) error {
	return h.Proposals.CloseProposal(ctx, proposalID)
}

func (h Handler) VoteHandler(ctx context.Context, proposalID uint32, req httptransport.VoteRequest) (httptransport.VoteResponse, error) {
	result, err := h.Votes.Vote(ctx, proposalID, req.VoteYes)
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		ProposalID: result.ProposalID,
		VoteYes:    result.VoteYes,
		Weight:     result.Weight,
	}, nil
}

func (h Handler) GetProposalHandler(ctx context.Context, proposalID uint32) (httptransport.ProposalResponse, bool, error) {
	proposal, found, err := h.Queries.Proposal(ctx, proposalID)
	if err != nil || !found {
		return httptransport.ProposalResponse{}, found, err
	}
	return proposalToDTO(proposal), true, nil
}

func (h Handler) ListProposalsHandler(ctx context.Context) (httptransport.ProposalListResponse, error) {
	proposals, err := h.Queries.Proposals(ctx)
	if err != nil {
		return httptransport.ProposalListResponse{}, err
	}
	items := make([]httptransport.ProposalResponse, 0, len(proposals))
	for _, proposal := range proposals {
		items = append(items, proposalToDTO(proposal))
	}
	return httptransport.ProposalListResponse{Items: items}, nil
}

func (h Handler) ProposalCountHandler(ctx context.Context) (httptransport.ProposalCountResponse, error) {
	count, err := h.Queries.ProposalCount(ctx)
	if err != nil {
		return httptransport.ProposalCountResponse{}, err
	}
	return httptransport.ProposalCountResponse{Count: count}, nil
}

// MyVoteHandler answers has_voted/get_vote_weight for the calling account.
func (h Handler) MyVoteHandler(ctx context.Context, proposalID uint32) (httptransport.VoteStatusResponse, error) {
	voted, err := h.Queries.HasVoted(ctx, proposalID)
	if err != nil {
		return httptransport.VoteStatusResponse{}, err
	}
	weight, err := h.Queries.VoteWeight(ctx, proposalID)
	if err != nil {
		return httptransport.VoteStatusResponse{}, err
	}
	return httptransport.VoteStatusResponse{
		ProposalID: proposalID,
		Voted:      voted,
		Weight:     weight,
	}, nil
}

// AccountVoteHandler answers has_account_voted/get_account_vote_weight for an
// external account key.
func (h Handler) AccountVoteHandler(ctx context.Context, proposalID uint32, keyHex string) (httptransport.VoteStatusResponse, error) {
	key, err := entities.ParsePublicKey(keyHex)
	if err != nil {
		return httptransport.VoteStatusResponse{}, err
	}
	account := entities.NewExternalAccount(key)
	voted, err := h.Queries.HasAccountVoted(ctx, account, proposalID)
	if err != nil {
		return httptransport.VoteStatusResponse{}, err
	}
	weight, err := h.Queries.AccountVoteWeight(ctx, account, proposalID)
	if err != nil {
		return httptransport.VoteStatusResponse{}, err
	}
	return httptransport.VoteStatusResponse{
		ProposalID: proposalID,
		Voted:      voted,
		Weight:     weight,
	}, nil
}

func (h Handler) TokenContractHandler(ctx context.Context) (httptransport.TokenContractResponse, error) {
	token, err := h.Queries.TokenContract(ctx)
	if err != nil {
		return httptransport.TokenContractResponse{}, err
	}
	return httptransport.TokenContractResponse{TokenContract: token.Hex()}, nil
}

func (h Handler) BalanceHandler(ctx context.Context, keyHex string) (httptransport.BalanceResponse, error) {
	key, err := entities.ParsePublicKey(keyHex)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	balance, err := h.Queries.Balance(ctx, key)
	if err != nil {
		return httptransport.BalanceResponse{}, err
	}
	return httptransport.BalanceResponse{
		PublicKey: key.Hex(),
		Balance:   balance,
	}, nil
}

func accountFromDTO(dto httptransport.AccountDTO) (entities.Account, error) {
	if dto.Kind == entities.AccountKindContract.String() {
		id, err := entities.ParseContractID(dto.Identity)
		if err != nil {
			return entities.Account{}, err
		}
		return entities.NewContractAccount(id), nil
	}
	key, err := entities.ParsePublicKey(dto.Identity)
	if err != nil {
		return entities.Account{}, err
	}
	return entities.NewExternalAccount(key), nil
}

func accountToDTO(account entities.Account) httptransport.AccountDTO {
	return httptransport.AccountDTO{
		Kind:     account.Kind().String(),
		Identity: account.IdentityHex(),
	}
}

func proposalToDTO(proposal entities.Proposal) httptransport.ProposalResponse {
	return httptransport.ProposalResponse{
		ID:          proposal.ID,
		Description: proposal.Description,
		YesVotes:    proposal.YesVotes,
		NoVotes:     proposal.NoVotes,
		Active:      proposal.Active,
	}
}
