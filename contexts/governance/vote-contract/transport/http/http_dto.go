package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AccountDTO carries either an external account (kind "external", identity is
// the hex public key) or a contract account (kind "contract", identity is the
// hex contract id).
type AccountDTO struct {
	Kind     string `json:"kind"`
	Identity string `json:"identity"`
}

type InitRequest struct {
	Admin         AccountDTO `json:"admin"`
	TokenContract string     `json:"token_contract"`
}

type ProposeAdminRequest struct {
	Candidate AccountDTO `json:"candidate"`
}

type PendingAdminResponse struct {
	Pending bool        `json:"pending"`
	Account *AccountDTO `json:"account,omitempty"`
}

type IsAdminResponse struct {
	IsAdmin bool `json:"is_admin"`
}

type AddProposalRequest struct {
	Description string `json:"description"`
}

type AddProposalResponse struct {
	ProposalID uint32 `json:"proposal_id"`
}

type ProposalResponse struct {
	ID          uint32 `json:"id"`
	Description string `json:"description"`
	YesVotes    uint64 `json:"yes_votes"`
	NoVotes     uint64 `json:"no_votes"`
	Active      bool   `json:"active"`
}

type ProposalListResponse struct {
	Items []ProposalResponse `json:"items"`
}

type ProposalCountResponse struct {
	Count uint32 `json:"count"`
}

type VoteRequest struct {
	VoteYes bool `json:"vote_yes"`
}

type VoteResponse struct {
	ProposalID uint32 `json:"proposal_id"`
	VoteYes    bool   `json:"vote_yes"`
	Weight     uint64 `json:"weight"`
}

type VoteStatusResponse struct {
	ProposalID uint32 `json:"proposal_id"`
	Voted      bool   `json:"voted"`
	Weight     uint64 `json:"weight"`
}

type TokenContractResponse struct {
	TokenContract string `json:"token_contract"`
}

type BalanceResponse struct {
	PublicKey string `json:"public_key"`
	Balance   uint64 `json:"balance"`
}
