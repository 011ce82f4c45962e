package entities

import (
	"sort"

	domainerrors "gavel/contexts/governance/vote-contract/domain/errors"
)

// ContractState is the governance state machine: admin custody, the proposal
// registry, and the vote ledger. It is pure bookkeeping — callers and vote
// weights are resolved by the application layer and passed in. Every mutating
// method checks all of its preconditions before touching state, so a rejected
// call leaves the state exactly as it was.
//
// ContractState is not safe for concurrent use; the owning StateStore
// serializes access.
type ContractState struct {
	initialized    bool
	admin          Account
	pendingAdmin   *Account
	tokenContract  ContractID
	proposals      []Proposal
	votes          map[uint32]map[Account]uint64
	nextProposalID uint32
}

func NewContractState() *ContractState {
	return &ContractState{
		votes: make(map[uint32]map[Account]uint64),
	}
}

// Init accepts the admin and token-ledger collaborator exactly once. Every
// other operation rejects with ErrNotInitialized until Init has succeeded.
func (s *ContractState) Init(admin Account, tokenContract ContractID) error {
	if s.initialized {
		return domainerrors.ErrAlreadyInitialized
	}
	s.initialized = true
	s.admin = admin
	s.tokenContract = tokenContract
	s.pendingAdmin = nil
	s.nextProposalID = 0
	return nil
}

func (s *ContractState) Initialized() bool {
	return s.initialized
}

func (s *ContractState) requireInit() error {
	if !s.initialized {
		return domainerrors.ErrNotInitialized
	}
	return nil
}

// ProposeAdmin nominates a new admin. A previous nomination is overwritten,
// not queued.
func (s *ContractState) ProposeAdmin(caller, newAdmin Account) error {
	if err := s.requireInit(); err != nil {
		return err
	}
	if !caller.Equal(s.admin) {
		return domainerrors.ErrNotAdmin
	}
	if newAdmin.Equal(s.admin) {
		return domainerrors.ErrCannotProposeSelf
	}
	pending := newAdmin
	s.pendingAdmin = &pending
	return nil
}

// AcceptAdmin completes the two-step transfer; only the nominated account may
// call it.
func (s *ContractState) AcceptAdmin(caller Account) error {
	if err := s.requireInit(); err != nil {
		return err
	}
	if s.pendingAdmin == nil {
		return domainerrors.ErrNoPendingTransfer
	}
	if !caller.Equal(*s.pendingAdmin) {
		return domainerrors.ErrNotPendingAdmin
	}
	s.admin = caller
	s.pendingAdmin = nil
	return nil
}

func (s *ContractState) CancelAdminProposal(caller Account) error {
	if err := s.requireInit(); err != nil {
		return err
	}
	if !caller.Equal(s.admin) {
		return domainerrors.ErrNotAdmin
	}
	if s.pendingAdmin == nil {
		return domainerrors.ErrNoPendingTransfer
	}
	s.pendingAdmin = nil
	return nil
}

func (s *ContractState) PendingAdmin() (Account, bool) {
	if s.pendingAdmin == nil {
		return Account{}, false
	}
	return *s.pendingAdmin, true
}

// AddProposal appends a proposal with the next sequential id and an empty
// vote map, and returns the id.
func (s *ContractState) AddProposal(caller Account, description string) (uint32, error) {
	if err := s.requireInit(); err != nil {
		return 0, err
	}
	if !caller.Equal(s.admin) {
		return 0, domainerrors.ErrNotAdmin
	}
	if len(s.proposals) >= MaxProposals {
		return 0, domainerrors.ErrMaxProposalsReached
	}
	if len(description) > MaxDescriptionLen {
		return 0, domainerrors.ErrDescriptionTooLong
	}

	id := s.nextProposalID
	s.nextProposalID++
	s.proposals = append(s.proposals, Proposal{
		ID:          id,
		Description: description,
		Active:      true,
	})
	s.votes[id] = make(map[Account]uint64)
	return id, nil
}

// CloseProposal deactivates a proposal. Closing an already-closed proposal
// succeeds silently; the transition is one-way.
func (s *ContractState) CloseProposal(caller Account, proposalID uint32) error {
	if err := s.requireInit(); err != nil {
		return err
	}
	if !caller.Equal(s.admin) {
		return domainerrors.ErrNotAdmin
	}
	idx := s.proposalIndex(proposalID)
	if idx < 0 {
		return domainerrors.ErrProposalNotFound
	}
	s.proposals[idx].Active = false
	return nil
}

// CastVote records caller's vote with the supplied weight and accumulates the
// tally with saturating addition. The checks run in the contract's canonical
// order (contract caller, weight, existence, activity, double vote) and all
// must pass before anything is written.
func (s *ContractState) CastVote(caller Account, proposalID uint32, voteYes bool, weight uint64) error {
	if err := s.requireInit(); err != nil {
		return err
	}
	if caller.Kind() == AccountKindContract {
		return domainerrors.ErrContractsCannotVote
	}
	if weight == 0 {
		return domainerrors.ErrNoVotingPower
	}
	idx := s.proposalIndex(proposalID)
	if idx < 0 {
		return domainerrors.ErrProposalNotFound
	}
	if !s.proposals[idx].Active {
		return domainerrors.ErrProposalNotActive
	}
	ledger, ok := s.votes[proposalID]
	if !ok {
		return domainerrors.ErrProposalNotFound
	}
	if _, voted := ledger[caller]; voted {
		return domainerrors.ErrAlreadyVoted
	}

	ledger[caller] = weight
	if voteYes {
		s.proposals[idx].YesVotes = saturatingAdd(s.proposals[idx].YesVotes, weight)
	} else {
		s.proposals[idx].NoVotes = saturatingAdd(s.proposals[idx].NoVotes, weight)
	}
	return nil
}

func (s *ContractState) proposalIndex(proposalID uint32) int {
	for i := range s.proposals {
		if s.proposals[i].ID == proposalID {
			return i
		}
	}
	return -1
}

// Proposal returns a proposal by id; absence is not an error.
func (s *ContractState) Proposal(proposalID uint32) (Proposal, bool) {
	idx := s.proposalIndex(proposalID)
	if idx < 0 {
		return Proposal{}, false
	}
	return s.proposals[idx], true
}

// Proposals returns all proposals in creation order.
func (s *ContractState) Proposals() []Proposal {
	out := make([]Proposal, len(s.proposals))
	copy(out, s.proposals)
	return out
}

func (s *ContractState) ProposalCount() uint32 {
	return uint32(len(s.proposals))
}

func (s *ContractState) HasVoted(proposalID uint32, account Account) bool {
	ledger, ok := s.votes[proposalID]
	if !ok {
		return false
	}
	_, voted := ledger[account]
	return voted
}

// VoteWeight returns the recorded weight, or 0 when the proposal or the
// account's entry is absent.
func (s *ContractState) VoteWeight(proposalID uint32, account Account) uint64 {
	ledger, ok := s.votes[proposalID]
	if !ok {
		return 0
	}
	return ledger[account]
}

func (s *ContractState) Admin() Account {
	return s.admin
}

func (s *ContractState) IsAdmin(account Account) bool {
	return s.initialized && account.Equal(s.admin)
}

func (s *ContractState) TokenContract() ContractID {
	return s.tokenContract
}

// VoteRecords enumerates the vote ledger deterministically: ascending
// proposal id, then the Account total order within each proposal.
func (s *ContractState) VoteRecords() []VoteRecord {
	records := make([]VoteRecord, 0)
	for _, proposal := range s.proposals {
		ledger := s.votes[proposal.ID]
		accounts := make([]Account, 0, len(ledger))
		for account := range ledger {
			accounts = append(accounts, account)
		}
		sort.Slice(accounts, func(i, j int) bool {
			return accounts[i].Compare(accounts[j]) < 0
		})
		for _, account := range accounts {
			records = append(records, VoteRecord{
				ProposalID: proposal.ID,
				Account:    account,
				Weight:     ledger[account],
			})
		}
	}
	return records
}

// Snapshot exports the full state for persistence adapters.
type Snapshot struct {
	Initialized    bool
	Admin          Account
	PendingAdmin   *Account
	TokenContract  ContractID
	Proposals      []Proposal
	Votes          []VoteRecord
	NextProposalID uint32
}

func (s *ContractState) Snapshot() Snapshot {
	snap := Snapshot{
		Initialized:    s.initialized,
		Admin:          s.admin,
		TokenContract:  s.tokenContract,
		Proposals:      s.Proposals(),
		Votes:          s.VoteRecords(),
		NextProposalID: s.nextProposalID,
	}
	if s.pendingAdmin != nil {
		pending := *s.pendingAdmin
		snap.PendingAdmin = &pending
	}
	return snap
}

// RestoreContractState rebuilds a state machine from a persisted snapshot.
// Vote rows for unknown proposals are dropped; proposals always get a ledger
// map even when empty.
func RestoreContractState(snap Snapshot) *ContractState {
	state := &ContractState{
		initialized:    snap.Initialized,
		admin:          snap.Admin,
		tokenContract:  snap.TokenContract,
		proposals:      make([]Proposal, len(snap.Proposals)),
		votes:          make(map[uint32]map[Account]uint64, len(snap.Proposals)),
		nextProposalID: snap.NextProposalID,
	}
	copy(state.proposals, snap.Proposals)
	if snap.PendingAdmin != nil {
		pending := *snap.PendingAdmin
		state.pendingAdmin = &pending
	}
	for _, proposal := range snap.Proposals {
		state.votes[proposal.ID] = make(map[Account]uint64)
	}
	for _, record := range snap.Votes {
		ledger, ok := state.votes[record.ProposalID]
		if !ok {
			continue
		}
		ledger[record.Account] = record.Weight
	}
	return state
}
