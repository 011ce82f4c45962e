package entities

import (
	"errors"
	"fmt"
	"math"
	"testing"

	domainerrors "gavel/contexts/governance/vote-contract/domain/errors"
)

func testToken() ContractID {
	var id ContractID
	id[0] = 0xaa
	return id
}

func initializedState(t *testing.T, admin Account) *ContractState {
	t.Helper()
	state := NewContractState()
	if err := state.Init(admin, testToken()); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	return state
}

func TestInitExactlyOnce(t *testing.T) {
	admin := externalWithPrefix(0x01)
	state := NewContractState()

	if err := state.Init(admin, testToken()); err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	err := state.Init(externalWithPrefix(0x02), testToken())
	if !errors.Is(err, domainerrors.ErrAlreadyInitialized) {
		t.Fatalf("expected ErrAlreadyInitialized, got %v", err)
	}
	if !state.Admin().Equal(admin) {
		t.Fatalf("second init must not change the admin")
	}
}

func TestOperationsBeforeInit(t *testing.T) {
	state := NewContractState()
	caller := externalWithPrefix(0x01)

	if _, err := state.AddProposal(caller, "d"); !errors.Is(err, domainerrors.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized for add proposal, got %v", err)
	}
	if err := state.CastVote(caller, 0, true, 10); !errors.Is(err, domainerrors.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized for vote, got %v", err)
	}
	if err := state.ProposeAdmin(caller, externalWithPrefix(0x02)); !errors.Is(err, domainerrors.ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized for propose admin, got %v", err)
	}
}

func TestAdminTransferLifecycle(t *testing.T) {
	admin := externalWithPrefix(0x01)
	successor := externalWithPrefix(0x02)
	state := initializedState(t, admin)

	if err := state.ProposeAdmin(successor, successor); !errors.Is(err, domainerrors.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if err := state.ProposeAdmin(admin, admin); !errors.Is(err, domainerrors.ErrCannotProposeSelf) {
		t.Fatalf("expected ErrCannotProposeSelf, got %v", err)
	}
	if err := state.AcceptAdmin(successor); !errors.Is(err, domainerrors.ErrNoPendingTransfer) {
		t.Fatalf("expected ErrNoPendingTransfer before any proposal, got %v", err)
	}

	if err := state.ProposeAdmin(admin, successor); err != nil {
		t.Fatalf("propose admin failed: %v", err)
	}
	pending, ok := state.PendingAdmin()
	if !ok || !pending.Equal(successor) {
		t.Fatalf("expected pending admin to be the proposed successor")
	}

	// A later proposal overwrites the pending one.
	other := externalWithPrefix(0x03)
	if err := state.ProposeAdmin(admin, other); err != nil {
		t.Fatalf("second propose failed: %v", err)
	}
	if err := state.AcceptAdmin(successor); !errors.Is(err, domainerrors.ErrNotPendingAdmin) {
		t.Fatalf("expected ErrNotPendingAdmin for superseded successor, got %v", err)
	}
	if !state.Admin().Equal(admin) {
		t.Fatalf("rejected accept must not change the admin")
	}

	if err := state.AcceptAdmin(other); err != nil {
		t.Fatalf("accept failed: %v", err)
	}
	if !state.Admin().Equal(other) {
		t.Fatalf("expected accepted account to become admin")
	}
	if _, ok := state.PendingAdmin(); ok {
		t.Fatalf("expected pending transfer to clear after accept")
	}

	// Old admin lost its powers with the handover.
	if _, err := state.AddProposal(admin, "late"); !errors.Is(err, domainerrors.ErrNotAdmin) {
		t.Fatalf("expected demoted admin to be rejected, got %v", err)
	}
}

func TestCancelAdminProposal(t *testing.T) {
	admin := externalWithPrefix(0x01)
	successor := externalWithPrefix(0x02)
	state := initializedState(t, admin)

	if err := state.CancelAdminProposal(admin); !errors.Is(err, domainerrors.ErrNoPendingTransfer) {
		t.Fatalf("expected ErrNoPendingTransfer with nothing pending, got %v", err)
	}
	if err := state.ProposeAdmin(admin, successor); err != nil {
		t.Fatalf("propose failed: %v", err)
	}
	if err := state.CancelAdminProposal(successor); !errors.Is(err, domainerrors.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin for non-admin cancel, got %v", err)
	}
	if err := state.CancelAdminProposal(admin); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if err := state.AcceptAdmin(successor); !errors.Is(err, domainerrors.ErrNoPendingTransfer) {
		t.Fatalf("expected cancelled transfer to be unacceptable, got %v", err)
	}
}

func TestAddProposalAssignsSequentialIDs(t *testing.T) {
	admin := externalWithPrefix(0x01)
	state := initializedState(t, admin)

	for want := uint32(0); want < 3; want++ {
		id, err := state.AddProposal(admin, fmt.Sprintf("proposal %d", want))
		if err != nil {
			t.Fatalf("add proposal failed: %v", err)
		}
		if id != want {
			t.Fatalf("expected id %d, got %d", want, id)
		}
	}
	if state.ProposalCount() != 3 {
		t.Fatalf("expected 3 proposals, got %d", state.ProposalCount())
	}
	proposal, ok := state.Proposal(1)
	if !ok {
		t.Fatalf("expected proposal 1 to exist")
	}
	if !proposal.Active || proposal.YesVotes != 0 || proposal.NoVotes != 0 {
		t.Fatalf("new proposal must start active with zero tallies: %+v", proposal)
	}
}

func TestAddProposalRegistryCap(t *testing.T) {
	admin := externalWithPrefix(0x01)
	state := initializedState(t, admin)

	for i := 0; i < MaxProposals; i++ {
		if _, err := state.AddProposal(admin, "p"); err != nil {
			t.Fatalf("add proposal %d failed: %v", i, err)
		}
	}
	_, err := state.AddProposal(admin, "overflow")
	if !errors.Is(err, domainerrors.ErrMaxProposalsReached) {
		t.Fatalf("expected ErrMaxProposalsReached, got %v", err)
	}
	if state.ProposalCount() != MaxProposals {
		t.Fatalf("rejected proposal must not change the count")
	}

	// Closing proposals frees no capacity; the cap is lifetime.
	if err := state.CloseProposal(admin, 0); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := state.AddProposal(admin, "still full"); !errors.Is(err, domainerrors.ErrMaxProposalsReached) {
		t.Fatalf("expected cap to hold after close, got %v", err)
	}
}

func TestAddProposalDescriptionLimit(t *testing.T) {
	admin := externalWithPrefix(0x01)
	state := initializedState(t, admin)

	exact := make([]byte, MaxDescriptionLen)
	for i := range exact {
		exact[i] = 'a'
	}
	if _, err := state.AddProposal(admin, string(exact)); err != nil {
		t.Fatalf("expected description of exactly %d bytes to pass: %v", MaxDescriptionLen, err)
	}
	_, err := state.AddProposal(admin, string(exact)+"b")
	if !errors.Is(err, domainerrors.ErrDescriptionTooLong) {
		t.Fatalf("expected ErrDescriptionTooLong, got %v", err)
	}
}

func TestCloseProposalIdempotent(t *testing.T) {
	admin := externalWithPrefix(0x01)
	state := initializedState(t, admin)
	id, err := state.AddProposal(admin, "close me")
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	if err := state.CloseProposal(admin, id); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := state.CloseProposal(admin, id); err != nil {
		t.Fatalf("second close must succeed, got %v", err)
	}
	proposal, _ := state.Proposal(id)
	if proposal.Active {
		t.Fatalf("expected proposal to stay closed")
	}

	if err := state.CloseProposal(externalWithPrefix(0x02), id); !errors.Is(err, domainerrors.ErrNotAdmin) {
		t.Fatalf("expected ErrNotAdmin, got %v", err)
	}
	if err := state.CloseProposal(admin, 99); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}
}

func TestCastVoteChecksInOrder(t *testing.T) {
	admin := externalWithPrefix(0x01)
	voter := externalWithPrefix(0x02)
	state := initializedState(t, admin)
	id, err := state.AddProposal(admin, "vote here")
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	// Contract callers are rejected before any other check.
	contract := contractWithPrefix(0x09)
	if err := state.CastVote(contract, 99, true, 10); !errors.Is(err, domainerrors.ErrContractsCannotVote) {
		t.Fatalf("expected ErrContractsCannotVote, got %v", err)
	}

	// Zero weight is rejected before the proposal lookup.
	if err := state.CastVote(voter, 99, true, 0); !errors.Is(err, domainerrors.ErrNoVotingPower) {
		t.Fatalf("expected ErrNoVotingPower, got %v", err)
	}

	if err := state.CastVote(voter, 99, true, 10); !errors.Is(err, domainerrors.ErrProposalNotFound) {
		t.Fatalf("expected ErrProposalNotFound, got %v", err)
	}

	if err := state.CastVote(voter, id, true, 10); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if err := state.CastVote(voter, id, false, 25); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	proposal, _ := state.Proposal(id)
	if proposal.YesVotes != 10 || proposal.NoVotes != 0 {
		t.Fatalf("rejected re-vote must not change tallies: %+v", proposal)
	}
	if got := state.VoteWeight(id, voter); got != 10 {
		t.Fatalf("expected recorded weight 10, got %d", got)
	}

	if err := state.CloseProposal(admin, id); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	other := externalWithPrefix(0x03)
	if err := state.CastVote(other, id, true, 5); !errors.Is(err, domainerrors.ErrProposalNotActive) {
		t.Fatalf("expected ErrProposalNotActive, got %v", err)
	}
	if state.HasVoted(id, other) {
		t.Fatalf("rejected vote must not appear in the ledger")
	}
}

func TestCastVoteSaturatingTally(t *testing.T) {
	admin := externalWithPrefix(0x01)
	state := initializedState(t, admin)
	id, err := state.AddProposal(admin, "whales")
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	if err := state.CastVote(externalWithPrefix(0x02), id, true, math.MaxUint64); err != nil {
		t.Fatalf("first vote failed: %v", err)
	}
	if err := state.CastVote(externalWithPrefix(0x03), id, true, math.MaxUint64); err != nil {
		t.Fatalf("second vote failed: %v", err)
	}

	proposal, _ := state.Proposal(id)
	if proposal.YesVotes != math.MaxUint64 {
		t.Fatalf("expected yes tally to saturate at MaxUint64, got %d", proposal.YesVotes)
	}
	// Individual weights survive the clamp.
	if got := state.VoteWeight(id, externalWithPrefix(0x03)); got != math.MaxUint64 {
		t.Fatalf("expected full recorded weight, got %d", got)
	}
}

func TestVoteRecordsDeterministicOrder(t *testing.T) {
	admin := externalWithPrefix(0x01)
	state := initializedState(t, admin)
	id, err := state.AddProposal(admin, "ordering")
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}

	// Insert in reverse order; enumeration must come back sorted.
	for _, b := range []byte{0x30, 0x20, 0x10} {
		if err := state.CastVote(externalWithPrefix(b), id, true, uint64(b)); err != nil {
			t.Fatalf("vote failed: %v", err)
		}
	}
	records := state.VoteRecords()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].Account.Compare(records[i].Account) >= 0 {
			t.Fatalf("expected records in account order")
		}
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	admin := externalWithPrefix(0x01)
	successor := externalWithPrefix(0x04)
	state := initializedState(t, admin)
	id, err := state.AddProposal(admin, "persist me")
	if err != nil {
		t.Fatalf("add proposal failed: %v", err)
	}
	if err := state.CastVote(externalWithPrefix(0x02), id, true, 7); err != nil {
		t.Fatalf("vote failed: %v", err)
	}
	if err := state.ProposeAdmin(admin, successor); err != nil {
		t.Fatalf("propose failed: %v", err)
	}

	restored := RestoreContractState(state.Snapshot())
	if !restored.Admin().Equal(admin) {
		t.Fatalf("restored admin mismatch")
	}
	pending, ok := restored.PendingAdmin()
	if !ok || !pending.Equal(successor) {
		t.Fatalf("restored pending admin mismatch")
	}
	if restored.TokenContract() != testToken() {
		t.Fatalf("restored token contract mismatch")
	}
	if got := restored.VoteWeight(id, externalWithPrefix(0x02)); got != 7 {
		t.Fatalf("restored vote weight mismatch: %d", got)
	}
	// Sequential ids continue where the snapshot left off.
	next, err := restored.AddProposal(admin, "after restore")
	if err != nil {
		t.Fatalf("add after restore failed: %v", err)
	}
	if next != id+1 {
		t.Fatalf("expected next id %d, got %d", id+1, next)
	}
}

func TestSaturatingAdd(t *testing.T) {
	if got := saturatingAdd(1, 2); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := saturatingAdd(math.MaxUint64, 1); got != math.MaxUint64 {
		t.Fatalf("expected clamp at MaxUint64, got %d", got)
	}
	if got := saturatingAdd(math.MaxUint64-1, 1); got != math.MaxUint64 {
		t.Fatalf("expected exact MaxUint64, got %d", got)
	}
}
