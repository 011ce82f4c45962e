package entities

import "math"

const (
	// MaxProposals caps the registry size for the contract lifetime.
	MaxProposals = 100
	// MaxDescriptionLen bounds proposal descriptions, in bytes.
	MaxDescriptionLen = 256
)

// Proposal is a votable item. Ids are assigned sequentially from 0 and never
// reused; tallies only grow (saturating) and Active only transitions
// true -> false.
type Proposal struct {
	ID          uint32
	Description string
	YesVotes    uint64
	NoVotes     uint64
	Active      bool
}

// VoteRecord is one immutable vote-ledger entry: the weight an account cast
// on a proposal at the moment of voting.
type VoteRecord struct {
	ProposalID uint32
	Account    Account
	Weight     uint64
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
