package errors

import "errors"

var (
	ErrNotInitialized     = errors.New("governance state is not initialized")
	ErrAlreadyInitialized = errors.New("governance state is already initialized")

	ErrNotAdmin          = errors.New("caller is not admin")
	ErrCannotProposeSelf = errors.New("cannot propose self as new admin")
	ErrNotPendingAdmin   = errors.New("caller is not pending admin")
	ErrNoPendingTransfer = errors.New("no pending admin transfer")

	ErrMaxProposalsReached = errors.New("maximum proposals reached")
	ErrDescriptionTooLong  = errors.New("description too long")
	ErrProposalNotFound    = errors.New("proposal not found")

	ErrContractsCannotVote = errors.New("contracts cannot vote")
	ErrNoVotingPower       = errors.New("no tokens to vote with")
	ErrProposalNotActive   = errors.New("proposal is not active")
	ErrAlreadyVoted        = errors.New("already voted on this proposal")

	ErrCallerUnavailable = errors.New("caller identity unavailable")

	// ErrConflict covers infrastructure-level collisions (outbox rows,
	// unique-key races) that have no spec-level precondition of their own.
	ErrConflict = errors.New("governance storage conflict")
)
