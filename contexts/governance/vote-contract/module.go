package votecontract

import (
	"log/slog"

	httpadapter "gavel/contexts/governance/vote-contract/adapters/http"
	"gavel/contexts/governance/vote-contract/adapters/memory"
	"gavel/contexts/governance/vote-contract/application/commands"
	"gavel/contexts/governance/vote-contract/application/queries"
	"gavel/contexts/governance/vote-contract/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
	Ledger  *memory.TokenLedger
}

type Dependencies struct {
	State  ports.StateStore
	Caller ports.CallerResolver
	Oracle ports.BalanceOracle
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func NewModule(deps Dependencies) Module {
	adminUseCase := commands.AdminUseCase{
		State:  deps.State,
		Caller: deps.Caller,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	proposalUseCase := commands.ProposalUseCase{
		State:  deps.State,
		Caller: deps.Caller,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		State:  deps.State,
		Caller: deps.Caller,
		Oracle: deps.Oracle,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	governanceQueries := queries.GovernanceQueries{
		State:  deps.State,
		Caller: deps.Caller,
		Oracle: deps.Oracle,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Admin:     adminUseCase,
			Proposals: proposalUseCase,
			Votes:     voteUseCase,
			Queries:   governanceQueries,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires the module against the in-process state store and
// a map-backed token ledger. The store itself acts as caller session, clock
// and id generator, and keeps the staged events it is handed.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	ledger := memory.NewTokenLedger()
	module := NewModule(Dependencies{
		State:  store,
		Caller: store,
		Oracle: ledger,
		Clock:  store,
		IDGen:  store,
		Logger: logger,
	})
	module.Store = store
	module.Ledger = ledger
	return module
}
