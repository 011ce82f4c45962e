package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	votecontract "gavel/contexts/governance/vote-contract"
	httpadapter "gavel/contexts/governance/vote-contract/adapters/http"
	"gavel/contexts/governance/vote-contract/domain/entities"
	domainerrors "gavel/contexts/governance/vote-contract/domain/errors"
	governancehttp "gavel/contexts/governance/vote-contract/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "gavel/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	governance votecontract.Module
}

func New(governance votecontract.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		governance: governance,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the routing table for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /governance/init", s.handleInit)

	s.mux.HandleFunc("POST /governance/admin/propose", s.handleProposeAdmin)
	s.mux.HandleFunc("POST /governance/admin/accept", s.handleAcceptAdmin)
	s.mux.HandleFunc("POST /governance/admin/cancel", s.handleCancelAdminProposal)
	s.mux.HandleFunc("GET /governance/admin", s.handleAdmin)
	s.mux.HandleFunc("GET /governance/admin/pending", s.handlePendingAdmin)
	s.mux.HandleFunc("GET /governance/admin/me", s.handleIsAdmin)

	s.mux.HandleFunc("POST /governance/proposals", s.handleAddProposal)
	s.mux.HandleFunc("GET /governance/proposals", s.handleListProposals)
	s.mux.HandleFunc("GET /governance/proposals/count", s.handleProposalCount)
	s.mux.HandleFunc("GET /governance/proposals/{proposal_id}", s.handleGetProposal)
	s.mux.HandleFunc("POST /governance/proposals/{proposal_id}/close", s.handleCloseProposal)
	s.mux.HandleFunc("POST /governance/proposals/{proposal_id}/votes", s.handleVote)
	s.mux.HandleFunc("GET /governance/proposals/{proposal_id}/votes/me", s.handleMyVote)
	s.mux.HandleFunc("GET /governance/proposals/{proposal_id}/votes/{public_key}", s.handleAccountVote)

	s.mux.HandleFunc("GET /governance/token", s.handleTokenContract)
	s.mux.HandleFunc("GET /governance/balances/{public_key}", s.handleBalance)
}

// callerContext resolves the caller identity from the request per the host
// contract: an inter-contract call carries X-Caller-Contract (depth > 1) and
// wins over X-Public-Key; a direct call carries X-Public-Key. Neither header
// leaves the context without a caller, which mutating operations reject.
func (s *Server) callerContext(w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	if raw := strings.TrimSpace(r.Header.Get("X-Caller-Contract")); raw != "" {
		id, err := entities.ParseContractID(raw)
		if err != nil {
			writeGovernanceError(w, http.StatusBadRequest, "invalid_caller_contract", "X-Caller-Contract must be a 32-byte hex id")
			return r, false
		}
		ctx := httpadapter.WithCaller(r.Context(), entities.NewContractAccount(id))
		return r.WithContext(ctx), true
	}
	if raw := strings.TrimSpace(r.Header.Get("X-Public-Key")); raw != "" {
		key, err := entities.ParsePublicKey(raw)
		if err != nil {
			writeGovernanceError(w, http.StatusBadRequest, "invalid_public_key", "X-Public-Key must be a 96-byte hex key")
			return r, false
		}
		ctx := httpadapter.WithCaller(r.Context(), entities.NewExternalAccount(key))
		return r.WithContext(ctx), true
	}
	return r, true
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	var req governancehttp.InitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.governance.Handler.InitHandler(r.Context(), req); err != nil {
		if !isGovernanceDomainError(err) {
			writeGovernanceError(w, http.StatusBadRequest, "invalid_account", err.Error())
			return
		}
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "initialized"})
}

func (s *Server) handleProposeAdmin(w http.ResponseWriter, r *http.Request) {
	r, ok := s.callerContext(w, r)
	if !ok {
		return
	}
	var req governancehttp.ProposeAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.governance.Handler.ProposeAdminHandler(r.Context(), req); err != nil {
		if !isGovernanceDomainError(err) {
			writeGovernanceError(w, http.StatusBadRequest, "invalid_account", err.Error())
			return
		}
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "proposed"})
}

func (s *Server) handleAcceptAdmin(w http.ResponseWriter, r *http.Request) {
	r, ok := s.callerContext(w, r)
	if !ok {
		return
	}
	if err := s.governance.Handler.AcceptAdminHandler(r.Context()); err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *Server) handleCancelAdminProposal(w http.ResponseWriter, r *http.Request) {
	r, ok := s.callerContext(w, r)
	if !ok {
		return
	}
	if err := s.governance.Handler.CancelAdminProposalHandler(r.Context()); err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.AdminHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePendingAdmin(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.PendingAdminHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIsAdmin(w http.ResponseWriter, r *http.Request) {
	r, ok := s.callerContext(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.IsAdminHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddProposal(w http.ResponseWriter, r *http.Request) {
	r, ok := s.callerContext(w, r)
	if !ok {
		return
	}
	var req governancehttp.AddProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.governance.Handler.AddProposalHandler(r.Context(), req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.ListProposalsHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProposalCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.ProposalCountHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	resp, found, err := s.governance.Handler.GetProposalHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	if !found {
		writeGovernanceError(w, http.StatusNotFound, "proposal_not_found", "proposal not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseProposal(w http.ResponseWriter, r *http.Request) {
	r, ok := s.callerContext(w, r)
	if !ok {
		return
	}
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	if err := s.governance.Handler.CloseProposalHandler(r.Context(), proposalID); err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "closed"})
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	r, ok := s.callerContext(w, r)
	if !ok {
		return
	}
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	var req governancehttp.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.governance.Handler.VoteHandler(r.Context(), proposalID, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleMyVote(w http.ResponseWriter, r *http.Request) {
	r, ok := s.callerContext(w, r)
	if !ok {
		return
	}
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.MyVoteHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAccountVote(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := proposalIDFromPath(w, r)
	if !ok {
		return
	}
	keyHex := r.PathValue("public_key")
	if _, err := entities.ParsePublicKey(keyHex); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_public_key", "public_key must be a 96-byte hex key")
		return
	}
	resp, err := s.governance.Handler.AccountVoteHandler(r.Context(), proposalID, keyHex)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTokenContract(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.TokenContractHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	keyHex := r.PathValue("public_key")
	if _, err := entities.ParsePublicKey(keyHex); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_public_key", "public_key must be a 96-byte hex key")
		return
	}
	resp, err := s.governance.Handler.BalanceHandler(r.Context(), keyHex)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func proposalIDFromPath(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	raw := r.PathValue("proposal_id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_proposal_id", "proposal_id must be an unsigned integer")
		return 0, false
	}
	return uint32(id), true
}

// governanceDomainStatus is checked in order, mirroring the order the state
// machine applies its guards; the first matching sentinel wins, so an error
// chain carrying several sentinels always maps to the same response.
var governanceDomainStatus = []struct {
	sentinel error
	status   int
	code     string
}{
	{domainerrors.ErrCallerUnavailable, http.StatusUnauthorized, "caller_unavailable"},
	{domainerrors.ErrNotInitialized, http.StatusConflict, "not_initialized"},
	{domainerrors.ErrAlreadyInitialized, http.StatusConflict, "already_initialized"},
	{domainerrors.ErrNotAdmin, http.StatusForbidden, "not_admin"},
	{domainerrors.ErrCannotProposeSelf, http.StatusBadRequest, "cannot_propose_self"},
	{domainerrors.ErrNotPendingAdmin, http.StatusForbidden, "not_pending_admin"},
	{domainerrors.ErrNoPendingTransfer, http.StatusConflict, "no_pending_transfer"},
	{domainerrors.ErrMaxProposalsReached, http.StatusConflict, "max_proposals_reached"},
	{domainerrors.ErrDescriptionTooLong, http.StatusBadRequest, "description_too_long"},
	{domainerrors.ErrProposalNotFound, http.StatusNotFound, "proposal_not_found"},
	{domainerrors.ErrContractsCannotVote, http.StatusForbidden, "contracts_cannot_vote"},
	{domainerrors.ErrNoVotingPower, http.StatusForbidden, "no_voting_power"},
	{domainerrors.ErrProposalNotActive, http.StatusConflict, "proposal_not_active"},
	{domainerrors.ErrAlreadyVoted, http.StatusConflict, "already_voted"},
	{domainerrors.ErrConflict, http.StatusConflict, "conflict"},
}

func isGovernanceDomainError(err error) bool {
	for _, mapping := range governanceDomainStatus {
		if errors.Is(err, mapping.sentinel) {
			return true
		}
	}
	return false
}

func writeGovernanceDomainError(w http.ResponseWriter, err error) {
	for _, mapping := range governanceDomainStatus {
		if errors.Is(err, mapping.sentinel) {
			writeGovernanceError(w, mapping.status, mapping.code, mapping.sentinel.Error())
			return
		}
	}
	writeGovernanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

func writeGovernanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, governancehttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
