package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gavel/contexts/governance/vote-contract/domain/entities"
	domainerrors "gavel/contexts/governance/vote-contract/domain/errors"
	"gavel/contexts/governance/vote-contract/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	stateRowID = 1
)

// Repository persists the governance state machine and its outbox. Each
// Update loads the full state inside one transaction, applies the state
// transition, and writes the result back; a rejected transition rolls the
// transaction back untouched. The registry is capped at 100 proposals, so a
// full load per call stays cheap.
type Repository struct {
	db     *gorm.DB
	mu     sync.Mutex
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the governance tables if they do not exist yet.
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(
		&stateModel{},
		&proposalModel{},
		&voteModel{},
		&outboxModel{},
	)
}

func (r *Repository) View(ctx context.Context, fn func(state *entities.ContractState) error) error {
	snap, err := r.loadSnapshot(r.db.WithContext(ctx))
	if err != nil {
		return err
	}
	return fn(entities.RestoreContractState(snap))
}

// Update runs the state transition and writes the new snapshot plus the
// events fn returns inside one transaction; any failure rolls the whole
// operation back, outbox rows included.
func (r *Repository) Update(ctx context.Context, fn func(state *entities.ContractState) ([]ports.EventEnvelope, error)) error {
	// The host serializes logical calls; the mutex enforces that for
	// in-process callers sharing this repository.
	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap, err := r.loadSnapshotForUpdate(tx)
		if err != nil {
			return err
		}
		state := entities.RestoreContractState(snap)
		events, err := fn(state)
		if err != nil {
			return err
		}
		if err := r.persistSnapshot(tx, state.Snapshot()); err != nil {
			return err
		}
		for _, envelope := range events {
			if err := r.appendOutboxTx(tx, envelope); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return err
	}
	return nil
}

func (r *Repository) loadSnapshotForUpdate(tx *gorm.DB) (entities.Snapshot, error) {
	return r.loadSnapshot(tx.Clauses(clause.Locking{Strength: "UPDATE"}))
}

func (r *Repository) loadSnapshot(tx *gorm.DB) (entities.Snapshot, error) {
	var snap entities.Snapshot

	var stateRow stateModel
	err := tx.Where("id = ?", stateRowID).First(&stateRow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Snapshot{}, nil
		}
		return entities.Snapshot{}, r.logError("governance_repo_load_state_failed", err)
	}

	snap, err = stateRow.toSnapshot()
	if err != nil {
		return entities.Snapshot{}, r.logError("governance_repo_decode_state_failed", err)
	}

	var proposalRows []proposalModel
	if err := tx.Order("id ASC").Find(&proposalRows).Error; err != nil {
		return entities.Snapshot{}, r.logError("governance_repo_load_proposals_failed", err)
	}
	snap.Proposals = make([]entities.Proposal, 0, len(proposalRows))
	for _, row := range proposalRows {
		snap.Proposals = append(snap.Proposals, row.toEntity())
	}

	var voteRows []voteModel
	if err := tx.Order("proposal_id ASC, account_kind ASC, account_identity ASC").Find(&voteRows).Error; err != nil {
		return entities.Snapshot{}, r.logError("governance_repo_load_votes_failed", err)
	}
	snap.Votes = make([]entities.VoteRecord, 0, len(voteRows))
	for _, row := range voteRows {
		record, err := row.toEntity()
		if err != nil {
			return entities.Snapshot{}, r.logError("governance_repo_decode_vote_failed", err)
		}
		snap.Votes = append(snap.Votes, record)
	}
	return snap, nil
}

func (r *Repository) persistSnapshot(tx *gorm.DB, snap entities.Snapshot) error {
	stateRow := stateModelFromSnapshot(snap)
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"initialized":      stateRow.Initialized,
			"admin_kind":       stateRow.AdminKind,
			"admin_identity":   stateRow.AdminIdentity,
			"pending_kind":     stateRow.PendingKind,
			"pending_identity": stateRow.PendingIdentity,
			"token_contract":   stateRow.TokenContract,
			"next_proposal_id": stateRow.NextProposalID,
			"updated_at":       stateRow.UpdatedAt,
		}),
	}).Create(&stateRow).Error
	if err != nil {
		return r.logError("governance_repo_save_state_failed", err)
	}

	for _, proposal := range snap.Proposals {
		row := proposalModelFromEntity(proposal)
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"description": row.Description,
				"yes_votes":   row.YesVotes,
				"no_votes":    row.NoVotes,
				"active":      row.Active,
				"updated_at":  row.UpdatedAt,
			}),
		}).Create(&row).Error
		if err != nil {
			return r.logError("governance_repo_save_proposal_failed", err, "proposal_id", proposal.ID)
		}
	}

	// Ledger entries are immutable once written; conflicts mean the row is
	// already there.
	for _, record := range snap.Votes {
		row := voteModelFromEntity(record)
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "proposal_id"}, {Name: "account_kind"}, {Name: "account_identity"}},
			DoNothing: true,
		}).Create(&row).Error
		if err != nil {
			return r.logError("governance_repo_save_vote_failed", err, "proposal_id", record.ProposalID)
		}
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	err := r.appendOutboxTx(r.db.WithContext(ctx), envelope)
	if isUniqueViolation(err) {
		return domainerrors.ErrConflict
	}
	return err
}

func (r *Repository) appendOutboxTx(tx *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := marshalEnvelope(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		ID:        strings.TrimSpace(envelope.EventID),
		EventType: strings.TrimSpace(envelope.EventType),
		Payload:   payload,
		Status:    outboxStatusPending,
		CreatedAt: envelope.OccurredAt.UTC(),
	}
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row).Error
	if err != nil {
		return r.logError("governance_repo_append_outbox_failed", err, "outbox_id", row.ID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, r.logError("governance_repo_list_outbox_failed", err)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:  row.ID,
			EventType: row.EventType,
			Payload:   row.Payload,
			CreatedAt: row.CreatedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	publishedAtUTC := publishedAt.UTC()
	result := r.db.WithContext(ctx).Model(&outboxModel{}).
		Where("id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": &publishedAtUTC,
		})
	if result.Error != nil {
		return r.logError("governance_repo_mark_outbox_failed", result.Error, "outbox_id", outboxID)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "governance/vote-contract",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("governance repository operation failed", fields...)
	return err
}

// SystemClock satisfies the Clock port with wall time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator satisfies the IDGenerator port.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type stateModel struct {
	ID              int       `gorm:"column:id;primaryKey;autoIncrement:false"`
	Initialized     bool      `gorm:"column:initialized"`
	AdminKind       string    `gorm:"column:admin_kind"`
	AdminIdentity   string    `gorm:"column:admin_identity"`
	PendingKind     *string   `gorm:"column:pending_kind"`
	PendingIdentity *string   `gorm:"column:pending_identity"`
	TokenContract   string    `gorm:"column:token_contract"`
	NextProposalID  int64     `gorm:"column:next_proposal_id"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (stateModel) TableName() string {
	return "governance_state"
}

func stateModelFromSnapshot(snap entities.Snapshot) stateModel {
	adminKind, adminIdentity := accountColumns(snap.Admin)
	row := stateModel{
		ID:             stateRowID,
		Initialized:    snap.Initialized,
		AdminKind:      adminKind,
		AdminIdentity:  adminIdentity,
		TokenContract:  snap.TokenContract.Hex(),
		NextProposalID: int64(snap.NextProposalID),
		UpdatedAt:      time.Now().UTC(),
	}
	if snap.PendingAdmin != nil {
		pendingKind, pendingIdentity := accountColumns(*snap.PendingAdmin)
		row.PendingKind = &pendingKind
		row.PendingIdentity = &pendingIdentity
	}
	return row
}

func (m stateModel) toSnapshot() (entities.Snapshot, error) {
	admin, err := accountFromColumns(m.AdminKind, m.AdminIdentity)
	if err != nil {
		return entities.Snapshot{}, fmt.Errorf("decode admin: %w", err)
	}
	token, err := entities.ParseContractID(m.TokenContract)
	if err != nil {
		return entities.Snapshot{}, fmt.Errorf("decode token contract: %w", err)
	}
	snap := entities.Snapshot{
		Initialized:    m.Initialized,
		Admin:          admin,
		TokenContract:  token,
		NextProposalID: uint32(m.NextProposalID),
	}
	if m.PendingKind != nil && m.PendingIdentity != nil {
		pending, err := accountFromColumns(*m.PendingKind, *m.PendingIdentity)
		if err != nil {
			return entities.Snapshot{}, fmt.Errorf("decode pending admin: %w", err)
		}
		snap.PendingAdmin = &pending
	}
	return snap, nil
}

type proposalModel struct {
	// Ids are assigned by the state machine starting at 0; without
	// autoIncrement:false gorm treats the integer primary key as serial and
	// drops the zero value on insert, renumbering proposal 0.
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement:false"`
	Description string    `gorm:"column:description"`
	YesVotes    uint64    `gorm:"column:yes_votes;type:numeric(20,0)"`
	NoVotes     uint64    `gorm:"column:no_votes;type:numeric(20,0)"`
	Active      bool      `gorm:"column:active"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (proposalModel) TableName() string {
	return "governance_proposals"
}

func proposalModelFromEntity(proposal entities.Proposal) proposalModel {
	return proposalModel{
		ID:          int64(proposal.ID),
		Description: proposal.Description,
		YesVotes:    proposal.YesVotes,
		NoVotes:     proposal.NoVotes,
		Active:      proposal.Active,
		UpdatedAt:   time.Now().UTC(),
	}
}

func (m proposalModel) toEntity() entities.Proposal {
	return entities.Proposal{
		ID:          uint32(m.ID),
		Description: m.Description,
		YesVotes:    m.YesVotes,
		NoVotes:     m.NoVotes,
		Active:      m.Active,
	}
}

type voteModel struct {
	ProposalID      int64     `gorm:"column:proposal_id;primaryKey;autoIncrement:false"`
	AccountKind     string    `gorm:"column:account_kind;primaryKey"`
	AccountIdentity string    `gorm:"column:account_identity;primaryKey"`
	Weight          uint64    `gorm:"column:weight;type:numeric(20,0)"`
	CreatedAt       time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "governance_votes"
}

func voteModelFromEntity(record entities.VoteRecord) voteModel {
	kind, identity := accountColumns(record.Account)
	return voteModel{
		ProposalID:      int64(record.ProposalID),
		AccountKind:     kind,
		AccountIdentity: identity,
		Weight:          record.Weight,
		CreatedAt:       time.Now().UTC(),
	}
}

func (m voteModel) toEntity() (entities.VoteRecord, error) {
	account, err := accountFromColumns(m.AccountKind, m.AccountIdentity)
	if err != nil {
		return entities.VoteRecord{}, fmt.Errorf("decode vote account: %w", err)
	}
	return entities.VoteRecord{
		ProposalID: uint32(m.ProposalID),
		Account:    account,
		Weight:     m.Weight,
	}, nil
}

type outboxModel struct {
	ID          string     `gorm:"column:id;primaryKey"`
	EventType   string     `gorm:"column:event_type"`
	Payload     []byte     `gorm:"column:payload"`
	Status      string     `gorm:"column:status"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	PublishedAt *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}

func marshalEnvelope(envelope ports.EventEnvelope) ([]byte, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal event envelope: %w", err)
	}
	return payload, nil
}

func accountColumns(account entities.Account) (string, string) {
	return account.Kind().String(), account.IdentityHex()
}

func accountFromColumns(kind string, identity string) (entities.Account, error) {
	switch strings.TrimSpace(kind) {
	case entities.AccountKindContract.String():
		id, err := entities.ParseContractID(identity)
		if err != nil {
			return entities.Account{}, err
		}
		return entities.NewContractAccount(id), nil
	case entities.AccountKindExternal.String():
		key, err := entities.ParsePublicKey(identity)
		if err != nil {
			return entities.Account{}, err
		}
		return entities.NewExternalAccount(key), nil
	default:
		return entities.Account{}, fmt.Errorf("unknown account kind %q", kind)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.StateStore = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.Clock = SystemClock{}
var _ ports.IDGenerator = UUIDGenerator{}
