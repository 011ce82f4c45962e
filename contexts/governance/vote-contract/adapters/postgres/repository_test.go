package postgresadapter

import (
	"sync"
	"testing"

	"gavel/contexts/governance/vote-contract/domain/entities"

	"gorm.io/gorm/schema"
)

func parseModel(t *testing.T, model any) *schema.Schema {
	t.Helper()
	parsed, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse model schema failed: %v", err)
	}
	return parsed
}

// Proposal ids and vote rows carry ids the state machine assigned, starting
// at 0. If gorm treats these integer primary keys as serial columns it omits
// the zero value on insert and the database renumbers proposal 0.
func TestIntegerPrimaryKeysAreNotSerial(t *testing.T) {
	cases := []struct {
		name   string
		model  any
		column string
	}{
		{"proposal id", &proposalModel{}, "id"},
		{"vote proposal id", &voteModel{}, "proposal_id"},
		{"state row id", &stateModel{}, "id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := parseModel(t, tc.model)
			field := parsed.LookUpField(tc.column)
			if field == nil {
				t.Fatalf("column %q not found on %s", tc.column, parsed.Table)
			}
			if !field.PrimaryKey {
				t.Fatalf("column %q on %s must be part of the primary key", tc.column, parsed.Table)
			}
			if field.AutoIncrement {
				t.Fatalf("column %q on %s must not auto-increment; zero-valued ids would be dropped on insert", tc.column, parsed.Table)
			}
		})
	}
}

func TestProposalModelRoundTripKeepsIDZero(t *testing.T) {
	original := entities.Proposal{
		ID:          0,
		Description: "first proposal",
		YesVotes:    12,
		NoVotes:     3,
		Active:      true,
	}
	row := proposalModelFromEntity(original)
	if row.ID != 0 {
		t.Fatalf("expected row id 0, got %d", row.ID)
	}
	back := row.toEntity()
	if back.ID != 0 {
		t.Fatalf("expected proposal id 0 after round trip, got %d", back.ID)
	}
	if back.Description != original.Description || back.YesVotes != 12 || back.NoVotes != 3 || !back.Active {
		t.Fatalf("unexpected round trip result %+v", back)
	}
}
