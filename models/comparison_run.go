package models

import (
	"time"

	"github.com/google/uuid"
)

// RunKind distinguishes comparison runs from template updates
type RunKind string

const (
	RunKindCompare  RunKind = "compare"
	RunKindTemplate RunKind = "template"
)

// ComparisonRun is the audit trail of one successful compare or template update
type ComparisonRun struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Kind      RunKind   `json:"kind" db:"kind"`
	OldName   string    `json:"old_name" db:"old_name"`
	NewName   string    `json:"new_name" db:"new_name"`
	OldHash   string    `json:"old_hash" db:"old_hash"`
	NewHash   string    `json:"new_hash" db:"new_hash"`
	Total     int       `json:"total" db:"total"`
	Changed   int       `json:"changed" db:"changed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewComparisonRun creates a run stamped with a time-ordered ID
func NewComparisonRun(kind RunKind, oldName, newName string) *ComparisonRun {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return &ComparisonRun{
		ID:        id,
		Kind:      kind,
		OldName:   oldName,
		NewName:   newName,
		CreatedAt: time.Now().UTC(),
	}
}
