package family

import (
	"errors"
	"slices"
	"strings"
	"time"

	"household/internal/domain/fault"
)

// MaxNameLength bounds the optional display name.
const MaxNameLength = 120

// Domain errors
var (
	ErrAlreadyArchived = errors.New("family is already archived")
	ErrNotArchived     = errors.New("family is not archived")
)

// Family is a household grouping of guardians and athletes.
type Family struct {
	ID               string    `json:"id"`
	Name             string    `json:"name,omitempty"`
	PrimaryAccountID string    `json:"primaryAccountId"`
	GuardianIDs      []string  `json:"guardianIds"`
	Archived         bool      `json:"archived"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Validate checks if the Family has valid data.
// PRE: Family struct is populated
// POST: Returns nil if valid, a *fault.ValidationError otherwise
// INVARIANT: the primary guardian is one of GuardianIDs
func (f *Family) Validate() error {
	if len(f.Name) > MaxNameLength {
		return fault.Invalid("name", "cannot exceed %d characters", MaxNameLength)
	}
	if strings.TrimSpace(f.PrimaryAccountID) == "" {
		return fault.Invalid("primaryAccountId", "is required")
	}
	if !slices.Contains(f.GuardianIDs, f.PrimaryAccountID) {
		return fault.Invalid("guardianIds", "must include the primary guardian")
	}
	return nil
}

// AddGuardian appends a guardian id if not already present.
// POST: GuardianIDs contains id exactly once
func (f *Family) AddGuardian(id string) {
	if id == "" || slices.Contains(f.GuardianIDs, id) {
		return
	}
	f.GuardianIDs = append(f.GuardianIDs, id)
}

// RemoveGuardian drops a guardian id. Removing the primary clears PrimaryAccountID.
func (f *Family) RemoveGuardian(id string) {
	f.GuardianIDs = slices.DeleteFunc(f.GuardianIDs, func(g string) bool { return g == id })
	if f.PrimaryAccountID == id {
		f.PrimaryAccountID = ""
	}
}

// Archive soft-deletes the family.
// PRE: Family is not archived
// POST: Archived is true
func (f *Family) Archive() error {
	if f.Archived {
		return ErrAlreadyArchived
	}
	f.Archived = true
	return nil
}

// Restore reverses Archive.
// PRE: Family is archived
// POST: Archived is false
func (f *Family) Restore() error {
	if !f.Archived {
		return ErrNotArchived
	}
	f.Archived = false
	return nil
}
