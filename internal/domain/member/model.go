package member

import (
	"errors"
	"strings"
	"time"

	"household/internal/domain/age"
	"household/internal/domain/fault"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Lifecycle statuses, derived from enrollment state.
const (
	StatusEnrolled = "enrolled"
	StatusStandBy  = "stand-by"
	StatusArchived = "archived"
)

// Domain errors
var (
	ErrAlreadyArchived = errors.New("member is already archived")
	ErrNotArchived     = errors.New("member is not archived")
)

// Member is an athlete who can be enrolled in programs.
type Member struct {
	ID            string
	FamilyID      string
	FirstName     string
	LastName      string
	DateOfBirth   string // YYYY-MM-DD, empty when unknown
	MedicalNotes  string
	InternalFlags string // admin-only annotations
	AccountID     string // linked login account, if any
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks if the Member has valid data.
// PRE: Member struct is initialized
// POST: Returns a *fault.ValidationError if validation fails, nil otherwise
func (m *Member) Validate() error {
	if strings.TrimSpace(m.FamilyID) == "" {
		return fault.Invalid("familyId", "is required")
	}
	if strings.TrimSpace(m.FirstName) == "" {
		return fault.Invalid("firstName", "is required")
	}
	if strings.TrimSpace(m.LastName) == "" {
		return fault.Invalid("lastName", "is required")
	}
	if len(m.FirstName) > MaxNameLength || len(m.LastName) > MaxNameLength {
		return fault.Invalid("name", "cannot exceed %d characters", MaxNameLength)
	}
	if m.DateOfBirth != "" {
		if _, err := time.Parse(age.DateLayout, m.DateOfBirth); err != nil {
			return fault.Invalid("dateOfBirth", "must be YYYY-MM-DD")
		}
	}
	switch m.Status {
	case StatusEnrolled, StatusStandBy, StatusArchived:
	default:
		return fault.Invalid("status", "must be 'enrolled', 'stand-by', or 'archived'")
	}
	return nil
}

// FullName joins first and last name.
func (m *Member) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// IsArchived returns true if the member is archived.
// INVARIANT: Status field is not mutated
func (m *Member) IsArchived() bool {
	return m.Status == StatusArchived
}

// Archive sets the member status to archived.
// PRE: Member is not already archived
// POST: Status is set to archived
func (m *Member) Archive() error {
	if m.Status == StatusArchived {
		return ErrAlreadyArchived
	}
	m.Status = StatusArchived
	return nil
}

// Restore recomputes the status of an archived member from its enrollment count.
// PRE: Member is currently archived
// POST: Status is enrolled or stand-by
func (m *Member) Restore(enrollments int) error {
	if m.Status != StatusArchived {
		return ErrNotArchived
	}
	m.Status = StatusFor(enrollments, false)
	return nil
}

// StatusFor derives the lifecycle status.
func StatusFor(enrollments int, archived bool) string {
	switch {
	case archived:
		return StatusArchived
	case enrollments > 0:
		return StatusEnrolled
	default:
		return StatusStandBy
	}
}
