package enrollment

import (
	"slices"
	"strings"
	"time"

	"household/internal/domain/fault"
)

// Weekday names accepted in SelectedDays.
var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Enrollment is a stored join between a member and a program.
type Enrollment struct {
	ID           string    `json:"id"`
	ProgramID    string    `json:"programId"`
	MemberID     string    `json:"memberId"`
	DaysPerWeek  int       `json:"daysPerWeek"`
	SelectedDays []string  `json:"selectedDays"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Draft is the staged form of an enrollment. An empty ProgramID marks a placeholder that
// is never persisted.
type Draft struct {
	ProgramID    string   `json:"programId"`
	DaysPerWeek  int      `json:"daysPerWeek"`
	SelectedDays []string `json:"selectedDays"`
	IsCompleted  bool     `json:"isCompleted"`
}

// Upsert is the request shape of createOrUpdateEnrollment, keyed on ProgramID+MemberID.
type Upsert struct {
	ProgramID    string   `json:"programId"`
	MemberID     string   `json:"memberId"`
	DaysPerWeek  int      `json:"daysPerWeek"`
	SelectedDays []string `json:"selectedDays"`
}

// IsPlaceholder reports whether the draft has no program chosen.
func (d Draft) IsPlaceholder() bool {
	return strings.TrimSpace(d.ProgramID) == ""
}

// Clone returns a copy that shares no slice storage with d.
func (d Draft) Clone() Draft {
	d.SelectedDays = slices.Clone(d.SelectedDays)
	return d
}

// Validate enforces |SelectedDays| == DaysPerWeek for a chosen program.
// PRE: none
// POST: Returns *fault.InvalidEnrollmentError on mismatch; placeholders are always valid
func (d Draft) Validate() error {
	if d.IsPlaceholder() {
		return nil
	}
	return validateDays(d.ProgramID, d.DaysPerWeek, d.SelectedDays)
}

// Validate applies the same day-count rule to an upsert request.
func (u Upsert) Validate() error {
	if strings.TrimSpace(u.ProgramID) == "" {
		return fault.Invalid("programId", "is required")
	}
	if strings.TrimSpace(u.MemberID) == "" {
		return fault.Invalid("memberId", "is required")
	}
	return validateDays(u.ProgramID, u.DaysPerWeek, u.SelectedDays)
}

func validateDays(programID string, perWeek int, days []string) error {
	if perWeek < 1 || perWeek > len(Weekdays) {
		return &fault.InvalidEnrollmentError{ProgramID: programID, Required: perWeek, Selected: len(days),
			Reason: "days per week must be between 1 and 7"}
	}
	seen := make(map[string]bool, len(days))
	for _, day := range days {
		if !slices.Contains(Weekdays, day) {
			return &fault.InvalidEnrollmentError{ProgramID: programID, Required: perWeek, Selected: len(days),
				Reason: "unknown day " + day}
		}
		if seen[day] {
			return &fault.InvalidEnrollmentError{ProgramID: programID, Required: perWeek, Selected: len(days),
				Reason: "day " + day + " selected twice"}
		}
		seen[day] = true
	}
	if len(days) != perWeek {
		return &fault.InvalidEnrollmentError{ProgramID: programID, Required: perWeek, Selected: len(days)}
	}
	return nil
}

// ValidateAll validates every draft and returns the first failure.
func ValidateAll(drafts []Draft) error {
	for _, d := range drafts {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// JoinDays encodes SelectedDays for storage.
func JoinDays(days []string) string {
	return strings.Join(days, ",")
}

// SplitDays decodes a stored SelectedDays column.
func SplitDays(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}
