package program

import (
	"strings"

	"household/internal/domain/fault"
)

// Program is a class offering from the catalog. Read-only to the enrollment workflow.
type Program struct {
	ID         string `json:"id" yaml:"id"`
	Category   string `json:"category" yaml:"category"`
	Name       string `json:"name" yaml:"name"`
	SkillLevel string `json:"skillLevel" yaml:"skill_level"`
	Archived   bool   `json:"archived" yaml:"archived"`
	MinAge     int    `json:"minAge" yaml:"min_age"`
	MaxAge     int    `json:"maxAge" yaml:"max_age"` // 0 means no upper bound
}

// Validate checks if the Program has valid data.
// PRE: Program struct is populated
// POST: Returns nil if valid, error otherwise
func (p *Program) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fault.Invalid("id", "is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fault.Invalid("name", "program name cannot be empty")
	}
	if strings.TrimSpace(p.Category) == "" {
		return fault.Invalid("category", "is required")
	}
	if p.MinAge < 0 || p.MaxAge < 0 {
		return fault.Invalid("age", "bounds cannot be negative")
	}
	if p.MaxAge != 0 && p.MaxAge < p.MinAge {
		return fault.Invalid("maxAge", "must not be below minAge")
	}
	return nil
}

// IsActive returns true when the program accepts enrollments.
func (p *Program) IsActive() bool {
	return !p.Archived
}

// AcceptsAge reports whether an athlete of the given age fits the bounds.
func (p *Program) AcceptsAge(years int) bool {
	if years < p.MinAge {
		return false
	}
	return p.MaxAge == 0 || years <= p.MaxAge
}

// Filter selects catalog entries. The zero value matches every program, archived ones
// included.
type Filter struct {
	Category   string `json:"category,omitempty"`
	ActiveOnly bool   `json:"activeOnly,omitempty"`
	// Age is ignored unless HasAge is set.
	Age    int  `json:"age,omitempty"`
	HasAge bool `json:"hasAge,omitempty"`
}

// Match reports whether p passes every condition of f. Category compares case-insensitively.
func (f Filter) Match(p Program) bool {
	if f.Category != "" && !strings.EqualFold(f.Category, p.Category) {
		return false
	}
	if f.ActiveOnly && !p.IsActive() {
		return false
	}
	return !f.HasAge || p.AcceptsAge(f.Age)
}
