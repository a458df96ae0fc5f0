package program

import (
	"context"

	domain "household/internal/domain/program"
)

// Store persists the program catalog. Programs are never deleted; retiring one sets
// Archived so existing enrollments keep their reference.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Program, error)
	Save(ctx context.Context, value domain.Program) error
	// List returns the programs passing f, ordered by category then name.
	List(ctx context.Context, f domain.Filter) ([]domain.Program, error)
}
