package member

import (
	"context"

	domain "household/internal/domain/member"
)

// Store persists Member state.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Member, error)
	Save(ctx context.Context, value domain.Member) error
	ListByFamily(ctx context.Context, familyID string) ([]domain.Member, error)
	RefreshStatus(ctx context.Context, id string) (string, error)
}
