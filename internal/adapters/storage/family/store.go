package family

import (
	"context"
	"time"

	domain "household/internal/domain/family"
)

// Store persists Family state together with its ordered guardian list.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Family, error)
	Save(ctx context.Context, value domain.Family) error
	Search(ctx context.Context, query string) ([]domain.Family, error)
	SetArchived(ctx context.Context, id string, archived bool, now time.Time) error
	RemoveGuardian(ctx context.Context, familyID, accountID string, now time.Time) error
	Delete(ctx context.Context, id string, now time.Time) error
}
