package enrollment

import (
	"context"

	domain "household/internal/domain/enrollment"
)

// Store persists Enrollment state. An enrollment is unique per member and program.
type Store interface {
	GetByID(ctx context.Context, id string) (domain.Enrollment, error)
	ListByMember(ctx context.Context, memberID string) ([]domain.Enrollment, error)
	Upsert(ctx context.Context, value domain.Enrollment) (domain.Enrollment, error)
	Delete(ctx context.Context, id string) error
}
