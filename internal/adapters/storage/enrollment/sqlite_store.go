package enrollment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"household/internal/adapters/storage"
	domain "household/internal/domain/enrollment"
	"household/internal/domain/fault"
)

const selectColumns = "SELECT id, program_id, member_id, days_per_week, selected_days, created_at, updated_at FROM enrollment"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new EnrollmentStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Enrollment by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping fault.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Enrollment, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanEnrollment(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Enrollment{}, fmt.Errorf("enrollment %s: %w", id, fault.ErrNotFound)
	}
	return entity, err
}

// ListByMember returns a member's enrollments in creation order.
func (s *SQLiteStore) ListByMember(ctx context.Context, memberID string) ([]domain.Enrollment, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE member_id = ? ORDER BY created_at, id", memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Enrollment
	for rows.Next() {
		entity, err := scanEnrollment(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, entity)
	}
	return list, rows.Err()
}

// Upsert creates the enrollment for (member, program) or replaces its days.
// PRE: value.ID is a fresh id used only on insert
// POST: Returns the stored row; the id of an existing row is kept
func (s *SQLiteStore) Upsert(ctx context.Context, value domain.Enrollment) (domain.Enrollment, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO enrollment (id, program_id, member_id, days_per_week, selected_days, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(member_id, program_id) DO UPDATE SET days_per_week=excluded.days_per_week,
			selected_days=excluded.selected_days, updated_at=excluded.updated_at`,
		value.ID,
		value.ProgramID,
		value.MemberID,
		value.DaysPerWeek,
		domain.JoinDays(value.SelectedDays),
		storage.FormatTime(value.CreatedAt),
		storage.FormatTime(value.UpdatedAt),
	)
	if err != nil {
		return domain.Enrollment{}, fmt.Errorf("upsert enrollment %s/%s: %w", value.MemberID, value.ProgramID, err)
	}

	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE member_id = ? AND program_id = ?", value.MemberID, value.ProgramID)
	return scanEnrollment(row.Scan)
}

// Delete removes an Enrollment.
// PRE: id is non-empty
// POST: Returns an error wrapping fault.ErrNotFound when nothing was deleted
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM enrollment WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("enrollment %s: %w", id, fault.ErrNotFound)
	}
	return nil
}

func scanEnrollment(scan func(dest ...any) error) (domain.Enrollment, error) {
	var entity domain.Enrollment
	var days, createdAt, updatedAt string
	err := scan(&entity.ID, &entity.ProgramID, &entity.MemberID, &entity.DaysPerWeek, &days, &createdAt, &updatedAt)
	if err != nil {
		return domain.Enrollment{}, err
	}
	entity.SelectedDays = domain.SplitDays(days)
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	entity.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return entity, nil
}
