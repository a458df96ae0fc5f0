package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"household/internal/adapters/storage"
	"household/internal/domain/fault"
	domain "household/internal/domain/member"
)

const selectColumns = `SELECT id, family_id, first_name, last_name, date_of_birth, medical_notes, internal_flags,
	account_id, status, created_at, updated_at FROM member`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new MemberStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Member by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping fault.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Member, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanMember(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Member{}, fmt.Errorf("member %s: %w", id, fault.ErrNotFound)
	}
	return entity, err
}

// Save persists a Member to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Member) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO member (id, family_id, first_name, last_name, date_of_birth,
			medical_notes, internal_flags, account_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET family_id=excluded.family_id, first_name=excluded.first_name,
			last_name=excluded.last_name, date_of_birth=excluded.date_of_birth,
			medical_notes=excluded.medical_notes, internal_flags=excluded.internal_flags,
			account_id=excluded.account_id, status=excluded.status, updated_at=excluded.updated_at`,
		entity.ID,
		entity.FamilyID,
		entity.FirstName,
		entity.LastName,
		entity.DateOfBirth,
		entity.MedicalNotes,
		entity.InternalFlags,
		storage.NullString(entity.AccountID),
		entity.Status,
		storage.FormatTime(entity.CreatedAt),
		storage.FormatTime(entity.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save member %s: %w", entity.ID, err)
	}
	return nil
}

// ListByFamily returns the members of a family in creation order.
func (s *SQLiteStore) ListByFamily(ctx context.Context, familyID string) ([]domain.Member, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" WHERE family_id = ? ORDER BY created_at, id", familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Member
	for rows.Next() {
		entity, err := scanMember(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, entity)
	}
	return list, rows.Err()
}

// RefreshStatus recomputes the status of a member from its enrollments.
// PRE: id is non-empty
// POST: archived members are left alone; others are enrolled or stand-by
func (s *SQLiteStore) RefreshStatus(ctx context.Context, id string) (string, error) {
	var status string
	var enrollments int
	err := s.db.QueryRowContext(ctx,
		"SELECT status, (SELECT COUNT(*) FROM enrollment WHERE member_id = ?) FROM member WHERE id = ?",
		id, id).Scan(&status, &enrollments)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("member %s: %w", id, fault.ErrNotFound)
	}
	if err != nil {
		return "", err
	}

	next := domain.StatusFor(enrollments, status == domain.StatusArchived)
	if next == status {
		return status, nil
	}
	_, err = s.db.ExecContext(ctx, "UPDATE member SET status = ?, updated_at = ? WHERE id = ?",
		next, storage.FormatTime(time.Now()), id)
	return next, err
}

func scanMember(scan func(dest ...any) error) (domain.Member, error) {
	var entity domain.Member
	var accountID sql.NullString
	var createdAt, updatedAt string
	err := scan(
		&entity.ID,
		&entity.FamilyID,
		&entity.FirstName,
		&entity.LastName,
		&entity.DateOfBirth,
		&entity.MedicalNotes,
		&entity.InternalFlags,
		&accountID,
		&entity.Status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Member{}, err
	}
	entity.AccountID = accountID.String
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	entity.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return entity, nil
}
