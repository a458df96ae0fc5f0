package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"household/internal/adapters/storage"
	domain "household/internal/domain/account"
	"household/internal/domain/fault"
)

const selectColumns = "SELECT id, full_name, email, phone, username, password_hash, role, address, family_id, archived, created_at, updated_at FROM account"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new AccountStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping fault.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %s: %w", id, fault.ErrNotFound)
	}
	return entity, err
}

// GetByEmail retrieves an Account by email, ignoring case and surrounding space.
// PRE: email is non-empty
// POST: Returns the entity or an error wrapping fault.ErrNotFound
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE email_key = ?", domain.NormalizeEmail(email))
	entity, err := scanAccount(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("account %s: %w", email, fault.ErrNotFound)
	}
	return entity, err
}

// Save persists an Account to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Account) error {
	fields := []string{"id", "full_name", "email", "email_key", "phone", "username", "password_hash",
		"role", "address", "family_id", "archived", "created_at", "updated_at"}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(fields)), ", ")
	updates := []string{
		"full_name=excluded.full_name",
		"email=excluded.email",
		"email_key=excluded.email_key",
		"phone=excluded.phone",
		"username=excluded.username",
		"password_hash=excluded.password_hash",
		"role=excluded.role",
		"address=excluded.address",
		"family_id=excluded.family_id",
		"archived=excluded.archived",
		"updated_at=excluded.updated_at",
	}

	query := fmt.Sprintf(
		"INSERT INTO account (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		strings.Join(fields, ", "),
		placeholders,
		strings.Join(updates, ", "),
	)

	_, err := s.db.ExecContext(ctx, query,
		entity.ID,
		entity.FullName,
		entity.Email,
		domain.NormalizeEmail(entity.Email),
		entity.Phone,
		entity.Username,
		entity.PasswordHash,
		entity.Role,
		entity.Address,
		storage.NullString(entity.FamilyID),
		entity.Archived,
		storage.FormatTime(entity.CreatedAt),
		storage.FormatTime(entity.UpdatedAt),
	)
	if storage.IsUniqueViolation(err) {
		return fmt.Errorf("save account %s: %w", entity.ID, fault.ErrConflict)
	}
	return err
}

// List retrieves Accounts based on the filter, oldest first.
// PRE: filter has valid parameters
// POST: Returns matching entities
func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]domain.Account, error) {
	var where []string
	var args []any
	if filter.FamilyID != "" {
		where = append(where, "family_id = ?")
		args = append(args, filter.FamilyID)
	}
	if filter.Role != "" {
		where = append(where, "role = ?")
		args = append(args, filter.Role)
	}
	if !filter.IncludeArchived {
		where = append(where, "archived = 0")
	}

	query := selectColumns
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Account
	for rows.Next() {
		entity, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, entity)
	}
	return list, rows.Err()
}

func scanAccount(scan func(dest ...any) error) (domain.Account, error) {
	var entity domain.Account
	var familyID sql.NullString
	var createdAt, updatedAt string
	err := scan(
		&entity.ID,
		&entity.FullName,
		&entity.Email,
		&entity.Phone,
		&entity.Username,
		&entity.PasswordHash,
		&entity.Role,
		&entity.Address,
		&familyID,
		&entity.Archived,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return domain.Account{}, err
	}
	entity.FamilyID = familyID.String
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	entity.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return entity, nil
}
