package family

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"household/internal/adapters/storage"
	domain "household/internal/domain/family"
	"household/internal/domain/fault"
	"household/internal/domain/member"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new FamilyStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Family and its guardians in attach order.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping fault.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Family, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, primary_account_id, archived, created_at, updated_at FROM family WHERE id = ?", id)
	entity, err := scanFamily(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Family{}, fmt.Errorf("family %s: %w", id, fault.ErrNotFound)
	}
	if err != nil {
		return domain.Family{}, err
	}
	entity.GuardianIDs, err = s.guardians(ctx, id)
	return entity, err
}

func (s *SQLiteStore) guardians(ctx context.Context, familyID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT account_id FROM family_guardian WHERE family_id = ? ORDER BY position", familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Save persists a Family and replaces its guardian list. Guardian accounts are pointed at
// the family.
// PRE: entity has been validated
// POST: Entity and guardian rows persisted atomically
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Family) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO family (id, name, primary_account_id, archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, primary_account_id=excluded.primary_account_id,
			archived=excluded.archived, updated_at=excluded.updated_at`,
		entity.ID, entity.Name, entity.PrimaryAccountID, entity.Archived,
		storage.FormatTime(entity.CreatedAt), storage.FormatTime(entity.UpdatedAt))
	if err != nil {
		return fmt.Errorf("save family %s: %w", entity.ID, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM family_guardian WHERE family_id = ?", entity.ID); err != nil {
		return err
	}
	for i, accountID := range entity.GuardianIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO family_guardian (family_id, account_id, position) VALUES (?, ?, ?)",
			entity.ID, accountID, i); err != nil {
			return fmt.Errorf("attach guardian %s: %w", accountID, err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE account SET family_id = ? WHERE id = ?", entity.ID, accountID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Search returns families whose name, or a guardian's name or email, contains query.
// An empty query lists every family. Results are ordered by name.
func (s *SQLiteStore) Search(ctx context.Context, query string) ([]domain.Family, error) {
	sqlText := "SELECT id, name, primary_account_id, archived, created_at, updated_at FROM family"
	var args []any
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		sqlText += ` WHERE lower(name) LIKE ? OR id IN (
			SELECT fg.family_id FROM family_guardian fg JOIN account a ON a.id = fg.account_id
			WHERE lower(a.full_name) LIKE ? OR a.email_key LIKE ?)`
		args = append(args, like, like, like)
	}
	sqlText += " ORDER BY name, id"

	rows, err := s.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	var list []domain.Family
	for rows.Next() {
		entity, err := scanFamily(rows.Scan)
		if err != nil {
			rows.Close()
			return nil, err
		}
		list = append(list, entity)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range list {
		if list[i].GuardianIDs, err = s.guardians(ctx, list[i].ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// SetArchived archives or restores a family with its accounts and members.
// PRE: id is non-empty
// POST: accounts follow the flag; members are archived, or restored to a status derived
// from their enrollments
func (s *SQLiteStore) SetArchived(ctx context.Context, id string, archived bool, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := storage.FormatTime(at)
	res, err := tx.ExecContext(ctx, "UPDATE family SET archived = ?, updated_at = ? WHERE id = ?", archived, now, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("family %s: %w", id, fault.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE account SET archived = ?, updated_at = ? WHERE family_id = ?", archived, now, id); err != nil {
		return err
	}

	if archived {
		_, err = tx.ExecContext(ctx, "UPDATE member SET status = ?, updated_at = ? WHERE family_id = ?",
			member.StatusArchived, now, id)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE member SET updated_at = ?, status = CASE
			WHEN EXISTS (SELECT 1 FROM enrollment e WHERE e.member_id = member.id) THEN ?
			ELSE ? END
			WHERE family_id = ?`, now, member.StatusEnrolled, member.StatusStandBy, id)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveGuardian takes an account off a family's guardian list and clears its family
// link. When the account was primary, the next guardian in attach order takes over;
// a family left without guardians keeps an empty primary.
// PRE: familyID and accountID are non-empty
// POST: no family_guardian row joins the two; the family's primary is not accountID
func (s *SQLiteStore) RemoveGuardian(ctx context.Context, familyID, accountID string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := storage.FormatTime(at)
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM family_guardian WHERE family_id = ? AND account_id = ?", familyID, accountID); err != nil {
		return fmt.Errorf("remove guardian %s from %s: %w", accountID, familyID, err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE family SET updated_at = ?, primary_account_id = CASE
		WHEN primary_account_id = ? THEN COALESCE(
			(SELECT account_id FROM family_guardian WHERE family_id = family.id ORDER BY position LIMIT 1), '')
		ELSE primary_account_id END
		WHERE id = ?`, now, accountID, familyID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("family %s: %w", familyID, fault.ErrNotFound)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE account SET family_id = NULL, updated_at = ? WHERE id = ? AND family_id = ?", now, accountID, familyID); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a family, its members and their enrollments. Accounts of the family
// survive detached and archived so their emails can be reused.
// PRE: id is non-empty
// POST: no row references the family
func (s *SQLiteStore) Delete(ctx context.Context, id string, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := storage.FormatTime(at)
	if _, err := tx.ExecContext(ctx,
		"UPDATE account SET family_id = NULL, archived = 1, updated_at = ? WHERE family_id = ?", now, id); err != nil {
		return err
	}
	for _, stmt := range []string{
		"DELETE FROM enrollment WHERE member_id IN (SELECT id FROM member WHERE family_id = ?)",
		"DELETE FROM member WHERE family_id = ?",
		"DELETE FROM family_guardian WHERE family_id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM family WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("family %s: %w", id, fault.ErrNotFound)
	}
	return tx.Commit()
}

func scanFamily(scan func(dest ...any) error) (domain.Family, error) {
	var entity domain.Family
	var createdAt, updatedAt string
	if err := scan(&entity.ID, &entity.Name, &entity.PrimaryAccountID, &entity.Archived, &createdAt, &updatedAt); err != nil {
		return domain.Family{}, err
	}
	entity.CreatedAt, _ = storage.ParseTime(createdAt)
	entity.UpdatedAt, _ = storage.ParseTime(updatedAt)
	return entity, nil
}
