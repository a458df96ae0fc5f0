package program

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"household/internal/adapters/storage"
	"household/internal/domain/fault"
	domain "household/internal/domain/program"
)

const selectPrograms = "SELECT id, category, name, skill_level, archived, min_age, max_age FROM program"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new ProgramStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves a Program by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping fault.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Program, error) {
	entity, err := scanProgram(s.db.QueryRowContext(ctx, selectPrograms+" WHERE id = ?", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Program{}, fmt.Errorf("program %s: %w", id, fault.ErrNotFound)
	}
	return entity, err
}

// Save persists a Program to the database.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Program) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO program (id, category, name, skill_level, archived, min_age, max_age) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET category=excluded.category, name=excluded.name, skill_level=excluded.skill_level,
			archived=excluded.archived, min_age=excluded.min_age, max_age=excluded.max_age`,
		entity.ID, entity.Category, entity.Name, entity.SkillLevel, entity.Archived, entity.MinAge, entity.MaxAge,
	)
	return err
}

// List returns the programs passing f. The filter is applied in SQL; the age bounds use
// the same open upper bound as domain.Program.AcceptsAge.
// PRE: none
// POST: Returns matching programs ordered by category then name
func (s *SQLiteStore) List(ctx context.Context, f domain.Filter) ([]domain.Program, error) {
	var where []string
	var args []any
	if f.Category != "" {
		where = append(where, "lower(category) = lower(?)")
		args = append(args, f.Category)
	}
	if f.ActiveOnly {
		where = append(where, "archived = 0")
	}
	if f.HasAge {
		where = append(where, "min_age <= ? AND (max_age = 0 OR max_age >= ?)")
		args = append(args, f.Age, f.Age)
	}
	query := selectPrograms
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY category, name"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list programs: %w", err)
	}
	defer rows.Close()

	var list []domain.Program
	for rows.Next() {
		entity, err := scanProgram(rows.Scan)
		if err != nil {
			return nil, err
		}
		list = append(list, entity)
	}
	return list, rows.Err()
}

func scanProgram(scan func(dest ...any) error) (domain.Program, error) {
	var entity domain.Program
	err := scan(&entity.ID, &entity.Category, &entity.Name, &entity.SkillLevel, &entity.Archived, &entity.MinAge, &entity.MaxAge)
	return entity, err
}
