package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"household/internal/adapters/storage/storetest"
	domain "household/internal/domain/account"
	"household/internal/domain/fault"
)

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := NewSQLiteStore(storetest.OpenDB(t))
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	a := domain.Account{ID: "a1", FullName: "Dana Reyes", Email: "Dana@Example.com", Username: "dana",
		Role: domain.RoleGuardian, Address: "1 Main St, Springfield, IL, 62701", CreatedAt: now, UpdatedAt: now}
	if err := store.Save(ctx, a); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.GetByEmail(ctx, "  dana@example.COM ")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if got.ID != "a1" || got.Email != "Dana@Example.com" || !got.CreatedAt.Equal(now) || got.FamilyID != "" {
		t.Errorf("got %+v", got)
	}

	got.FamilyID = "f1"
	got.Archived = true
	if err := store.Save(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = store.GetByID(ctx, "a1")
	if got.FamilyID != "f1" || !got.Archived {
		t.Errorf("after update %+v", got)
	}
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := NewSQLiteStore(storetest.OpenDB(t))
	if _, err := store.GetByID(context.Background(), "missing"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("GetByID err = %v", err)
	}
	if _, err := store.GetByEmail(context.Background(), "x@y.z"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("GetByEmail err = %v", err)
	}
}

func TestSQLiteStore_EmailUniqueIgnoresCase(t *testing.T) {
	store := NewSQLiteStore(storetest.OpenDB(t))
	ctx := context.Background()
	if err := store.Save(ctx, domain.Account{ID: "a1", FullName: "A", Email: "sam@x.com", Username: "a", Role: domain.RoleGuardian}); err != nil {
		t.Fatal(err)
	}
	err := store.Save(ctx, domain.Account{ID: "a2", FullName: "B", Email: "SAM@x.com", Username: "b", Role: domain.RoleGuardian})
	if !errors.Is(err, fault.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
}

func TestSQLiteStore_List(t *testing.T) {
	store := NewSQLiteStore(storetest.OpenDB(t))
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	accounts := []domain.Account{
		{ID: "a1", FullName: "A", Email: "a@x.com", Username: "a", Role: domain.RoleGuardian, FamilyID: "f1", CreatedAt: base},
		{ID: "a2", FullName: "B", Email: "b@x.com", Username: "b", Role: domain.RoleAthlete, FamilyID: "f1", CreatedAt: base.Add(time.Hour)},
		{ID: "a3", FullName: "C", Email: "c@x.com", Username: "c", Role: domain.RoleGuardian, FamilyID: "f1", Archived: true, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "a4", FullName: "D", Email: "d@x.com", Username: "d", Role: domain.RoleGuardian, FamilyID: "f2", CreatedAt: base},
	}
	for _, a := range accounts {
		if err := store.Save(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter ListFilter
		want   []string
	}{
		{"family active", ListFilter{FamilyID: "f1"}, []string{"a1", "a2"}},
		{"family with archived", ListFilter{FamilyID: "f1", IncludeArchived: true}, []string{"a1", "a2", "a3"}},
		{"guardians", ListFilter{Role: domain.RoleGuardian}, []string{"a1", "a4"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("ids = %v, want %v", ids, tt.want)
				}
			}
		})
	}
}
