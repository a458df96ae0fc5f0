package enrollment

import (
	"context"
	"errors"
	"slices"
	"testing"

	"household/internal/adapters/storage/storetest"
	domain "household/internal/domain/enrollment"
	"household/internal/domain/fault"
)

func TestSQLiteStore_UpsertIsKeyedOnMemberAndProgram(t *testing.T) {
	db := storetest.OpenDB(t)
	storetest.Exec(t, db,
		`INSERT INTO family (id, name, primary_account_id, created_at, updated_at) VALUES ('f1', '', 'g1', '', '')`,
		`INSERT INTO member (id, family_id, first_name, last_name, status, created_at, updated_at) VALUES ('m1', 'f1', 'Mia', 'R', 'stand-by', '', '')`,
		`INSERT INTO program (id, category, name) VALUES ('p1', 'swim', 'Swim')`,
		`INSERT INTO program (id, category, name) VALUES ('p2', 'tennis', 'Tennis')`,
	)
	store := NewSQLiteStore(db)
	ctx := context.Background()

	first, err := store.Upsert(ctx, domain.Enrollment{ID: "e1", ProgramID: "p1", MemberID: "m1", DaysPerWeek: 1, SelectedDays: []string{"Mon"}})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	second, err := store.Upsert(ctx, domain.Enrollment{ID: "e-ignored", ProgramID: "p1", MemberID: "m1", DaysPerWeek: 2, SelectedDays: []string{"Tue", "Thu"}})
	if err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if first.ID != "e1" || second.ID != "e1" || !slices.Equal(second.SelectedDays, []string{"Tue", "Thu"}) {
		t.Errorf("first = %+v, second = %+v", first, second)
	}

	if _, err := store.Upsert(ctx, domain.Enrollment{ID: "e2", ProgramID: "p2", MemberID: "m1", DaysPerWeek: 1, SelectedDays: []string{"Sat"}}); err != nil {
		t.Fatal(err)
	}
	list, err := store.ListByMember(ctx, "m1")
	if err != nil || len(list) != 2 {
		t.Fatalf("list = %+v, %v", list, err)
	}

	if err := store.Delete(ctx, "e1"); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "e1"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if _, err := store.GetByID(ctx, "e1"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("GetByID err = %v", err)
	}
}
