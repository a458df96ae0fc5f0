package program

import (
	"context"
	"errors"
	"slices"
	"testing"

	"household/internal/adapters/storage/storetest"
	"household/internal/domain/fault"
	domain "household/internal/domain/program"
)

func TestSQLiteStore_SaveGetList(t *testing.T) {
	store := NewSQLiteStore(storetest.OpenDB(t))
	ctx := context.Background()

	programs := []domain.Program{
		{ID: "t1", Category: "tennis", Name: "Junior Tennis", SkillLevel: "beginner", MinAge: 6, MaxAge: 12},
		{ID: "s1", Category: "swim", Name: "Swim Basics", MinAge: 4},
	}
	for _, p := range programs {
		if err := store.Save(ctx, p); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := store.GetByID(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got != programs[0] {
		t.Errorf("got %+v, want %+v", got, programs[0])
	}

	programs[1].Archived = true
	store.Save(ctx, programs[1])
	list, err := store.List(ctx, domain.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "s1" || !list[0].Archived {
		t.Errorf("list = %+v", list)
	}

	if _, err := store.GetByID(ctx, "missing"); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestSQLiteStore_ListFilters(t *testing.T) {
	store := NewSQLiteStore(storetest.OpenDB(t))
	ctx := context.Background()
	for _, p := range []domain.Program{
		{ID: "swim", Category: "swim", Name: "Swim Basics", MinAge: 5, MaxAge: 9},
		{ID: "swim-adv", Category: "swim", Name: "Swim Squad", MinAge: 10},
		{ID: "tennis", Category: "tennis", Name: "Adult Tennis", MinAge: 18},
		{ID: "gym", Category: "gym", Name: "Gymnastics", Archived: true},
	} {
		if err := store.Save(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	tests := []struct {
		name   string
		filter domain.Filter
		want   []string
	}{
		{"all", domain.Filter{}, []string{"gym", "swim", "swim-adv", "tennis"}},
		{"active", domain.Filter{ActiveOnly: true}, []string{"swim", "swim-adv", "tennis"}},
		{"category", domain.Filter{Category: "Swim"}, []string{"swim", "swim-adv"}},
		{"age in closed range", domain.Filter{Age: 7, HasAge: true, ActiveOnly: true}, []string{"swim"}},
		{"age with open upper bound", domain.Filter{Age: 40, HasAge: true, ActiveOnly: true}, []string{"swim-adv", "tennis"}},
		{"nothing", domain.Filter{Category: "rowing"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			var ids []string
			for _, p := range list {
				if !tt.filter.Match(p) {
					t.Errorf("%s returned but does not match", p.ID)
				}
				ids = append(ids, p.ID)
			}
			if !slices.Equal(ids, tt.want) {
				t.Errorf("List = %v, want %v", ids, tt.want)
			}
		})
	}
}
