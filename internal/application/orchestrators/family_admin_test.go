package orchestrators

import (
	"context"
	"errors"
	"slices"
	"testing"

	"household/internal/adapters/events"
	"household/internal/domain/family"
	"household/internal/domain/fault"
)

func familyFixture(id, guardianID string) family.Family {
	return family.Family{ID: id, Name: "Reyes", PrimaryAccountID: guardianID, GuardianIDs: []string{guardianID}}
}

func TestSearchFamilies(t *testing.T) {
	dir := newFakeDirectory()
	dir.families["fam-1"] = familyFixture("fam-1", "g-1")
	found, err := ExecuteSearchFamilies(context.Background(), "  rey ", FamilyAdminDeps{Families: dir})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || !slices.Equal(dir.calls, []string{"searchFamilies:rey"}) {
		t.Errorf("found = %v, calls = %v", found, dir.calls)
	}
}

func TestArchiveFamily_PublishesEvent(t *testing.T) {
	dir := newFakeDirectory()
	dir.families["fam-1"] = familyFixture("fam-1", "g-1")
	rec := &events.Recorder{}
	deps := FamilyAdminDeps{Families: dir, Events: rec}

	if err := ExecuteArchiveFamily(context.Background(), ArchiveFamilyInput{FamilyID: "fam-1", Archived: true}, deps); err != nil {
		t.Fatal(err)
	}
	if err := ExecuteArchiveFamily(context.Background(), ArchiveFamilyInput{FamilyID: "fam-1"}, deps); err != nil {
		t.Fatal(err)
	}
	if got := rec.Subjects(); !slices.Equal(got, []string{events.FamilyArchived, events.FamilyRestored}) {
		t.Errorf("events = %v", got)
	}
	if err := ExecuteArchiveFamily(context.Background(), ArchiveFamilyInput{FamilyID: "missing", Archived: true}, deps); !errors.Is(err, fault.ErrNotFound) {
		t.Errorf("missing family err = %v", err)
	}
}

func TestDeleteFamily_RequiresConfirmation(t *testing.T) {
	dir := newFakeDirectory()
	dir.families["fam-1"] = familyFixture("fam-1", "g-1")
	deps := FamilyAdminDeps{Families: dir}

	err := ExecuteDeleteFamily(context.Background(), DeleteFamilyInput{FamilyID: "fam-1", Confirm: "yes"}, deps)
	if !errors.Is(err, fault.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
	if len(dir.calls) != 0 {
		t.Fatalf("delete issued without confirmation: %v", dir.calls)
	}
	if err := ExecuteDeleteFamily(context.Background(), DeleteFamilyInput{FamilyID: "fam-1", Confirm: "fam-1"}, deps); err != nil {
		t.Fatal(err)
	}
	if _, ok := dir.families["fam-1"]; ok {
		t.Error("family still stored")
	}
}
