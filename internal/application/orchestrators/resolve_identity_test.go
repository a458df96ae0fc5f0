package orchestrators

import (
	"context"
	"errors"
	"testing"

	"household/internal/domain/account"
	"household/internal/domain/fault"
	"household/internal/domain/identity"
)

func guardianContact() identity.Contact {
	return identity.Contact{
		MemberKey: "k1",
		FullName:  "Dana Reyes",
		Email:     "dana@example.com",
		Username:  "dana",
		Password:  "correct horse",
		Role:      account.RoleGuardian,
	}
}

func TestResolveIdentity_Created(t *testing.T) {
	dir := newFakeDirectory()
	res, err := ExecuteResolveIdentity(context.Background(), guardianContact(), ResolveIdentityDeps{Accounts: dir})
	if err != nil {
		t.Fatal(err)
	}
	resolved, ok := res.(identity.Resolved)
	if !ok || resolved.AccountID == "" || !resolved.Created {
		t.Errorf("resolution = %#v", res)
	}
}

func TestResolveIdentity_ConflictIsPending(t *testing.T) {
	dir := newFakeDirectory()
	dir.seedAccount("old-1", "dana@example.com", "fam-old", true)

	res, err := ExecuteResolveIdentity(context.Background(), guardianContact(), ResolveIdentityDeps{Accounts: dir})
	if err != nil {
		t.Fatal(err)
	}
	pending, ok := res.(identity.Pending)
	if !ok {
		t.Fatalf("resolution = %T, want Pending", res)
	}
	if pending.Decision.ExistingAccountID != "old-1" || !pending.Decision.Archived || pending.Decision.Email != "dana@example.com" {
		t.Errorf("pending = %+v", pending.Decision)
	}
	if dir.count("createAccount") != 1 {
		t.Errorf("conflict was retried: %v", dir.calls)
	}
}

func TestResolveIdentity_OtherErrorsAreFatal(t *testing.T) {
	dir := newFakeDirectory()
	dir.createAccountErr = fault.Invalid("username", "is taken")

	res, err := ExecuteResolveIdentity(context.Background(), guardianContact(), ResolveIdentityDeps{Accounts: dir})
	if res != nil || !errors.Is(err, fault.ErrValidation) {
		t.Errorf("res = %v, err = %v", res, err)
	}
}

func TestResolveIdentity_InvalidContact(t *testing.T) {
	dir := newFakeDirectory()
	c := guardianContact()
	c.Username = ""
	if _, err := ExecuteResolveIdentity(context.Background(), c, ResolveIdentityDeps{Accounts: dir}); !errors.Is(err, fault.ErrValidation) {
		t.Errorf("err = %v", err)
	}
	if len(dir.calls) != 0 {
		t.Errorf("remote calls issued: %v", dir.calls)
	}
}

// TestApplyDecision_CreateNew checks create_new against archived and active accounts.
func TestApplyDecision_CreateNew(t *testing.T) {
	t.Run("archived account is reassigned", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.seedAccount("old-1", "dana@example.com", "fam-old", true)
		pending := identity.PendingDecision{MemberKey: "k1", Contact: guardianContact(), Email: "dana@example.com", ExistingAccountID: "old-1", Archived: true}

		got, err := ExecuteApplyDecision(context.Background(), pending, identity.CreateNew, ResolveIdentityDeps{Accounts: dir})
		if err != nil {
			t.Fatal(err)
		}
		if got.AccountID != "old-1" || !got.Created {
			t.Errorf("resolved = %+v", got)
		}
		if a := dir.accounts["old-1"]; a.archived || a.familyID != "" || a.req.FullName != "Dana Reyes" {
			t.Errorf("account = %+v", a)
		}
	})

	t.Run("active account is refused locally", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.seedAccount("old-1", "dana@example.com", "fam-old", false)
		pending := identity.PendingDecision{Contact: guardianContact(), Email: "dana@example.com", ExistingAccountID: "old-1", Archived: false}

		_, err := ExecuteApplyDecision(context.Background(), pending, identity.CreateNew, ResolveIdentityDeps{Accounts: dir})
		if !errors.Is(err, fault.ErrAccountNotArchived) {
			t.Errorf("err = %v, want ErrAccountNotArchived", err)
		}
		if len(dir.calls) != 0 {
			t.Errorf("remote calls issued: %v", dir.calls)
		}
	})

	t.Run("account revived elsewhere is refused by the service", func(t *testing.T) {
		dir := newFakeDirectory()
		dir.seedAccount("old-1", "dana@example.com", "fam-old", false)
		pending := identity.PendingDecision{Contact: guardianContact(), Email: "dana@example.com", ExistingAccountID: "old-1", Archived: true}

		_, err := ExecuteApplyDecision(context.Background(), pending, identity.CreateNew, ResolveIdentityDeps{Accounts: dir})
		if !errors.Is(err, fault.ErrAccountNotArchived) {
			t.Errorf("err = %v, want ErrAccountNotArchived", err)
		}
	})
}

// TestApplyDecision_Revive updates the existing account in place.
func TestApplyDecision_Revive(t *testing.T) {
	dir := newFakeDirectory()
	dir.seedAccount("old-1", "dana@example.com", "fam-old", true)
	pending := identity.PendingDecision{Contact: guardianContact(), Email: "dana@example.com", ExistingAccountID: "old-1", Archived: true}

	got, err := ExecuteApplyDecision(context.Background(), pending, identity.Revive, ResolveIdentityDeps{Accounts: dir})
	if err != nil {
		t.Fatal(err)
	}
	if got.AccountID != "old-1" || !got.Revived {
		t.Errorf("resolved = %+v", got)
	}
	a := dir.accounts["old-1"]
	if a.archived || a.familyID != "fam-old" || a.req.Username != "dana" {
		t.Errorf("account = %+v", a)
	}
}

func TestApplyDecision_Unknown(t *testing.T) {
	_, err := ExecuteApplyDecision(context.Background(), identity.PendingDecision{}, "merge", ResolveIdentityDeps{Accounts: newFakeDirectory()})
	if !errors.Is(err, fault.ErrValidation) {
		t.Errorf("err = %v", err)
	}
}
