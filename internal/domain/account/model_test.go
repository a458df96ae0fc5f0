package account_test

import (
	"errors"
	"testing"

	"household/internal/domain/account"
	"household/internal/domain/fault"
)

// TestAccount_Validate tests validation of Account.
func TestAccount_Validate(t *testing.T) {
	valid := account.Account{
		ID:       "1",
		FullName: "Dana Reyes",
		Email:    "dana@example.com",
		Username: "dreyes",
		Role:     account.RoleGuardian,
	}
	tests := []struct {
		name    string
		mutate  func(a *account.Account)
		wantErr bool
	}{
		{"valid guardian", func(a *account.Account) {}, false},
		{"valid athlete", func(a *account.Account) { a.Role = account.RoleAthlete }, false},
		{"missing name", func(a *account.Account) { a.FullName = " " }, true},
		{"missing email", func(a *account.Account) { a.Email = "" }, true},
		{"email without at", func(a *account.Account) { a.Email = "dana.example.com" }, true},
		{"missing username", func(a *account.Account) { a.Username = "" }, true},
		{"invalid role", func(a *account.Account) { a.Role = "coach" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			err := a.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, fault.ErrValidation) {
				t.Errorf("error %v is not a validation error", err)
			}
		})
	}
}

// TestAccount_Password verifies hashing and checking.
func TestAccount_Password(t *testing.T) {
	var a account.Account
	if err := a.SetPassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}
	if err := a.SetPassword("correct horse"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if a.PasswordHash == "" || a.PasswordHash == "correct horse" {
		t.Fatal("password was not hashed")
	}
	if err := a.CheckPassword("correct horse"); err != nil {
		t.Errorf("CheckPassword(correct) = %v", err)
	}
	if err := a.CheckPassword("wrong horse"); !errors.Is(err, account.ErrWrongPassword) {
		t.Errorf("CheckPassword(wrong) = %v, want ErrWrongPassword", err)
	}
}

// TestAccount_ArchiveDetach verifies the archive lifecycle used by conflict resolution.
func TestAccount_ArchiveDetach(t *testing.T) {
	a := account.Account{ID: "1", FamilyID: "fam-1"}

	if err := a.Detach(); !errors.Is(err, fault.ErrAccountNotArchived) {
		t.Fatalf("Detach on active account = %v, want ErrAccountNotArchived", err)
	}
	if err := a.Archive(); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if err := a.Archive(); !errors.Is(err, account.ErrAlreadyArchived) {
		t.Errorf("second Archive = %v, want ErrAlreadyArchived", err)
	}
	if err := a.Detach(); err != nil {
		t.Fatalf("Detach: %v", err)
	}
	if a.Archived || a.FamilyID != "" {
		t.Errorf("after Detach: %+v, want active and unattached", a)
	}
}

// TestNormalizeEmail verifies case and whitespace are ignored.
func TestNormalizeEmail(t *testing.T) {
	if got := account.NormalizeEmail("  Dana@Example.COM "); got != "dana@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
