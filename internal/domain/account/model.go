package account

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"household/internal/domain/fault"
)

// Max length constants for user-editable fields.
const (
	MaxEmailLength    = 254
	MaxUsernameLength = 64
	MinPasswordLength = 8
)

// Role constants
const (
	RoleAdmin    = "admin"
	RoleGuardian = "guardian"
	RoleAthlete  = "athlete"
)

// ValidRoles contains all valid role values.
var ValidRoles = []string{RoleAdmin, RoleGuardian, RoleAthlete}

// Domain errors
var (
	ErrWrongPassword   = errors.New("incorrect password")
	ErrAlreadyArchived = errors.New("account is already archived")
)

// Account is a login account. A guardian's id is the id of their account.
type Account struct {
	ID           string
	FullName     string
	Email        string
	Phone        string
	Username     string
	PasswordHash string
	Role         string
	Address      string
	FamilyID     string
	Archived     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail is the key used for email uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the Account has valid data.
// PRE: Account struct is populated
// POST: Returns nil if valid, a *fault.ValidationError otherwise
func (a *Account) Validate() error {
	if strings.TrimSpace(a.FullName) == "" {
		return fault.Invalid("fullName", "is required")
	}
	if strings.TrimSpace(a.Email) == "" {
		return fault.Invalid("email", "is required")
	}
	if len(a.Email) > MaxEmailLength {
		return fault.Invalid("email", "cannot exceed %d characters", MaxEmailLength)
	}
	if !strings.Contains(a.Email, "@") {
		return fault.Invalid("email", "must contain '@'")
	}
	if strings.TrimSpace(a.Username) == "" {
		return fault.Invalid("username", "is required")
	}
	if len(a.Username) > MaxUsernameLength {
		return fault.Invalid("username", "cannot exceed %d characters", MaxUsernameLength)
	}
	if !ValidRole(a.Role) {
		return fault.Invalid("role", "must be one of: %s", strings.Join(ValidRoles, ", "))
	}
	return nil
}

// SetPassword hashes and stores a password using bcrypt.
// PRE: plaintext has at least MinPasswordLength characters
// POST: PasswordHash is set to bcrypt hash
func (a *Account) SetPassword(plaintext string) error {
	if len(plaintext) < MinPasswordLength {
		return fault.Invalid("password", "must be at least %d characters", MinPasswordLength)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

// CheckPassword verifies a plaintext password against the stored hash.
// INVARIANT: Account fields are not mutated
func (a *Account) CheckPassword(plaintext string) error {
	if a.PasswordHash == "" {
		return ErrWrongPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(plaintext)); err != nil {
		return ErrWrongPassword
	}
	return nil
}

// IsGuardian returns true for guardian accounts.
func (a *Account) IsGuardian() bool {
	return a.Role == RoleGuardian
}

// Archive soft-deletes the account.
// PRE: Account is not archived
// POST: Archived is true
func (a *Account) Archive() error {
	if a.Archived {
		return ErrAlreadyArchived
	}
	a.Archived = true
	return nil
}

// Revive clears the archived flag. Reviving an active account is a no-op.
func (a *Account) Revive() {
	a.Archived = false
}

// Detach removes the account from its family and revives it for a fresh assignment.
// PRE: Account is archived
// POST: FamilyID is empty, Archived is false
func (a *Account) Detach() error {
	if !a.Archived {
		return fault.ErrAccountNotArchived
	}
	a.FamilyID = ""
	a.Archived = false
	return nil
}

// ValidRole reports whether role is one of ValidRoles.
func ValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
