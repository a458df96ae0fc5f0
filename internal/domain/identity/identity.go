package identity

import (
	"fmt"
	"strings"

	"household/internal/domain/account"
	"household/internal/domain/fault"
)

// Contact is the account data staged for one family member.
type Contact struct {
	MemberKey string `json:"memberKey"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Username  string `json:"username"`
	Password  string `json:"-"`
	Address   string `json:"address"`
	Role      string `json:"role"`
}

// Validate checks the fields createAccount needs.
// PRE: none
// POST: Returns a *fault.ValidationError for the first missing field
func (c Contact) Validate() error {
	if strings.TrimSpace(c.FullName) == "" {
		return fault.Invalid("fullName", "is required")
	}
	if !strings.Contains(c.Email, "@") {
		return fault.Invalid("email", "must contain '@'")
	}
	if strings.TrimSpace(c.Username) == "" {
		return fault.Invalid("username", "is required")
	}
	if c.Role != account.RoleGuardian && c.Role != account.RoleAthlete {
		return fault.Invalid("role", "must be guardian or athlete")
	}
	return nil
}

// EmailKey is the key decisions are recorded under.
func (c Contact) EmailKey() string {
	return account.NormalizeEmail(c.Email)
}

// Decision is the caller's answer to an email conflict.
type Decision string

const (
	// CreateNew detaches the archived account from its prior family and assigns it fresh.
	CreateNew Decision = "create_new"
	// Revive updates the existing account in place.
	Revive Decision = "revive"
)

// ParseDecision validates a decision name.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case CreateNew, Revive:
		return Decision(s), nil
	}
	return "", fault.Invalid("decision", "must be %q or %q", CreateNew, Revive)
}

// PendingDecision is the suspended state of a workflow halted on an email conflict.
type PendingDecision struct {
	MemberKey         string  `json:"memberKey"`
	Contact           Contact `json:"contact"`
	Email             string  `json:"email"`
	ExistingAccountID string  `json:"existingAccountId"`
	Archived          bool    `json:"archived"`
}

// Resolution is either Resolved or Pending.
type Resolution interface {
	isResolution()
}

// Resolved carries a usable account id.
type Resolved struct {
	AccountID string
	Created   bool
	Revived   bool
}

// Pending means the workflow must halt until a Decision is supplied.
type Pending struct {
	Decision PendingDecision
}

func (Resolved) isResolution() {}
func (Pending) isResolution()  {}

// Identity says which records a family member is backed by.
type Identity interface {
	isIdentity()
}

// Guardian is a login account without an athlete row.
type Guardian struct{ AccountID string }

// Athlete is an athlete row without a login account.
type Athlete struct{ MemberID string }

// Both is an athlete that also holds a login account.
type Both struct {
	AccountID string
	MemberID  string
}

func (Guardian) isIdentity() {}
func (Athlete) isIdentity()  {}
func (Both) isIdentity()     {}

// Of builds the variant for the ids present. ok is false when both are empty.
func Of(accountID, memberID string) (id Identity, ok bool) {
	switch {
	case accountID != "" && memberID != "":
		return Both{AccountID: accountID, MemberID: memberID}, true
	case accountID != "":
		return Guardian{AccountID: accountID}, true
	case memberID != "":
		return Athlete{MemberID: memberID}, true
	}
	return nil, false
}

// AccountOf returns the login account id of id, if it has one.
func AccountOf(id Identity) (string, bool) {
	switch v := id.(type) {
	case Guardian:
		return v.AccountID, true
	case Both:
		return v.AccountID, true
	}
	return "", false
}

// MemberOf returns the athlete id of id, if it has one.
func MemberOf(id Identity) (string, bool) {
	switch v := id.(type) {
	case Athlete:
		return v.MemberID, true
	case Both:
		return v.MemberID, true
	}
	return "", false
}

// Describe renders id for logs.
func Describe(id Identity) string {
	switch v := id.(type) {
	case Guardian:
		return "guardian:" + v.AccountID
	case Athlete:
		return "athlete:" + v.MemberID
	case Both:
		return fmt.Sprintf("both:%s/%s", v.AccountID, v.MemberID)
	}
	return "none"
}
