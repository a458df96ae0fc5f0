// Package directory defines the family/member/enrollment persistence service the
// workflows run against. localdir implements it in-process; apiclient over HTTP.
package directory

import (
	"context"

	"household/internal/domain/enrollment"
	"household/internal/domain/family"
	"household/internal/domain/program"
)

// AccountRequest carries the fields of createAccount and updateAccount.
type AccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role"`
	Address  string `json:"address"`
	// DetachArchived asks createAccount to take over an archived account with the same
	// email: it is removed from its prior family and assigned fresh.
	DetachArchived bool `json:"detachArchived,omitempty"`
	// Restore clears the archived flag on update.
	Restore bool `json:"restore,omitempty"`
}

// FamilyRequest carries the fields of createFamily and updateFamily.
type FamilyRequest struct {
	Name             string   `json:"name,omitempty"`
	PrimaryAccountID string   `json:"primaryAccountId"`
	GuardianIDs      []string `json:"guardianIds"`
}

// MemberRequest carries the fields of createMember and updateMember.
type MemberRequest struct {
	FamilyID      string `json:"familyId"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	DateOfBirth   string `json:"dateOfBirth,omitempty"`
	MedicalNotes  string `json:"medicalNotes,omitempty"`
	InternalFlags string `json:"internalFlags,omitempty"`
	AccountID     string `json:"accountId,omitempty"`
}

// Accounts manages login accounts.
type Accounts interface {
	// CreateAccount returns *fault.ConflictError when the email is taken.
	CreateAccount(ctx context.Context, req AccountRequest) (string, error)
	UpdateAccount(ctx context.Context, id string, req AccountRequest) error
}

// Families manages households.
type Families interface {
	CreateFamily(ctx context.Context, req FamilyRequest) (string, error)
	GetFamily(ctx context.Context, id string) (family.Family, error)
	UpdateFamily(ctx context.Context, id string, req FamilyRequest) error
	SearchFamilies(ctx context.Context, query string) ([]family.Family, error)
	ArchiveFamily(ctx context.Context, id string, archived bool) error
	// DeleteFamily cascades to members and enrollments.
	DeleteFamily(ctx context.Context, id string) error
}

// Members manages athlete rows.
type Members interface {
	CreateMember(ctx context.Context, req MemberRequest) (string, error)
	UpdateMember(ctx context.Context, id string, req MemberRequest) error
}

// Enrollments manages program enrollments.
type Enrollments interface {
	ListEnrollments(ctx context.Context, memberID string) ([]enrollment.Enrollment, error)
	// UpsertEnrollment is idempotent on ProgramID+MemberID.
	UpsertEnrollment(ctx context.Context, req enrollment.Upsert) error
	DeleteEnrollment(ctx context.Context, id string) error
}

// Catalog reads the program catalog.
type Catalog interface {
	ListPrograms(ctx context.Context, filter program.Filter) ([]program.Program, error)
}

// Directory is the whole service.
type Directory interface {
	Accounts
	Families
	Members
	Enrollments
	Catalog
}
