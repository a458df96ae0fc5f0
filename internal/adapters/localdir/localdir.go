// Package localdir implements directory.Directory in-process on top of the SQLite stores.
// It is the service behind the HTTP API and the default backend of the workflow.
package localdir

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"household/internal/adapters/storage"
	accountStore "household/internal/adapters/storage/account"
	enrollmentStore "household/internal/adapters/storage/enrollment"
	familyStore "household/internal/adapters/storage/family"
	memberStore "household/internal/adapters/storage/member"
	programStore "household/internal/adapters/storage/program"
	"household/internal/application/directory"
	"household/internal/domain/account"
	"household/internal/domain/age"
	"household/internal/domain/enrollment"
	"household/internal/domain/family"
	"household/internal/domain/fault"
	"household/internal/domain/member"
	"household/internal/domain/program"
)

// Compile-time check that *Directory satisfies directory.Directory.
var _ directory.Directory = (*Directory)(nil)

// Directory is the persistence service.
type Directory struct {
	Accounts    accountStore.Store
	Families    familyStore.Store
	Members     memberStore.Store
	Enrollments enrollmentStore.Store
	Programs    programStore.Store
	Clock       clockwork.Clock
	NewID       func() string
}

// New wires a Directory over db using the SQLite stores.
// PRE: db has the schema applied
// POST: Returns a ready Directory; a nil clock means the real clock
func New(db storage.SQLDB, clock clockwork.Clock) *Directory {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Directory{
		Accounts:    accountStore.NewSQLiteStore(db),
		Families:    familyStore.NewSQLiteStore(db),
		Members:     memberStore.NewSQLiteStore(db),
		Enrollments: enrollmentStore.NewSQLiteStore(db),
		Programs:    programStore.NewSQLiteStore(db),
		Clock:       clock,
		NewID:       uuid.NewString,
	}
}

// CreateAccount creates a login account.
// PRE: req carries name, email, username and role
// POST: Returns the new id; a taken email yields *fault.ConflictError unless
// DetachArchived is set and the holder is archived, in which case that account leaves
// its prior family's guardian list and is reassigned
func (d *Directory) CreateAccount(ctx context.Context, req directory.AccountRequest) (string, error) {
	now := d.Clock.Now()

	existing, err := d.Accounts.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		if !req.DetachArchived {
			return "", &fault.ConflictError{Email: strings.TrimSpace(req.Email), AccountID: existing.ID, Archived: existing.Archived}
		}
		prior := existing.FamilyID
		if err := existing.Detach(); err != nil {
			return "", err
		}
		if err := applyAccount(&existing, req); err != nil {
			return "", err
		}
		if prior != "" {
			if err := d.Families.RemoveGuardian(ctx, prior, existing.ID, now); err != nil {
				return "", fmt.Errorf("detach account %s from %s: %w", existing.ID, prior, err)
			}
		}
		existing.UpdatedAt = now
		if err := d.Accounts.Save(ctx, existing); err != nil {
			return "", fmt.Errorf("reassign account %s: %w", existing.ID, err)
		}
		slog.Info("account_event", "event", "archived_account_detached", "account_id", existing.ID, "prior_family_id", prior)
		return existing.ID, nil

	case !errors.Is(err, fault.ErrNotFound):
		return "", fmt.Errorf("look up %s: %w", req.Email, err)
	}

	a := account.Account{ID: d.NewID(), CreatedAt: now, UpdatedAt: now}
	if err := applyAccount(&a, req); err != nil {
		return "", err
	}
	if err := d.Accounts.Save(ctx, a); err != nil {
		return "", fmt.Errorf("create account: %w", err)
	}
	slog.Info("account_event", "event", "account_created", "account_id", a.ID, "role", a.Role)
	return a.ID, nil
}

// UpdateAccount replaces the editable fields of an account. An empty Role or Password
// keeps the stored value; Restore clears the archived flag.
// PRE: id exists
// POST: account saved; moving to an email held by another account is a conflict
func (d *Directory) UpdateAccount(ctx context.Context, id string, req directory.AccountRequest) error {
	a, err := d.Accounts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if other, err := d.Accounts.GetByEmail(ctx, req.Email); err == nil && other.ID != id {
		return &fault.ConflictError{Email: strings.TrimSpace(req.Email), AccountID: other.ID, Archived: other.Archived}
	}

	if req.Role == "" {
		req.Role = a.Role
	}
	if err := applyAccount(&a, req); err != nil {
		return err
	}
	if req.Restore && a.Archived {
		a.Revive()
		slog.Info("account_event", "event", "account_revived", "account_id", id)
	}
	a.UpdatedAt = d.Clock.Now()
	return d.Accounts.Save(ctx, a)
}

func applyAccount(a *account.Account, req directory.AccountRequest) error {
	a.FullName = strings.TrimSpace(req.FullName)
	a.Email = strings.TrimSpace(req.Email)
	a.Phone = strings.TrimSpace(req.Phone)
	a.Username = strings.TrimSpace(req.Username)
	a.Role = req.Role
	a.Address = req.Address
	if err := a.Validate(); err != nil {
		return err
	}
	if req.Password != "" {
		return a.SetPassword(req.Password)
	}
	return nil
}

// CreateFamily stores a new family. The primary guardian is added to the guardian list
// when missing.
// PRE: every guardian id names an existing account
// POST: Returns the new id; guardian accounts point at the family
func (d *Directory) CreateFamily(ctx context.Context, req directory.FamilyRequest) (string, error) {
	now := d.Clock.Now()
	f := family.Family{
		ID:               d.NewID(),
		Name:             strings.TrimSpace(req.Name),
		PrimaryAccountID: req.PrimaryAccountID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if f.PrimaryAccountID != "" {
		f.AddGuardian(f.PrimaryAccountID)
	}
	for _, id := range req.GuardianIDs {
		f.AddGuardian(id)
	}
	if err := d.saveFamily(ctx, f); err != nil {
		return "", err
	}
	slog.Info("family_event", "event", "family_created", "family_id", f.ID, "guardians", len(f.GuardianIDs))
	return f.ID, nil
}

// GetFamily returns a family with its guardians.
func (d *Directory) GetFamily(ctx context.Context, id string) (family.Family, error) {
	return d.Families.GetByID(ctx, id)
}

// UpdateFamily replaces the name, primary guardian and guardian list. Empty fields keep
// the stored values.
// PRE: id exists
// POST: family saved; the primary stays in the guardian list
func (d *Directory) UpdateFamily(ctx context.Context, id string, req directory.FamilyRequest) error {
	f, err := d.Families.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req.Name != "" {
		f.Name = strings.TrimSpace(req.Name)
	}
	if req.PrimaryAccountID != "" {
		f.PrimaryAccountID = req.PrimaryAccountID
	}
	if req.GuardianIDs != nil {
		f.GuardianIDs = nil
		for _, gid := range req.GuardianIDs {
			f.AddGuardian(gid)
		}
	}
	f.UpdatedAt = d.Clock.Now()
	return d.saveFamily(ctx, f)
}

func (d *Directory) saveFamily(ctx context.Context, f family.Family) error {
	if err := f.Validate(); err != nil {
		return err
	}
	for _, gid := range f.GuardianIDs {
		if _, err := d.Accounts.GetByID(ctx, gid); err != nil {
			if errors.Is(err, fault.ErrNotFound) {
				return fault.Invalid("guardianIds", "unknown account %s", gid)
			}
			return err
		}
	}
	return d.Families.Save(ctx, f)
}

// SearchFamilies returns families matching query by family name, guardian name or email.
func (d *Directory) SearchFamilies(ctx context.Context, query string) ([]family.Family, error) {
	return d.Families.Search(ctx, query)
}

// ArchiveFamily archives or restores a family with its accounts and members.
func (d *Directory) ArchiveFamily(ctx context.Context, id string, archived bool) error {
	if err := d.Families.SetArchived(ctx, id, archived, d.Clock.Now()); err != nil {
		return err
	}
	slog.Info("family_event", "event", "family_archive_set", "family_id", id, "archived", archived)
	return nil
}

// DeleteFamily removes a family, its members and their enrollments.
func (d *Directory) DeleteFamily(ctx context.Context, id string) error {
	return d.Families.Delete(ctx, id, d.Clock.Now())
}

// CreateMember adds an athlete to an active family. New members start on stand-by.
// PRE: the family exists and is not archived
// POST: Returns the new id; a linked account is attached to the family
func (d *Directory) CreateMember(ctx context.Context, req directory.MemberRequest) (string, error) {
	if err := d.requireActiveFamily(ctx, req.FamilyID); err != nil {
		return "", err
	}
	now := d.Clock.Now()
	m := member.Member{ID: d.NewID(), Status: member.StatusStandBy, CreatedAt: now, UpdatedAt: now}
	applyMember(&m, req)
	if err := m.Validate(); err != nil {
		return "", err
	}
	if err := d.linkAccount(ctx, m.AccountID, m.FamilyID); err != nil {
		return "", err
	}
	if err := d.Members.Save(ctx, m); err != nil {
		return "", err
	}
	slog.Info("member_event", "event", "member_created", "member_id", m.ID, "family_id", m.FamilyID)
	return m.ID, nil
}

// UpdateMember replaces the editable fields of a member. Status is maintained by the
// service and members cannot change family.
// PRE: id exists
// POST: member saved
func (d *Directory) UpdateMember(ctx context.Context, id string, req directory.MemberRequest) error {
	m, err := d.Members.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if req.FamilyID == "" {
		req.FamilyID = m.FamilyID
	}
	if req.FamilyID != m.FamilyID {
		return fault.Invalid("familyId", "a member cannot move to another family")
	}
	applyMember(&m, req)
	m.UpdatedAt = d.Clock.Now()
	if err := m.Validate(); err != nil {
		return err
	}
	if err := d.linkAccount(ctx, m.AccountID, m.FamilyID); err != nil {
		return err
	}
	return d.Members.Save(ctx, m)
}

func applyMember(m *member.Member, req directory.MemberRequest) {
	m.FamilyID = req.FamilyID
	m.FirstName = strings.TrimSpace(req.FirstName)
	m.LastName = strings.TrimSpace(req.LastName)
	m.DateOfBirth = strings.TrimSpace(req.DateOfBirth)
	m.MedicalNotes = req.MedicalNotes
	m.InternalFlags = req.InternalFlags
	m.AccountID = req.AccountID
}

func (d *Directory) requireActiveFamily(ctx context.Context, familyID string) error {
	if familyID == "" {
		return fault.Invalid("familyId", "is required")
	}
	f, err := d.Families.GetByID(ctx, familyID)
	if err != nil {
		return err
	}
	if f.Archived {
		return fault.Invalid("familyId", "family %s is archived", familyID)
	}
	return nil
}

// linkAccount points an athlete's login account at the member's family so family
// archive and delete reach it.
func (d *Directory) linkAccount(ctx context.Context, accountID, familyID string) error {
	if accountID == "" {
		return nil
	}
	a, err := d.Accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return fault.Invalid("accountId", "unknown account %s", accountID)
		}
		return err
	}
	if a.FamilyID == familyID {
		return nil
	}
	a.FamilyID = familyID
	a.UpdatedAt = d.Clock.Now()
	return d.Accounts.Save(ctx, a)
}

// ListEnrollments returns a member's enrollments.
// PRE: memberID exists
func (d *Directory) ListEnrollments(ctx context.Context, memberID string) ([]enrollment.Enrollment, error) {
	if _, err := d.Members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}
	return d.Enrollments.ListByMember(ctx, memberID)
}

// ListPrograms returns catalog programs passing filter, ordered by category then name.
func (d *Directory) ListPrograms(ctx context.Context, filter program.Filter) ([]program.Program, error) {
	return d.Programs.List(ctx, filter)
}

// UpsertEnrollment creates or updates the enrollment for (member, program).
// PRE: the member is not archived; the program is active and accepts the member's age
// POST: stored; the member's status is recomputed
func (d *Directory) UpsertEnrollment(ctx context.Context, req enrollment.Upsert) error {
	if err := req.Validate(); err != nil {
		return err
	}
	m, err := d.Members.GetByID(ctx, req.MemberID)
	if err != nil {
		return err
	}
	if m.IsArchived() {
		return fault.Invalid("memberId", "member %s is archived", m.ID)
	}
	p, err := d.Programs.GetByID(ctx, req.ProgramID)
	if errors.Is(err, fault.ErrNotFound) {
		return &fault.InvalidEnrollmentError{ProgramID: req.ProgramID, Reason: "unknown program"}
	}
	if err != nil {
		return err
	}
	if !p.IsActive() {
		return &fault.InvalidEnrollmentError{ProgramID: p.ID, Reason: "program is archived"}
	}
	if c, err := age.ClassifyDate(m.DateOfBirth, d.Clock.Now()); err == nil && c.Known && !p.AcceptsAge(c.Age) {
		return &fault.InvalidEnrollmentError{ProgramID: p.ID, Reason: fmt.Sprintf("age %d is outside the program range", c.Age)}
	}

	now := d.Clock.Now()
	stored, err := d.Enrollments.Upsert(ctx, enrollment.Enrollment{
		ID:           d.NewID(),
		ProgramID:    req.ProgramID,
		MemberID:     req.MemberID,
		DaysPerWeek:  req.DaysPerWeek,
		SelectedDays: req.SelectedDays,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return err
	}
	slog.Info("enrollment_event", "event", "enrollment_upserted", "enrollment_id", stored.ID, "member_id", m.ID, "program_id", p.ID)
	return d.refreshStatus(ctx, m.ID)
}

// DeleteEnrollment removes an enrollment and recomputes its member's status.
func (d *Directory) DeleteEnrollment(ctx context.Context, id string) error {
	e, err := d.Enrollments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := d.Enrollments.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("enrollment_event", "event", "enrollment_deleted", "enrollment_id", id, "member_id", e.MemberID)
	return d.refreshStatus(ctx, e.MemberID)
}

func (d *Directory) refreshStatus(ctx context.Context, memberID string) error {
	if _, err := d.Members.RefreshStatus(ctx, memberID); err != nil {
		return fmt.Errorf("refresh status of %s: %w", memberID, err)
	}
	return nil
}
