package orchestrators

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"household/internal/application/directory"
	"household/internal/domain/account"
	"household/internal/domain/enrollment"
	"household/internal/domain/family"
	"household/internal/domain/fault"
	"household/internal/domain/program"
)

// fakeAccount is one stored account of fakeDirectory.
type fakeAccount struct {
	req      directory.AccountRequest
	familyID string
	archived bool
}

// fakeDirectory is an in-memory directory.Directory that records every call in order.
type fakeDirectory struct {
	calls       []string
	accounts    map[string]*fakeAccount
	families    map[string]family.Family
	members     map[string]directory.MemberRequest
	enrollments map[string]enrollment.Enrollment
	nextID      int

	createAccountErr error
	updateFamilyErr  error
	upsertErr        map[string]error // by program id
	deleteErr        map[string]error // by enrollment id
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		accounts:    make(map[string]*fakeAccount),
		families:    make(map[string]family.Family),
		members:     make(map[string]directory.MemberRequest),
		enrollments: make(map[string]enrollment.Enrollment),
		upsertErr:   make(map[string]error),
		deleteErr:   make(map[string]error),
	}
}

func (f *fakeDirectory) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeDirectory) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

// count returns how many recorded calls start with prefix.
func (f *fakeDirectory) count(prefix string) int {
	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// seedAccount stores an account directly, bypassing the call log.
func (f *fakeDirectory) seedAccount(id, email, familyID string, archived bool) {
	f.accounts[id] = &fakeAccount{
		req:      directory.AccountRequest{Email: email, Role: account.RoleGuardian},
		familyID: familyID,
		archived: archived,
	}
}

func (f *fakeDirectory) byEmail(email string) (string, *fakeAccount) {
	for id, a := range f.accounts {
		if account.NormalizeEmail(a.req.Email) == account.NormalizeEmail(email) {
			return id, a
		}
	}
	return "", nil
}

// CreateAccount implements directory.Accounts.
// PRE: req carries an email
// POST: returns a new id, the detached archived id, or a conflict
func (f *fakeDirectory) CreateAccount(_ context.Context, req directory.AccountRequest) (string, error) {
	f.record("createAccount:%s", req.Email)
	if f.createAccountErr != nil {
		return "", f.createAccountErr
	}
	if id, existing := f.byEmail(req.Email); existing != nil {
		if !req.DetachArchived {
			return "", &fault.ConflictError{Email: req.Email, AccountID: id, Archived: existing.archived}
		}
		if !existing.archived {
			return "", fault.ErrAccountNotArchived
		}
		existing.req = req
		existing.familyID = ""
		existing.archived = false
		return id, nil
	}
	id := f.id("acct")
	f.accounts[id] = &fakeAccount{req: req}
	return id, nil
}

// UpdateAccount implements directory.Accounts.
// PRE: id exists
// POST: fields replaced; Restore clears archived
func (f *fakeDirectory) UpdateAccount(_ context.Context, id string, req directory.AccountRequest) error {
	f.record("updateAccount:%s", id)
	a, ok := f.accounts[id]
	if !ok {
		return fault.ErrNotFound
	}
	a.req = req
	if req.Restore {
		a.archived = false
	}
	return nil
}

// CreateFamily implements directory.Families.
// PRE: req has a primary account
// POST: family stored under a new id
func (f *fakeDirectory) CreateFamily(_ context.Context, req directory.FamilyRequest) (string, error) {
	f.record("createFamily")
	id := f.id("fam")
	f.families[id] = family.Family{ID: id, Name: req.Name, PrimaryAccountID: req.PrimaryAccountID, GuardianIDs: slices.Clone(req.GuardianIDs), CreatedAt: time.Now()}
	return id, nil
}

// GetFamily implements directory.Families.
// PRE: none
// POST: returns the stored family or ErrNotFound
func (f *fakeDirectory) GetFamily(_ context.Context, id string) (family.Family, error) {
	f.record("getFamily:%s", id)
	fam, ok := f.families[id]
	if !ok {
		return family.Family{}, fault.ErrNotFound
	}
	fam.GuardianIDs = slices.Clone(fam.GuardianIDs)
	return fam, nil
}

// UpdateFamily implements directory.Families.
// PRE: id exists
// POST: guardian list replaced
func (f *fakeDirectory) UpdateFamily(_ context.Context, id string, req directory.FamilyRequest) error {
	f.record("updateFamily:%s", id)
	if f.updateFamilyErr != nil {
		return f.updateFamilyErr
	}
	fam := f.families[id]
	fam.Name, fam.PrimaryAccountID, fam.GuardianIDs = req.Name, req.PrimaryAccountID, slices.Clone(req.GuardianIDs)
	f.families[id] = fam
	return nil
}

// SearchFamilies implements directory.Families.
// PRE: none
// POST: returns families whose name contains query
func (f *fakeDirectory) SearchFamilies(_ context.Context, query string) ([]family.Family, error) {
	f.record("searchFamilies:%s", query)
	var out []family.Family
	for _, fam := range f.families {
		if strings.Contains(strings.ToLower(fam.Name), strings.ToLower(query)) {
			out = append(out, fam)
		}
	}
	return out, nil
}

// ArchiveFamily implements directory.Families.
// PRE: id exists
// POST: archived flag set
func (f *fakeDirectory) ArchiveFamily(_ context.Context, id string, archived bool) error {
	f.record("archiveFamily:%s:%t", id, archived)
	fam, ok := f.families[id]
	if !ok {
		return fault.ErrNotFound
	}
	fam.Archived = archived
	f.families[id] = fam
	return nil
}

// DeleteFamily implements directory.Families.
// PRE: id exists
// POST: family removed
func (f *fakeDirectory) DeleteFamily(_ context.Context, id string) error {
	f.record("deleteFamily:%s", id)
	if _, ok := f.families[id]; !ok {
		return fault.ErrNotFound
	}
	delete(f.families, id)
	return nil
}

// CreateMember implements directory.Members.
// PRE: req has a family
// POST: member stored under a new id
func (f *fakeDirectory) CreateMember(_ context.Context, req directory.MemberRequest) (string, error) {
	f.record("createMember:%s", req.FirstName)
	id := f.id("mem")
	f.members[id] = req
	return id, nil
}

// UpdateMember implements directory.Members.
// PRE: id exists
// POST: fields replaced
func (f *fakeDirectory) UpdateMember(_ context.Context, id string, req directory.MemberRequest) error {
	f.record("updateMember:%s", id)
	f.members[id] = req
	return nil
}

// ListEnrollments implements directory.Enrollments.
// PRE: none
// POST: returns the member's enrollments sorted by id
func (f *fakeDirectory) ListEnrollments(_ context.Context, memberID string) ([]enrollment.Enrollment, error) {
	f.record("listEnrollments:%s", memberID)
	var out []enrollment.Enrollment
	for _, e := range f.enrollments {
		if e.MemberID == memberID {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b enrollment.Enrollment) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// UpsertEnrollment implements directory.Enrollments.
// PRE: req is valid
// POST: enrollment for program+member created or replaced
func (f *fakeDirectory) UpsertEnrollment(_ context.Context, req enrollment.Upsert) error {
	f.record("upsertEnrollment:%s", req.ProgramID)
	if err := f.upsertErr[req.ProgramID]; err != nil {
		return err
	}
	for id, e := range f.enrollments {
		if e.ProgramID == req.ProgramID && e.MemberID == req.MemberID {
			e.DaysPerWeek, e.SelectedDays = req.DaysPerWeek, slices.Clone(req.SelectedDays)
			f.enrollments[id] = e
			return nil
		}
	}
	id := f.id("enr")
	f.enrollments[id] = enrollment.Enrollment{ID: id, ProgramID: req.ProgramID, MemberID: req.MemberID,
		DaysPerWeek: req.DaysPerWeek, SelectedDays: slices.Clone(req.SelectedDays)}
	return nil
}

// DeleteEnrollment implements directory.Enrollments.
// PRE: none
// POST: enrollment removed
func (f *fakeDirectory) DeleteEnrollment(_ context.Context, id string) error {
	f.record("deleteEnrollment:%s", id)
	if err := f.deleteErr[id]; err != nil {
		return err
	}
	delete(f.enrollments, id)
	return nil
}

// ListPrograms has no catalog; the workflows never read it.
func (f *fakeDirectory) ListPrograms(_ context.Context, _ program.Filter) ([]program.Program, error) {
	f.record("ListPrograms")
	return nil, nil
}
