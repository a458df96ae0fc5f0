package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"household/internal/adapters/events"
	"household/internal/application/directory"
	"household/internal/domain/account"
	"household/internal/domain/draft"
	"household/internal/domain/enrollment"
	"household/internal/domain/fault"
	"household/internal/domain/identity"
)

// GuardianNotice describes an account created or revived by a submission.
type GuardianNotice struct {
	AccountID string
	FullName  string
	Email     string
	FamilyID  string
	Revived   bool
}

// GuardianNotifier is told about new and revived accounts after a submission completes.
// It must not fail the submission.
type GuardianNotifier interface {
	NotifyGuardians(ctx context.Context, notices []GuardianNotice)
}

// WorkflowInput carries the staged members of one submission.
type WorkflowInput struct {
	FamilyID   string // add and edit
	FamilyName string // create
	Members    []draft.Draft
	// Decisions answers earlier conflicts, keyed by lower-cased email.
	Decisions map[string]identity.Decision
}

// WorkflowDeps holds dependencies for the family workflows.
type WorkflowDeps struct {
	Directory directory.Directory
	Clock     clockwork.Clock  // reference "today" for age; real clock when nil
	Notifier  GuardianNotifier // optional
	Events    events.Publisher // optional
}

// Outcome is either Completed or Halted.
type Outcome interface {
	isOutcome()
}

// Completed reports a finished submission.
type Completed struct {
	FamilyID           string         `json:"familyId"`
	Members            []MemberResult `json:"members"`
	EnrollmentFailures int            `json:"enrollmentFailures"`
}

// Halted reports a submission suspended on an email conflict. Members carry the account
// ids resolved before the halt.
type Halted struct {
	Pending identity.PendingDecision `json:"pending"`
	Members []draft.Draft            `json:"members"`
}

func (Completed) isOutcome() {}
func (Halted) isOutcome()    {}

// MemberResult is the persisted state of one member after a submission.
type MemberResult struct {
	Key            string          `json:"key"`
	AccountID      string          `json:"accountId,omitempty"`
	MemberID       string          `json:"memberId,omitempty"`
	AccountCreated bool            `json:"accountCreated,omitempty"`
	AccountRevived bool            `json:"accountRevived,omitempty"`
	Enrollments    ReconcileResult `json:"enrollments"`
}

// Drafts returns minimal drafts carrying the persisted ids, for syncing a session.
func (c Completed) Drafts() []draft.Draft {
	out := make([]draft.Draft, len(c.Members))
	for i, m := range c.Members {
		out[i] = draft.Draft{Key: m.Key, AccountID: m.AccountID, MemberID: m.MemberID}
	}
	return out
}

type workflowMode int

const (
	modeCreate workflowMode = iota
	modeAdd
	modeEdit
)

func (m workflowMode) String() string {
	return [...]string{"create", "add", "edit"}[m]
}

// memberPlan is the per-member working state of a submission.
type memberPlan struct {
	d          draft.Draft
	adult      bool
	role       string // account role; empty when the member gets no account
	hadAccount bool
	created    bool
	revived    bool
}

// ExecuteCreateFamily creates a family from staged members.
// PRE: Members[0] is the primary guardian with a complete login
// POST: Completed with the new family id, or Halted with no family or member written
// INVARIANT: every identity is resolved before createFamily is called
func ExecuteCreateFamily(ctx context.Context, input WorkflowInput, deps WorkflowDeps) (Outcome, error) {
	plans, err := planMembers(modeCreate, input.Members, deps.today())
	if err != nil {
		return nil, err
	}
	if halted, err := resolveIdentities(ctx, plans, input.Decisions, deps); err != nil || halted != nil {
		return haltedOrNil(halted), err
	}

	familyID, err := deps.Directory.CreateFamily(ctx, directory.FamilyRequest{
		Name:             input.FamilyName,
		PrimaryAccountID: plans[0].d.AccountID,
		GuardianIDs:      guardianIDs(plans),
	})
	if err != nil {
		return nil, fmt.Errorf("create family: %w", err)
	}
	slog.Info("family_event", "event", "family_created", "family_id", familyID, "members", len(plans))

	completed, err := persistMembers(ctx, modeCreate, familyID, plans, deps)
	if err != nil {
		return nil, err
	}
	deps.publish(ctx, events.FamilyCreated, familyPayload(completed))
	deps.notify(ctx, familyID, plans)
	return completed, nil
}

// ExecuteAddFamilyMembers adds staged members to an existing family.
// PRE: FamilyID names an active family; every adult carries email and username
// POST: New guardian accounts are appended to the family before any member row is written
func ExecuteAddFamilyMembers(ctx context.Context, input WorkflowInput, deps WorkflowDeps) (Outcome, error) {
	return addOrEdit(ctx, modeAdd, input, deps)
}

// ExecuteEditFamilyMember updates existing members of a family.
// PRE: Members[0] is the guardian or athlete being edited and has a stored id
// POST: Accounts and athlete rows are updated; enrollments are reconciled by diff;
// members without an athlete id take the add path
func ExecuteEditFamilyMember(ctx context.Context, input WorkflowInput, deps WorkflowDeps) (Outcome, error) {
	return addOrEdit(ctx, modeEdit, input, deps)
}

func addOrEdit(ctx context.Context, mode workflowMode, input WorkflowInput, deps WorkflowDeps) (Outcome, error) {
	if input.FamilyID == "" {
		return nil, fault.Invalid("familyId", "is required")
	}
	plans, err := planMembers(mode, input.Members, deps.today())
	if err != nil {
		return nil, err
	}
	fam, err := deps.Directory.GetFamily(ctx, input.FamilyID)
	if err != nil {
		return nil, fmt.Errorf("load family %s: %w", input.FamilyID, err)
	}
	if fam.Archived {
		return nil, fault.Invalid("familyId", "family is archived")
	}

	if halted, err := resolveIdentities(ctx, plans, input.Decisions, deps); err != nil || halted != nil {
		return haltedOrNil(halted), err
	}

	before := len(fam.GuardianIDs)
	for _, id := range guardianIDs(plans) {
		fam.AddGuardian(id)
	}
	if len(fam.GuardianIDs) != before {
		if fam.PrimaryAccountID == "" {
			fam.PrimaryAccountID = fam.GuardianIDs[0]
		}
		err := deps.Directory.UpdateFamily(ctx, fam.ID, directory.FamilyRequest{
			Name:             fam.Name,
			PrimaryAccountID: fam.PrimaryAccountID,
			GuardianIDs:      fam.GuardianIDs,
		})
		if err != nil {
			return nil, fmt.Errorf("attach guardians to family %s: %w", fam.ID, err)
		}
		slog.Info("family_event", "event", "guardians_attached", "family_id", fam.ID, "added", len(fam.GuardianIDs)-before)
	}

	completed, err := persistMembers(ctx, mode, fam.ID, plans, deps)
	if err != nil {
		return nil, err
	}
	subject := events.FamilyMembersAdded
	if mode == modeEdit {
		subject = events.MemberUpdated
	}
	deps.publish(ctx, subject, familyPayload(completed))
	deps.notify(ctx, fam.ID, plans)
	return completed, nil
}

// planMembers validates the staged members before any remote call.
func planMembers(mode workflowMode, members []draft.Draft, today time.Time) ([]memberPlan, error) {
	if len(members) == 0 {
		return nil, fault.Invalid("members", "at least one member is required")
	}
	plans := make([]memberPlan, len(members))
	for i, d := range members {
		p := memberPlan{d: d.Clone(), adult: d.IsAdult(today), hadAccount: d.AccountID != ""}
		primary := mode == modeCreate && i == 0

		if err := d.ContactComplete(); err != nil {
			return nil, memberError(i, err)
		}
		if mode == modeEdit && i == 0 && d.AccountID == "" && d.MemberID == "" {
			return nil, memberError(i, fault.Invalid("id", "the edited member must already exist"))
		}
		newMember := d.MemberID == "" && !(mode == modeEdit && i == 0)
		needsLogin := primary || d.Login.HasLogin() || (mode != modeCreate && newMember && p.adult && !p.hadAccount)
		if needsLogin {
			if err := d.LoginComplete(); err != nil {
				return nil, memberError(i, err)
			}
		}
		if err := enrollment.ValidateAll(d.Enrollments); err != nil {
			return nil, err
		}

		switch {
		case primary || (needsLogin && p.adult):
			p.role = account.RoleGuardian
		case needsLogin:
			p.role = account.RoleAthlete
		}
		plans[i] = p
	}
	return plans, nil
}

func memberError(i int, err error) error {
	var invalid *fault.ValidationError
	if errors.As(err, &invalid) {
		return fault.Invalid(fmt.Sprintf("members[%d].%s", i, invalid.Field), "%s", invalid.Message)
	}
	return err
}

// resolveIdentities obtains an account for every member that needs one, in array order,
// stopping at the first conflict without a recorded decision.
func resolveIdentities(ctx context.Context, plans []memberPlan, decisions map[string]identity.Decision, deps WorkflowDeps) (*Halted, error) {
	rdeps := ResolveIdentityDeps{Accounts: deps.Directory}
	for i := range plans {
		p := &plans[i]
		if p.role == "" || p.d.AccountID != "" {
			continue
		}
		res, err := resolveWithDecisions(ctx, p.d.ContactFor(p.role), decisions, rdeps)
		if err != nil {
			return nil, err
		}
		switch v := res.(type) {
		case identity.Pending:
			slog.Info("family_event", "event", "submission_halted", "member_key", p.d.Key, "archived", v.Decision.Archived)
			halted := &Halted{Pending: v.Decision}
			for _, q := range plans {
				halted.Members = append(halted.Members, q.d.Clone())
			}
			return halted, nil
		case identity.Resolved:
			p.d.AccountID = v.AccountID
			p.created, p.revived = v.Created, v.Revived
		}
	}
	return nil, nil
}

func haltedOrNil(h *Halted) Outcome {
	if h == nil {
		return nil
	}
	return *h
}

func guardianIDs(plans []memberPlan) []string {
	var ids []string
	for _, p := range plans {
		if p.role == account.RoleGuardian && p.d.AccountID != "" && !slices.Contains(ids, p.d.AccountID) {
			ids = append(ids, p.d.AccountID)
		}
	}
	return ids
}

// persistMembers writes account, athlete row and enrollments for each member in order.
// Enrollment failures are collected; any other failure aborts the submission.
func persistMembers(ctx context.Context, mode workflowMode, familyID string, plans []memberPlan, deps WorkflowDeps) (Completed, error) {
	completed := Completed{FamilyID: familyID}
	rdeps := ReconcileEnrollmentsDeps{Enrollments: deps.Directory}

	for i := range plans {
		p := &plans[i]
		d := &p.d

		if mode != modeCreate && p.hadAccount && (i == 0 || p.adult) {
			req := accountRequest(d.ContactFor(""))
			if err := deps.Directory.UpdateAccount(ctx, d.AccountID, req); err != nil {
				return Completed{}, fmt.Errorf("update account for %s: %w", d.Key, err)
			}
		}

		if mode == modeEdit && i == 0 && d.MemberID == "" {
			// Guardian without an athlete row.
			completed.Members = append(completed.Members, memberResult(p, ReconcileResult{}))
			continue
		}

		fresh := false
		req := memberRequest(familyID, *d)
		if d.MemberID == "" {
			id, err := deps.Directory.CreateMember(ctx, req)
			if err != nil {
				return Completed{}, fmt.Errorf("create member %s: %w", d.Key, err)
			}
			d.MemberID, fresh = id, true
		} else if err := deps.Directory.UpdateMember(ctx, d.MemberID, req); err != nil {
			return Completed{}, fmt.Errorf("update member %s: %w", d.Key, err)
		}

		rec, err := ExecuteReconcileEnrollments(ctx, ReconcileEnrollmentsInput{
			MemberID: d.MemberID,
			Desired:  d.Enrollments,
			Fresh:    fresh,
		}, rdeps)
		if err != nil {
			return Completed{}, fmt.Errorf("reconcile enrollments for %s: %w", d.Key, err)
		}
		if len(rec.Applied) > 0 {
			deps.publish(ctx, events.EnrollmentsReconciled, rec)
		}
		completed.EnrollmentFailures += len(rec.Failures)
		completed.Members = append(completed.Members, memberResult(p, rec))
	}

	slog.Info("family_event", "event", "members_persisted", "family_id", familyID, "mode", mode.String(),
		"members", len(completed.Members), "enrollment_failures", completed.EnrollmentFailures)
	return completed, nil
}

func memberResult(p *memberPlan, rec ReconcileResult) MemberResult {
	return MemberResult{
		Key:            p.d.Key,
		AccountID:      p.d.AccountID,
		MemberID:       p.d.MemberID,
		AccountCreated: p.created,
		AccountRevived: p.revived,
		Enrollments:    rec,
	}
}

func memberRequest(familyID string, d draft.Draft) directory.MemberRequest {
	return directory.MemberRequest{
		FamilyID:      familyID,
		FirstName:     d.Contact.FirstName,
		LastName:      d.Contact.LastName,
		DateOfBirth:   d.Contact.DateOfBirth,
		MedicalNotes:  d.Contact.MedicalNotes,
		InternalFlags: d.Contact.InternalFlags,
		AccountID:     d.AccountID,
	}
}

func familyPayload(c Completed) map[string]any {
	ids := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		if m.MemberID != "" {
			ids = append(ids, m.MemberID)
		}
	}
	return map[string]any{"familyId": c.FamilyID, "memberIds": ids, "enrollmentFailures": c.EnrollmentFailures}
}

func (deps WorkflowDeps) today() time.Time {
	if deps.Clock == nil {
		return time.Now()
	}
	return deps.Clock.Now()
}

func (deps WorkflowDeps) publish(ctx context.Context, subject string, payload any) {
	publishEvent(ctx, deps.Events, subject, payload)
}

func (deps WorkflowDeps) notify(ctx context.Context, familyID string, plans []memberPlan) {
	if deps.Notifier == nil {
		return
	}
	var notices []GuardianNotice
	for _, p := range plans {
		if !p.created && !p.revived {
			continue
		}
		notices = append(notices, GuardianNotice{
			AccountID: p.d.AccountID,
			FullName:  p.d.Contact.FullName(),
			Email:     p.d.Contact.Email,
			FamilyID:  familyID,
			Revived:   p.revived,
		})
	}
	if len(notices) > 0 {
		deps.Notifier.NotifyGuardians(ctx, notices)
	}
}

func publishEvent(ctx context.Context, pub events.Publisher, subject string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, subject, payload); err != nil {
		slog.Warn("events_event", "event", "publish_failed", "subject", subject, "error", err)
	}
}
