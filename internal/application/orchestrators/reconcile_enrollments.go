package orchestrators

import (
	"context"
	"log/slog"

	"household/internal/application/directory"
	"household/internal/domain/enrollment"
	"household/internal/domain/fault"
)

// ReconcileEnrollmentsInput carries input for the orchestrator.
type ReconcileEnrollmentsInput struct {
	MemberID string
	Desired  []enrollment.Draft
	// Fresh marks a member created in the same submission; it has nothing stored yet.
	Fresh bool
}

// ReconcileEnrollmentsDeps holds dependencies for ReconcileEnrollments.
type ReconcileEnrollmentsDeps struct {
	Enrollments directory.Enrollments
}

// ReconcileFailure records one remote call that failed.
type ReconcileFailure struct {
	Kind         string `json:"kind"` // "list" or an enrollment.OpKind
	EnrollmentID string `json:"enrollmentId,omitempty"`
	ProgramID    string `json:"programId,omitempty"`
	Message      string `json:"message"`
	Err          error  `json:"-"`
}

// ReconcileResult lists the operations that succeeded and those that failed.
type ReconcileResult struct {
	MemberID string                 `json:"memberId"`
	Applied  []enrollment.Operation `json:"applied"`
	Failures []ReconcileFailure     `json:"failures,omitempty"`
}

// ExecuteReconcileEnrollments syncs a member's stored enrollments to the desired list.
// PRE: MemberID is set
// POST: Every planned operation was attempted once, deletes first
// INVARIANT: a day-count violation returns an error before any remote call
func ExecuteReconcileEnrollments(ctx context.Context, input ReconcileEnrollmentsInput, deps ReconcileEnrollmentsDeps) (ReconcileResult, error) {
	result := ReconcileResult{MemberID: input.MemberID}
	if input.MemberID == "" {
		return result, fault.Invalid("memberId", "is required")
	}
	if err := enrollment.ValidateAll(input.Desired); err != nil {
		return result, err
	}

	var existing []enrollment.Enrollment
	if !input.Fresh {
		stored, err := deps.Enrollments.ListEnrollments(ctx, input.MemberID)
		if err != nil {
			slog.Warn("enrollment_event", "event", "list_failed", "member_id", input.MemberID, "error", err)
			result.Failures = append(result.Failures, ReconcileFailure{Kind: "list", Message: fault.UserMessage(err), Err: err})
			return result, nil
		}
		existing = stored
	}

	ops, err := enrollment.Plan(existing, input.Desired, input.MemberID)
	if err != nil {
		return result, err
	}

	for _, op := range ops {
		var opErr error
		switch op.Kind {
		case enrollment.OpDelete:
			opErr = deps.Enrollments.DeleteEnrollment(ctx, op.EnrollmentID)
		case enrollment.OpUpdate, enrollment.OpCreate:
			opErr = deps.Enrollments.UpsertEnrollment(ctx, op.Upsert())
		}
		if opErr != nil {
			slog.Warn("enrollment_event", "event", "operation_failed", "member_id", input.MemberID,
				"kind", op.Kind, "program_id", op.ProgramID, "error", opErr)
			result.Failures = append(result.Failures, ReconcileFailure{
				Kind:         string(op.Kind),
				EnrollmentID: op.EnrollmentID,
				ProgramID:    op.ProgramID,
				Message:      fault.UserMessage(opErr),
				Err:          opErr,
			})
			continue
		}
		result.Applied = append(result.Applied, op)
	}

	slog.Info("enrollment_event", "event", "enrollments_reconciled", "member_id", input.MemberID,
		"deleted", enrollment.Count(ops)[enrollment.OpDelete], "applied", len(result.Applied), "failed", len(result.Failures))
	return result, nil
}
