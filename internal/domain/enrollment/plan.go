package enrollment

import "slices"

// OpKind names a reconciliation step.
type OpKind string

const (
	OpDelete OpKind = "delete"
	OpUpdate OpKind = "update"
	OpCreate OpKind = "create"
)

// Operation is one remote call the reconciler will issue.
type Operation struct {
	Kind         OpKind   `json:"kind"`
	EnrollmentID string   `json:"enrollmentId,omitempty"` // set for delete and update
	ProgramID    string   `json:"programId"`
	MemberID     string   `json:"memberId"`
	DaysPerWeek  int      `json:"daysPerWeek,omitempty"`
	SelectedDays []string `json:"selectedDays,omitempty"`
}

// Upsert returns the createOrUpdateEnrollment request for a create or update operation.
func (o Operation) Upsert() Upsert {
	return Upsert{
		ProgramID:    o.ProgramID,
		MemberID:     o.MemberID,
		DaysPerWeek:  o.DaysPerWeek,
		SelectedDays: slices.Clone(o.SelectedDays),
	}
}

// Plan diffs the stored enrollments of a member against the desired list.
// PRE: existing belong to memberID
// POST: On success returns deletes first, then updates/creates in desired order
// INVARIANT: No operation is returned when any desired entry fails validation
func Plan(existing []Enrollment, desired []Draft, memberID string) ([]Operation, error) {
	if err := ValidateAll(desired); err != nil {
		return nil, err
	}

	// Later duplicates of a program win.
	wanted := make(map[string]Draft)
	var order []string
	for _, d := range desired {
		if d.IsPlaceholder() {
			continue
		}
		if _, ok := wanted[d.ProgramID]; !ok {
			order = append(order, d.ProgramID)
		}
		wanted[d.ProgramID] = d
	}

	var ops []Operation
	kept := make(map[string]Enrollment)
	for _, e := range existing {
		_, want := wanted[e.ProgramID]
		if _, dup := kept[e.ProgramID]; want && !dup {
			kept[e.ProgramID] = e
			continue
		}
		ops = append(ops, Operation{
			Kind:         OpDelete,
			EnrollmentID: e.ID,
			ProgramID:    e.ProgramID,
			MemberID:     memberID,
		})
	}

	for _, programID := range order {
		d := wanted[programID]
		op := Operation{
			Kind:         OpCreate,
			ProgramID:    programID,
			MemberID:     memberID,
			DaysPerWeek:  d.DaysPerWeek,
			SelectedDays: slices.Clone(d.SelectedDays),
		}
		if e, ok := kept[programID]; ok {
			op.Kind = OpUpdate
			op.EnrollmentID = e.ID
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Count tallies operations by kind.
func Count(ops []Operation) map[OpKind]int {
	out := make(map[OpKind]int, 3)
	for _, op := range ops {
		out[op.Kind]++
	}
	return out
}
