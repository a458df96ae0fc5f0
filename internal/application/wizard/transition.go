package wizard

import (
	"slices"

	"household/internal/domain/draft"
	"household/internal/domain/enrollment"
	"household/internal/domain/fault"
)

// ActionType names a user action on one member's wizard.
type ActionType string

const (
	ActionToggleExpand     ActionType = "toggle_expand"
	ActionToggleSection    ActionType = "toggle_section"
	ActionStage            ActionType = "stage"
	ActionContinue         ActionType = "continue"
	ActionMinimize         ActionType = "minimize"
	ActionCancel           ActionType = "cancel"
	ActionRemoveEnrollment ActionType = "remove_enrollment"
	ActionFinished         ActionType = "finished"
)

// Transition errors. Both match fault.ErrValidation.
var (
	ErrReadOnlySection  = fault.Invalid("section", "statusVerification is display-only")
	ErrSectionCollapsed = fault.Invalid("section", "section must be expanded first")
)

// Action is one discrete user action. Stage carries exactly the payload of its section.
type Action struct {
	Type       ActionType           `json:"type"`
	Section    draft.Section        `json:"section,omitempty"`
	Contact    *draft.ContactInfo   `json:"contact,omitempty"`
	Login      *draft.LoginSecurity `json:"login,omitempty"`
	Enrollment *enrollment.Draft    `json:"enrollment,omitempty"`
	Index      int                  `json:"index,omitempty"`
}

// Transition applies a to d and returns the next state.
// PRE: none
// POST: On error the returned draft equals d; d itself is never mutated
// INVARIANT: committed fields change only on continue/minimize of a valid section
func Transition(d draft.Draft, a Action) (draft.Draft, error) {
	next := d.Clone()
	var err error
	switch a.Type {
	case ActionToggleExpand:
		next.Expanded = !next.Expanded
	case ActionToggleSection:
		err = toggleSection(&next, a.Section)
	case ActionStage:
		err = stage(&next, a)
	case ActionContinue:
		err = commit(&next, a.Section, true)
	case ActionMinimize:
		err = commit(&next, a.Section, false)
	case ActionCancel:
		err = cancel(&next, a.Section)
	case ActionRemoveEnrollment:
		if a.Index < 0 || a.Index >= len(next.Enrollments) {
			err = fault.Invalid("index", "no enrollment at position %d", a.Index)
			break
		}
		next.Enrollments = slices.Delete(next.Enrollments, a.Index, a.Index+1)
	case ActionFinished:
		next.IsFinished = true
	default:
		err = fault.Invalid("type", "unknown action %q", a.Type)
	}
	if err != nil {
		return d, err
	}
	return next, nil
}

func toggleSection(d *draft.Draft, sec draft.Section) error {
	if _, err := draft.ParseSection(string(sec)); err != nil {
		return err
	}
	if d.Sections.Expanded(sec) {
		setExpanded(d, sec, false)
		return nil
	}
	open(d, sec)
	return nil
}

// open expands sec and seeds its tempData from the committed values, discarding any
// earlier staged edit.
func open(d *draft.Draft, sec draft.Section) {
	switch sec {
	case draft.SectionContactInfo:
		d.Sections.ContactInfo.Temp = d.Contact
	case draft.SectionLoginSecurity:
		d.Sections.LoginSecurity.Temp = d.Login
	case draft.SectionEnrollment:
		d.Sections.Enrollment.Temp = enrollment.Draft{}
	}
	setExpanded(d, sec, true)
}

func setExpanded(d *draft.Draft, sec draft.Section, v bool) {
	switch sec {
	case draft.SectionContactInfo:
		d.Sections.ContactInfo.Expanded = v
	case draft.SectionLoginSecurity:
		d.Sections.LoginSecurity.Expanded = v
	case draft.SectionEnrollment:
		d.Sections.Enrollment.Expanded = v
	case draft.SectionStatusVerification:
		d.Sections.StatusVerification.Expanded = v
	}
}

func editable(d *draft.Draft, sec draft.Section) error {
	if _, err := draft.ParseSection(string(sec)); err != nil {
		return err
	}
	if !sec.Editable() {
		return ErrReadOnlySection
	}
	if !d.Sections.Expanded(sec) {
		return ErrSectionCollapsed
	}
	return nil
}

func stage(d *draft.Draft, a Action) error {
	if err := editable(d, a.Section); err != nil {
		return err
	}
	switch a.Section {
	case draft.SectionContactInfo:
		if a.Contact == nil {
			return fault.Invalid("contact", "is required to stage contactInfo")
		}
		d.Sections.ContactInfo.Temp = *a.Contact
	case draft.SectionLoginSecurity:
		if a.Login == nil {
			return fault.Invalid("login", "is required to stage loginSecurity")
		}
		d.Sections.LoginSecurity.Temp = *a.Login
	case draft.SectionEnrollment:
		if a.Enrollment == nil {
			return fault.Invalid("enrollment", "is required to stage enrollment")
		}
		d.Sections.Enrollment.Temp = a.Enrollment.Clone()
	}
	return nil
}

// commit writes tempData into the committed fields and collapses the section. With
// advance set, the next section in order is opened.
func commit(d *draft.Draft, sec draft.Section, advance bool) error {
	if err := editable(d, sec); err != nil {
		return err
	}
	switch sec {
	case draft.SectionContactInfo:
		temp := d.Sections.ContactInfo.Temp
		if err := temp.Validate(); err != nil {
			return err
		}
		d.Contact = temp
	case draft.SectionLoginSecurity:
		temp := d.Sections.LoginSecurity.Temp
		if err := temp.Validate(); err != nil {
			return err
		}
		d.Login = temp
	case draft.SectionEnrollment:
		temp := d.Sections.Enrollment.Temp
		if !temp.IsPlaceholder() {
			if err := temp.Validate(); err != nil {
				return err
			}
			temp = temp.Clone()
			temp.IsCompleted = true
			d.Enrollments = append(d.Enrollments, temp)
		}
		d.Sections.Enrollment.Temp = enrollment.Draft{}
	}
	setExpanded(d, sec, false)
	if advance {
		if next, ok := sec.Next(); ok {
			open(d, next)
		}
	}
	return nil
}

func cancel(d *draft.Draft, sec draft.Section) error {
	if _, err := draft.ParseSection(string(sec)); err != nil {
		return err
	}
	if !sec.Editable() {
		return ErrReadOnlySection
	}
	open(d, sec)
	setExpanded(d, sec, false)
	return nil
}
