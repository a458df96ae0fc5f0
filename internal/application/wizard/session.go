package wizard

import (
	"errors"
	"fmt"
	"maps"

	"household/internal/domain/draft"
	"household/internal/domain/fault"
	"household/internal/domain/identity"
)

// Mode selects one of the three family workflows.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeAdd    Mode = "add"
	ModeEdit   Mode = "edit"
)

// ParseMode validates a workflow mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCreate, ModeAdd, ModeEdit:
		return Mode(s), nil
	}
	return "", fault.Invalid("mode", "must be create, add or edit")
}

// Session errors
var (
	ErrDecisionPending   = errors.New("a conflict decision is already pending")
	ErrNoPendingDecision = errors.New("no conflict decision is pending")
	ErrUnknownMember     = fmt.Errorf("member not in workflow: %w", fault.ErrNotFound)
	ErrDuplicateMember   = fault.Invalid("key", "member is already in the workflow")
)

// Session is the draft list of one editing workflow.
// INVARIANT: at most one pending decision is held at a time
type Session struct {
	ID       string
	Mode     Mode
	FamilyID string

	order     []string
	drafts    map[string]draft.Draft
	focus     string
	pending   *identity.PendingDecision
	decisions map[string]identity.Decision
}

// Snapshot is the serializable view of a session.
type Snapshot struct {
	ID       string                    `json:"id"`
	Mode     Mode                      `json:"mode"`
	FamilyID string                    `json:"familyId,omitempty"`
	Focus    string                    `json:"focus,omitempty"`
	Members  []draft.Draft             `json:"members"`
	Pending  *identity.PendingDecision `json:"pending,omitempty"`
}

// NewSession returns an empty session.
func NewSession(id string, mode Mode, familyID string) *Session {
	return &Session{
		ID:        id,
		Mode:      mode,
		FamilyID:  familyID,
		drafts:    make(map[string]draft.Draft),
		decisions: make(map[string]identity.Decision),
	}
}

// Add appends d. The first unfinished member added takes focus.
func (s *Session) Add(d draft.Draft) error {
	if _, ok := s.drafts[d.Key]; ok {
		return ErrDuplicateMember
	}
	s.order = append(s.order, d.Key)
	s.drafts[d.Key] = d.Clone()
	if s.focus == "" && !d.IsFinished {
		s.focus = d.Key
	}
	return nil
}

// Remove drops a member from the workflow.
func (s *Session) Remove(key string) error {
	if _, ok := s.drafts[key]; !ok {
		return ErrUnknownMember
	}
	delete(s.drafts, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.focus == key {
		s.focus = s.firstUnfinished()
	}
	return nil
}

// Apply runs one transition on the member with key.
// POST: on success the stored draft is replaced; finishing the focused member moves focus
func (s *Session) Apply(key string, a Action) (draft.Draft, error) {
	d, ok := s.drafts[key]
	if !ok {
		return draft.Draft{}, ErrUnknownMember
	}
	next, err := Transition(d, a)
	if err != nil {
		return d.Clone(), err
	}
	s.drafts[key] = next
	if a.Type == ActionFinished && s.focus == key {
		s.focus = s.firstUnfinished()
	}
	return next.Clone(), nil
}

func (s *Session) firstUnfinished() string {
	for _, k := range s.order {
		if !s.drafts[k].IsFinished {
			return k
		}
	}
	return ""
}

// Focus returns the key of the auto-focused member, or "" when all are finished.
func (s *Session) Focus() string {
	return s.focus
}

// Drafts returns copies of the drafts in the order they were added.
func (s *Session) Drafts() []draft.Draft {
	out := make([]draft.Draft, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.drafts[k].Clone())
	}
	return out
}

// Sync copies resolved account and member ids from drafts returned by a submission.
func (s *Session) Sync(drafts []draft.Draft) {
	for _, in := range drafts {
		d, ok := s.drafts[in.Key]
		if !ok {
			continue
		}
		if in.AccountID != "" {
			d.AccountID = in.AccountID
		}
		if in.MemberID != "" {
			d.MemberID = in.MemberID
		}
		s.drafts[in.Key] = d
	}
}

// Hold records the pending decision that halted a submission.
func (s *Session) Hold(p identity.PendingDecision) error {
	if s.pending != nil {
		return ErrDecisionPending
	}
	s.pending = &p
	return nil
}

// Pending returns the outstanding decision, if any.
func (s *Session) Pending() (identity.PendingDecision, bool) {
	if s.pending == nil {
		return identity.PendingDecision{}, false
	}
	return *s.pending, true
}

// Decide answers the pending decision. The answer is applied on the next submission.
func (s *Session) Decide(dec identity.Decision) error {
	if s.pending == nil {
		return ErrNoPendingDecision
	}
	s.decisions[s.pending.Contact.EmailKey()] = dec
	s.pending = nil
	return nil
}

// Reopen withdraws the answer given to p and makes p pending again. A submission that
// fails after Decide uses it so the user can choose differently.
// POST: Pending() returns p; no decision is recorded for p's email
func (s *Session) Reopen(p identity.PendingDecision) {
	delete(s.decisions, p.Contact.EmailKey())
	s.pending = &p
}

// Decisions returns the recorded decisions keyed by lower-cased email.
func (s *Session) Decisions() map[string]identity.Decision {
	return maps.Clone(s.decisions)
}

// ClearDecisions forgets recorded decisions once a submission completes.
func (s *Session) ClearDecisions() {
	clear(s.decisions)
}

// Snapshot returns a serializable copy of the session.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{ID: s.ID, Mode: s.Mode, FamilyID: s.FamilyID, Focus: s.focus, Members: s.Drafts()}
	if p, ok := s.Pending(); ok {
		snap.Pending = &p
	}
	return snap
}
