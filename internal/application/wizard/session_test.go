package wizard_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"household/internal/application/wizard"
	"household/internal/domain/draft"
	"household/internal/domain/identity"
)

func newSession(t *testing.T, keys ...string) *wizard.Session {
	t.Helper()
	s := wizard.NewSession("w1", wizard.ModeCreate, "")
	for _, k := range keys {
		if err := s.Add(draft.New(k)); err != nil {
			t.Fatalf("Add(%s): %v", k, err)
		}
	}
	return s
}

// TestSession_FocusMovesOnFinished verifies auto-focus follows the first unfinished member.
func TestSession_FocusMovesOnFinished(t *testing.T) {
	s := newSession(t, "a", "b", "c")
	if s.Focus() != "a" {
		t.Fatalf("initial focus = %q", s.Focus())
	}
	if _, err := s.Apply("b", wizard.Action{Type: wizard.ActionFinished}); err != nil {
		t.Fatal(err)
	}
	if s.Focus() != "a" {
		t.Errorf("finishing an unfocused member moved focus to %q", s.Focus())
	}
	if _, err := s.Apply("a", wizard.Action{Type: wizard.ActionFinished}); err != nil {
		t.Fatal(err)
	}
	if s.Focus() != "c" {
		t.Errorf("focus = %q, want c", s.Focus())
	}
	if _, err := s.Apply("c", wizard.Action{Type: wizard.ActionFinished}); err != nil {
		t.Fatal(err)
	}
	if s.Focus() != "" {
		t.Errorf("focus = %q, want none", s.Focus())
	}
}

// TestSession_HoldDecide enforces a single outstanding decision.
func TestSession_HoldDecide(t *testing.T) {
	s := newSession(t, "a")
	if err := s.Decide(identity.Revive); !errors.Is(err, wizard.ErrNoPendingDecision) {
		t.Fatalf("Decide without pending = %v", err)
	}
	p := identity.PendingDecision{MemberKey: "a", Email: "Dana@Example.com", Contact: identity.Contact{Email: "Dana@Example.com"}, Archived: true}
	if err := s.Hold(p); err != nil {
		t.Fatal(err)
	}
	if err := s.Hold(p); !errors.Is(err, wizard.ErrDecisionPending) {
		t.Errorf("second Hold = %v, want ErrDecisionPending", err)
	}
	if got, ok := s.Pending(); !ok || got.MemberKey != "a" {
		t.Errorf("Pending() = %+v, %v", got, ok)
	}
	if err := s.Decide(identity.CreateNew); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Pending(); ok {
		t.Error("decision still pending after Decide")
	}
	if got := s.Decisions()["dana@example.com"]; got != identity.CreateNew {
		t.Errorf("recorded decision = %q", got)
	}
	s.ClearDecisions()
	if len(s.Decisions()) != 0 {
		t.Error("ClearDecisions kept entries")
	}
}

// TestSession_ReopenWithdrawsAnswer restores a conflict whose answer could not be applied.
func TestSession_ReopenWithdrawsAnswer(t *testing.T) {
	s := newSession(t, "a")
	p := identity.PendingDecision{MemberKey: "a", Email: "dana@example.com", Contact: identity.Contact{Email: "Dana@example.com"}}
	if err := s.Hold(p); err != nil {
		t.Fatal(err)
	}
	if err := s.Decide(identity.CreateNew); err != nil {
		t.Fatal(err)
	}

	s.Reopen(p)
	if got, ok := s.Pending(); !ok || got.MemberKey != "a" {
		t.Fatalf("Pending() = %+v, %v", got, ok)
	}
	if len(s.Decisions()) != 0 {
		t.Errorf("decisions = %v, want none", s.Decisions())
	}
	if err := s.Decide(identity.Revive); err != nil {
		t.Fatalf("second Decide: %v", err)
	}
	if got := s.Decisions()["dana@example.com"]; got != identity.Revive {
		t.Errorf("recorded decision = %q", got)
	}
}

// TestSession_SyncAndRemove covers id propagation and member removal.
func TestSession_SyncAndRemove(t *testing.T) {
	s := newSession(t, "a", "b")
	s.Sync([]draft.Draft{{Key: "a", AccountID: "acct-1"}, {Key: "zzz", AccountID: "x"}})
	drafts := s.Drafts()
	if drafts[0].AccountID != "acct-1" || drafts[1].AccountID != "" {
		t.Errorf("after Sync: %+v", drafts)
	}
	if err := s.Add(draft.New("a")); !errors.Is(err, wizard.ErrDuplicateMember) {
		t.Errorf("duplicate Add = %v", err)
	}
	if err := s.Remove("a"); err != nil {
		t.Fatal(err)
	}
	if s.Focus() != "b" {
		t.Errorf("focus after removing focused member = %q", s.Focus())
	}
	if _, err := s.Apply("a", wizard.Action{Type: wizard.ActionToggleExpand}); !errors.Is(err, wizard.ErrUnknownMember) {
		t.Errorf("Apply on removed member = %v", err)
	}
}

// TestRegistry_SerializesSessionAccess runs concurrent transitions on one session.
func TestRegistry_SerializesSessionAccess(t *testing.T) {
	n := 0
	reg := wizard.NewRegistry(func() string { n++; return fmt.Sprintf("w%d", n) })
	snap := reg.Open(wizard.ModeCreate, "")
	if err := reg.With(snap.ID, func(s *wizard.Session) error { return s.Add(draft.New("a")) }); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = reg.With(snap.ID, func(s *wizard.Session) error {
				_, err := s.Apply("a", wizard.Action{Type: wizard.ActionToggleExpand})
				return err
			})
		}()
	}
	wg.Wait()

	var expanded bool
	_ = reg.With(snap.ID, func(s *wizard.Session) error {
		expanded = s.Drafts()[0].Expanded
		return nil
	})
	// 50 toggles from the initial expanded state.
	if !expanded {
		t.Error("lost toggles under concurrency")
	}
	if err := reg.With("missing", func(*wizard.Session) error { return nil }); !errors.Is(err, wizard.ErrUnknownSession) {
		t.Errorf("unknown session = %v", err)
	}
	reg.Close(snap.ID)
	if reg.Len() != 0 {
		t.Errorf("Len after Close = %d", reg.Len())
	}
}
