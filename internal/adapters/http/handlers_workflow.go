package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"household/internal/adapters/http/wire"
	"household/internal/application/orchestrators"
	"household/internal/application/wizard"
	"household/internal/domain/draft"
	"household/internal/domain/fault"
	"household/internal/domain/identity"
)

type openWorkflowRequest struct {
	Mode     string `json:"mode"`
	FamilyID string `json:"familyId"`
}

type addMemberRequest struct {
	// Prefill seeds the draft, typically from stored records in edit mode.
	Prefill *draft.Draft `json:"prefill,omitempty"`
}

type submitRequest struct {
	FamilyName string `json:"familyName"`
}

type decisionRequest struct {
	Decision   string `json:"decision"`
	FamilyName string `json:"familyName"`
}

// submitResponse reports the outcome of a submission.
type submitResponse struct {
	Status   string                    `json:"status"` // completed | halted
	Result   *orchestrators.Completed  `json:"result,omitempty"`
	Pending  *identity.PendingDecision `json:"pending,omitempty"`
	Workflow wizard.Snapshot           `json:"workflow"`
}

func (s *Server) workflowDeps() orchestrators.WorkflowDeps {
	return orchestrators.WorkflowDeps{
		Directory: s.deps.Directory,
		Clock:     s.deps.Clock,
		Notifier:  s.deps.Notifier,
		Events:    s.deps.Events,
	}
}

func (s *Server) handleOpenWorkflow(w http.ResponseWriter, r *http.Request) {
	var req openWorkflowRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	mode, err := wizard.ParseMode(req.Mode)
	if err != nil {
		writeError(w, r, err)
		return
	}
	switch {
	case mode == wizard.ModeCreate && req.FamilyID != "":
		writeError(w, r, fault.Invalid("familyId", "must be empty when creating a family"))
		return
	case mode != wizard.ModeCreate:
		if req.FamilyID == "" {
			writeError(w, r, fault.Invalid("familyId", "is required"))
			return
		}
		fam, err := s.deps.Directory.GetFamily(r.Context(), req.FamilyID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if fam.Archived {
			writeError(w, r, fault.Invalid("familyId", "family is archived"))
			return
		}
	}
	writeJSON(w, http.StatusCreated, s.deps.Workflows.Open(mode, req.FamilyID))
}

func (s *Server) handleGetWorkflow(w http.ResponseWriter, r *http.Request) {
	var snap wizard.Snapshot
	err := s.deps.Workflows.With(r.PathValue("id"), func(sess *wizard.Session) error {
		snap = sess.Snapshot()
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleAddWorkflowMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d := draft.New(s.deps.NewID())
	if req.Prefill != nil {
		d = req.Prefill.Clone()
		if d.Key == "" {
			d.Key = s.deps.NewID()
		}
	}
	s.mutateWorkflow(w, r, http.StatusCreated, func(sess *wizard.Session) error {
		return sess.Add(d)
	})
}

func (s *Server) handleRemoveWorkflowMember(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	s.mutateWorkflow(w, r, http.StatusOK, func(sess *wizard.Session) error {
		return sess.Remove(key)
	})
}

func (s *Server) handleWorkflowAction(w http.ResponseWriter, r *http.Request) {
	var action wizard.Action
	if err := strictDecode(w, r, &action); err != nil {
		writeError(w, r, err)
		return
	}
	key := r.PathValue("key")
	s.mutateWorkflow(w, r, http.StatusOK, func(sess *wizard.Session) error {
		_, err := sess.Apply(key, action)
		return err
	})
}

// mutateWorkflow runs fn on the session and responds with its snapshot.
func (s *Server) mutateWorkflow(w http.ResponseWriter, r *http.Request, status int, fn func(*wizard.Session) error) {
	var snap wizard.Snapshot
	err := s.deps.Workflows.With(r.PathValue("id"), func(sess *wizard.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		snap = sess.Snapshot()
		return nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, status, snap)
}

func (s *Server) handleSubmitWorkflow(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.submit(w, r, req.FamilyName, nil)
}

func (s *Server) handleWorkflowDecision(w http.ResponseWriter, r *http.Request) {
	var req decisionRequest
	if err := strictDecode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	dec, err := identity.ParseDecision(req.Decision)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.submit(w, r, req.FamilyName, &dec)
}

// submit runs the session's workflow. A non-nil decision first answers the pending
// conflict; the submission then resumes from the top with that answer recorded. When
// that run fails the conflict is pending again and the answer is dropped.
func (s *Server) submit(w http.ResponseWriter, r *http.Request, familyName string, decision *identity.Decision) {
	id := r.PathValue("id")
	var resp submitResponse
	err := s.deps.Workflows.With(id, func(sess *wizard.Session) error {
		if decision == nil {
			if _, pending := sess.Pending(); pending {
				return &wire.StateError{Err: wizard.ErrDecisionPending}
			}
			var err error
			resp, err = s.runWorkflow(r.Context(), sess, familyName)
			return err
		}

		answered, _ := sess.Pending()
		if err := sess.Decide(*decision); err != nil {
			return &wire.StateError{Err: err}
		}
		slog.Info("workflow_event", "event", "decision_recorded", "workflow_id", id, "decision", *decision)
		var err error
		if resp, err = s.runWorkflow(r.Context(), sess, familyName); err != nil {
			sess.Reopen(answered)
			slog.Info("workflow_event", "event", "decision_reopened", "workflow_id", id, "decision", *decision, "error", err)
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if resp.Status == "completed" {
		s.deps.Workflows.Close(id)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) runWorkflow(ctx context.Context, sess *wizard.Session, familyName string) (submitResponse, error) {
	input := orchestrators.WorkflowInput{
		FamilyID:   sess.FamilyID,
		FamilyName: familyName,
		Members:    sess.Drafts(),
		Decisions:  sess.Decisions(),
	}

	var run func(context.Context, orchestrators.WorkflowInput, orchestrators.WorkflowDeps) (orchestrators.Outcome, error)
	switch sess.Mode {
	case wizard.ModeCreate:
		run = orchestrators.ExecuteCreateFamily
	case wizard.ModeAdd:
		run = orchestrators.ExecuteAddFamilyMembers
	case wizard.ModeEdit:
		run = orchestrators.ExecuteEditFamilyMember
	default:
		return submitResponse{}, fmt.Errorf("workflow %s: unknown mode %q", sess.ID, sess.Mode)
	}

	outcome, err := run(ctx, input, s.workflowDeps())
	if err != nil {
		return submitResponse{}, err
	}
	switch o := outcome.(type) {
	case orchestrators.Completed:
		sess.Sync(o.Drafts())
		sess.ClearDecisions()
		if sess.FamilyID == "" {
			sess.FamilyID = o.FamilyID
		}
		slog.Info("workflow_event", "event", "workflow_completed", "workflow_id", sess.ID, "family_id", o.FamilyID)
		return submitResponse{Status: "completed", Result: &o, Workflow: sess.Snapshot()}, nil
	case orchestrators.Halted:
		sess.Sync(o.Members)
		if err := sess.Hold(o.Pending); err != nil {
			return submitResponse{}, &wire.StateError{Err: err}
		}
		slog.Info("workflow_event", "event", "workflow_halted", "workflow_id", sess.ID, "member_key", o.Pending.MemberKey)
		return submitResponse{Status: "halted", Pending: &o.Pending, Workflow: sess.Snapshot()}, nil
	}
	return submitResponse{}, fmt.Errorf("workflow %s: unexpected outcome %T", sess.ID, outcome)
}
