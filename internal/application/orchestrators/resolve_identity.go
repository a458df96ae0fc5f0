package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"household/internal/application/directory"
	"household/internal/domain/fault"
	"household/internal/domain/identity"
)

// ResolveIdentityDeps holds dependencies for ResolveIdentity and ApplyDecision.
type ResolveIdentityDeps struct {
	Accounts directory.Accounts
}

// ExecuteResolveIdentity creates a login account for contact.
// PRE: contact carries name, email, username and role
// POST: Resolved with the new account id, or Pending when the email is taken
// INVARIANT: a conflict is never retried here; the caller must supply a decision
func ExecuteResolveIdentity(ctx context.Context, contact identity.Contact, deps ResolveIdentityDeps) (identity.Resolution, error) {
	if err := contact.Validate(); err != nil {
		return nil, err
	}

	id, err := deps.Accounts.CreateAccount(ctx, accountRequest(contact))
	if err == nil {
		slog.Info("identity_event", "event", "account_created", "account_id", id, "member_key", contact.MemberKey, "role", contact.Role)
		return identity.Resolved{AccountID: id, Created: true}, nil
	}

	var conflict *fault.ConflictError
	if errors.As(err, &conflict) {
		slog.Info("identity_event", "event", "account_conflict", "member_key", contact.MemberKey,
			"existing_account_id", conflict.AccountID, "archived", conflict.Archived)
		return identity.Pending{Decision: identity.PendingDecision{
			MemberKey:         contact.MemberKey,
			Contact:           contact,
			Email:             contact.Email,
			ExistingAccountID: conflict.AccountID,
			Archived:          conflict.Archived,
		}}, nil
	}
	return nil, fmt.Errorf("create account for %s: %w", contact.MemberKey, err)
}

// ExecuteApplyDecision resolves a pending conflict with the caller's decision.
// PRE: pending came from ExecuteResolveIdentity
// POST: create_new returns the detached and reassigned account; revive returns the updated one
func ExecuteApplyDecision(ctx context.Context, pending identity.PendingDecision, decision identity.Decision, deps ResolveIdentityDeps) (identity.Resolved, error) {
	switch decision {
	case identity.CreateNew:
		if !pending.Archived {
			return identity.Resolved{}, fmt.Errorf("create new account for %s: %w", pending.Email, fault.ErrAccountNotArchived)
		}
		req := accountRequest(pending.Contact)
		req.DetachArchived = true
		id, err := deps.Accounts.CreateAccount(ctx, req)
		if err != nil {
			return identity.Resolved{}, fmt.Errorf("create new account for %s: %w", pending.Email, err)
		}
		slog.Info("identity_event", "event", "archived_account_reassigned", "account_id", id, "member_key", pending.MemberKey)
		return identity.Resolved{AccountID: id, Created: true}, nil

	case identity.Revive:
		req := accountRequest(pending.Contact)
		req.Restore = true
		if err := deps.Accounts.UpdateAccount(ctx, pending.ExistingAccountID, req); err != nil {
			return identity.Resolved{}, fmt.Errorf("revive account %s: %w", pending.ExistingAccountID, err)
		}
		slog.Info("identity_event", "event", "account_revived", "account_id", pending.ExistingAccountID, "member_key", pending.MemberKey)
		return identity.Resolved{AccountID: pending.ExistingAccountID, Revived: true}, nil
	}
	return identity.Resolved{}, fault.Invalid("decision", "unknown decision %q", decision)
}

// resolveWithDecisions runs ExecuteResolveIdentity and, when it conflicts on an email the
// caller already decided for, applies that decision.
func resolveWithDecisions(ctx context.Context, contact identity.Contact, decisions map[string]identity.Decision, deps ResolveIdentityDeps) (identity.Resolution, error) {
	res, err := ExecuteResolveIdentity(ctx, contact, deps)
	if err != nil {
		return nil, err
	}
	pending, ok := res.(identity.Pending)
	if !ok {
		return res, nil
	}
	decision, ok := decisions[contact.EmailKey()]
	if !ok {
		return pending, nil
	}
	return ExecuteApplyDecision(ctx, pending.Decision, decision, deps)
}

func accountRequest(c identity.Contact) directory.AccountRequest {
	return directory.AccountRequest{
		FullName: c.FullName,
		Email:    c.Email,
		Phone:    c.Phone,
		Username: c.Username,
		Password: c.Password,
		Role:     c.Role,
		Address:  c.Address,
	}
}
