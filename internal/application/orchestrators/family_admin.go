package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"household/internal/adapters/events"
	"household/internal/application/directory"
	"household/internal/domain/family"
	"household/internal/domain/fault"
)

// FamilyAdminDeps holds dependencies for the family administration orchestrators.
type FamilyAdminDeps struct {
	Families directory.Families
	Events   events.Publisher // optional
}

// ExecuteSearchFamilies returns families matching query. An empty query lists all.
func ExecuteSearchFamilies(ctx context.Context, query string, deps FamilyAdminDeps) ([]family.Family, error) {
	found, err := deps.Families.SearchFamilies(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, fmt.Errorf("search families: %w", err)
	}
	return found, nil
}

// ArchiveFamilyInput carries input for the orchestrator.
type ArchiveFamilyInput struct {
	FamilyID string
	Archived bool
}

// ExecuteArchiveFamily archives or restores a family.
// PRE: FamilyID is set
// POST: The family and its guardians and members follow the archived flag
func ExecuteArchiveFamily(ctx context.Context, input ArchiveFamilyInput, deps FamilyAdminDeps) error {
	if input.FamilyID == "" {
		return fault.Invalid("familyId", "is required")
	}
	if err := deps.Families.ArchiveFamily(ctx, input.FamilyID, input.Archived); err != nil {
		return fmt.Errorf("archive family %s: %w", input.FamilyID, err)
	}
	subject := events.FamilyRestored
	if input.Archived {
		subject = events.FamilyArchived
	}
	slog.Info("family_event", "event", subject, "family_id", input.FamilyID)
	publishEvent(ctx, deps.Events, subject, map[string]any{"familyId": input.FamilyID})
	return nil
}

// DeleteFamilyInput carries input for the orchestrator.
type DeleteFamilyInput struct {
	FamilyID string
	Confirm  string // must equal FamilyID
}

// ExecuteDeleteFamily hard-deletes a family and its members.
// PRE: Confirm == FamilyID
// POST: Family, members and enrollments are gone; accounts are detached and archived
func ExecuteDeleteFamily(ctx context.Context, input DeleteFamilyInput, deps FamilyAdminDeps) error {
	if input.FamilyID == "" {
		return fault.Invalid("familyId", "is required")
	}
	if input.Confirm != input.FamilyID {
		return fault.Invalid("confirm", "must repeat the family id to delete it")
	}
	if err := deps.Families.DeleteFamily(ctx, input.FamilyID); err != nil {
		return fmt.Errorf("delete family %s: %w", input.FamilyID, err)
	}
	slog.Warn("family_event", "event", "family_deleted", "family_id", input.FamilyID)
	publishEvent(ctx, deps.Events, events.FamilyDeleted, map[string]any{"familyId": input.FamilyID})
	return nil
}
