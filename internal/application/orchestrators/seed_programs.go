package orchestrators

import (
	"context"
	"fmt"
	"log/slog"

	"household/internal/domain/program"
)

// ProgramStoreForSeed defines the store interface needed by SeedPrograms.
type ProgramStoreForSeed interface {
	Save(ctx context.Context, p program.Program) error
	List(ctx context.Context, f program.Filter) ([]program.Program, error)
}

// SeedProgramsDeps holds dependencies for SeedPrograms.
type SeedProgramsDeps struct {
	ProgramStore ProgramStoreForSeed
}

// ExecuteSeedPrograms saves catalog programs that are missing or changed.
// PRE: catalog entries are unique by ID
// POST: Every valid catalog program is stored; returns the number written
// INVARIANT: re-running with the same catalog writes nothing
func ExecuteSeedPrograms(ctx context.Context, catalog []program.Program, deps SeedProgramsDeps) (int, error) {
	existing, err := deps.ProgramStore.List(ctx, program.Filter{})
	if err != nil {
		return 0, err
	}
	stored := make(map[string]program.Program, len(existing))
	for _, p := range existing {
		stored[p.ID] = p
	}

	written := 0
	for _, p := range catalog {
		if err := p.Validate(); err != nil {
			return written, fmt.Errorf("catalog program %q: %w", p.ID, err)
		}
		if cur, ok := stored[p.ID]; ok && cur == p {
			continue
		}
		if err := deps.ProgramStore.Save(ctx, p); err != nil {
			return written, err
		}
		written++
	}

	if written > 0 {
		slog.Info("seed_event", "event", "programs_seeded", "programs", written, "catalog", len(catalog))
	}
	return written, nil
}
