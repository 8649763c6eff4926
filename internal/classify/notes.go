package classify

import (
	"fmt"

	"lockcheck/internal/core"
)

// notesFor derives the factual notes for one operation and its impacts.
// Notes are conditional statements only; they carry no advice and no
// subjective qualifiers.
func notesFor(op core.Operation, impacts []core.TableImpact) []string {
	var notes []string

	if op.Kind == core.OpUnknown {
		return []string{fmt.Sprintf("If the statement %q takes a lock, it is not reflected in the impact table.",
			truncate(op.Raw, 80))}
	}

	for _, imp := range impacts {
		if imp.Lock == core.LockShareUpdateExclusive {
			notes = append(notes, fmt.Sprintf(
				"If another DDL command or VACUUM runs on %s at the same time, this operation conflicts with it even though reads and writes proceed.",
				imp.Table))
		}
	}

	switch {
	case op.Kind == core.OpAddConstraint && op.Constraint == core.ConstraintForeignKey && op.NotValid:
		notes = append(notes, fmt.Sprintf(
			"If a foreign key is added NOT VALID, existing rows of %s are not scanned, but the locks on both tables are held until the transaction commits.",
			op.Table))
	case op.Kind == core.OpAddColumn && op.HasDefault && !op.DefaultIsVolatile:
		notes = append(notes, fmt.Sprintf(
			"If the server runs PostgreSQL 10 or older, adding a column with a DEFAULT rewrites %s.",
			op.Table))
	case op.Kind == core.OpCreateIndex && !op.Concurrently && !op.IsNewTable:
		notes = append(notes, fmt.Sprintf(
			"If %s is large, writes to it are blocked for the full duration of the index build.",
			op.Table))
	}

	return notes
}

// dedupe removes exact duplicate notes while preserving first-seen
// order.
func dedupe(notes []string) []string {
	if len(notes) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(notes))
	out := notes[:0]
	for _, n := range notes {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
