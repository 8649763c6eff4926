// Package classify is the lock-classification decision engine. It maps
// each extracted operation to the PostgreSQL lock it acquires per
// affected table, derives factual notes, checks transaction
// compatibility, and aggregates the per-table impacts into one risk
// level for the migration unit.
package classify

import "lockcheck/internal/core"

// Kinds that take ACCESS EXCLUSIVE for a catalog-only change: the lock
// is the strongest there is, but it is held only for an instant.
var instantExclusive = map[core.OperationKind]bool{
	core.OpDropColumn:     true,
	core.OpDropConstraint: true,
	core.OpSetDefault:     true,
	core.OpDropDefault:    true,
	core.OpDropNotNull:    true,
	core.OpRenameColumn:   true,
	core.OpRenameTable:    true,
	core.OpDropTable:      true,
}

// Kinds that rewrite the table's storage under ACCESS EXCLUSIVE.
var rewriteExclusive = map[core.OperationKind]bool{
	core.OpAlterColumnType: true,
	core.OpTruncate:        true,
	core.OpVacuumFull:      true,
	core.OpCluster:         true,
}

// Classify maps one operation to its per-table lock impacts. Operations
// on tables created by the same migration unit produce no impact for
// that table; a reference to a pre-existing table is still reported.
// UNKNOWN operations produce no impact (they surface as notes instead).
func Classify(op core.Operation) []core.TableImpact {
	switch {
	case op.Kind == core.OpAddColumn:
		return altered(op, core.LockAccessExclusive, addColumnDuration(op))

	case op.Kind == core.OpAddConstraint && op.Constraint == core.ConstraintForeignKey:
		return foreignKeyImpacts(op)

	case op.Kind == core.OpAddConstraint:
		// CHECK, UNIQUE and EXCLUDE validate existing rows under the
		// full lock unless added NOT VALID.
		duration := core.DurationValidation
		if op.NotValid {
			duration = core.DurationInstant
		}
		return altered(op, core.LockAccessExclusive, duration)

	case instantExclusive[op.Kind]:
		return altered(op, core.LockAccessExclusive, core.DurationInstant)

	case rewriteExclusive[op.Kind]:
		return altered(op, core.LockAccessExclusive, core.DurationRewrite)

	case op.Kind == core.OpSetNotNull:
		// A validated CHECK (col IS NOT NULL) lets the scan be skipped.
		if op.HasExistingCheck {
			return altered(op, core.LockAccessExclusive, core.DurationInstant)
		}
		return altered(op, core.LockAccessExclusive, core.DurationRewrite)

	case op.Kind == core.OpCreateTable:
		// The new table itself is never reported, but an inline
		// foreign key locks the referenced table until commit.
		if op.ReferencedTable == "" || op.ReferencedIsNew {
			return nil
		}
		return []core.TableImpact{core.NewImpact(op.ReferencedTable, core.RoleReferenced,
			core.LockShareRowExclusive, core.DurationUntilCommit)}

	case op.Kind == core.OpCreateIndex:
		if op.Concurrently {
			return altered(op, core.LockShareUpdateExclusive, core.DurationIndexBuild)
		}
		return altered(op, core.LockShare, core.DurationIndexBuild)

	case op.Kind == core.OpDropIndex:
		if op.Concurrently {
			return altered(op, core.LockShareUpdateExclusive, core.DurationIndexBuild)
		}
		return altered(op, core.LockAccessExclusive, core.DurationInstant)

	case op.Kind == core.OpReindex:
		if op.Concurrently {
			return altered(op, core.LockShareUpdateExclusive, core.DurationIndexBuild)
		}
		return altered(op, core.LockAccessExclusive, core.DurationRewrite)

	case op.Kind == core.OpValidateConstraint:
		return altered(op, core.LockShareUpdateExclusive, core.DurationValidation)

	default:
		return nil
	}
}

// addColumnDuration encodes the ADD COLUMN special cases: instant
// unless the default must be computed per row (volatile, or any
// default before PostgreSQL 11), the column is NOT NULL without a
// default, or the column is stored generated.
func addColumnDuration(op core.Operation) core.Duration {
	switch {
	case op.DefaultIsVolatile:
		return core.DurationRewrite
	case op.HasDefault && !op.PGVersionAtLeast11:
		return core.DurationRewrite
	case op.HasNotNull && !op.HasDefault:
		return core.DurationRewrite
	case op.GeneratedStored:
		return core.DurationRewrite
	default:
		return core.DurationInstant
	}
}

// foreignKeyImpacts locks both ends of the reference. NOT VALID skips
// the row scan but the locks and their duration are unchanged.
func foreignKeyImpacts(op core.Operation) []core.TableImpact {
	var impacts []core.TableImpact
	if !op.IsNewTable {
		impacts = append(impacts, core.NewImpact(op.Table, core.RoleAltered,
			core.LockShareRowExclusive, core.DurationUntilCommit))
	}
	if op.ReferencedTable != "" && !op.ReferencedIsNew {
		impacts = append(impacts, core.NewImpact(op.ReferencedTable, core.RoleReferenced,
			core.LockShareRowExclusive, core.DurationUntilCommit))
	}
	return impacts
}

// altered is the common single-impact case on the operation's own
// table, suppressed when that table is new in this unit.
func altered(op core.Operation, lock core.LockType, duration core.Duration) []core.TableImpact {
	if op.IsNewTable {
		return nil
	}
	return []core.TableImpact{core.NewImpact(op.Table, core.RoleAltered, lock, duration)}
}
