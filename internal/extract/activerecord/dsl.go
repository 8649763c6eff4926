package activerecord

import (
	"strings"

	"lockcheck/internal/core"
)

// scaffolding calls that are recognized but carry no lock-relevant
// operation of their own.
var noOpCalls = map[string]bool{
	"disable_ddl_transaction!": true,
	"reversible":               true,
	"up_only":                  true,
	"safety_assured":           true,
	"say":                      true,
	"say_with_time":            true,
}

func (e *Extractor) scanCall(st *state, seq int, line string) []core.Operation {
	if m := reTableColCall.FindStringSubmatch(line); m != nil {
		return e.scanColumnCall(st, seq, line, m[2], m[3])
	}
	m := reCall.FindStringSubmatch(line)
	if m == nil {
		return []core.Operation{{Kind: core.OpUnknown, Seq: seq, Raw: line}}
	}
	name, args := m[1], splitArgs(m[2])

	base := core.Operation{Seq: seq, Raw: line}
	if t := symbolArg(args, 0); t != "" {
		base.Table = t
		base.IsNewTable = st.isNew(t)
	}

	switch name {
	case "create_table":
		st.addNewTable(base.Table)
		st.pendingBlockTable = base.Table
		op := base
		op.Kind = core.OpCreateTable
		op.IsNewTable = true
		return []core.Operation{op}
	case "drop_table":
		op := base
		op.Kind = core.OpDropTable
		return []core.Operation{op}
	case "add_column":
		return []core.Operation{e.addColumnOp(base, args, line)}
	case "remove_column":
		op := base
		op.Kind = core.OpDropColumn
		op.Column = symbolArg(args, 1)
		return []core.Operation{op}
	case "change_column":
		op := base
		op.Kind = core.OpAlterColumnType
		op.Column = symbolArg(args, 1)
		return []core.Operation{op}
	case "change_column_null":
		op := base
		op.Column = symbolArg(args, 1)
		if positionalArg(args, 2) == "true" {
			op.Kind = core.OpDropNotNull
		} else {
			op.Kind = core.OpSetNotNull
			op.HasExistingCheck = st.hasNotNullCheck(op.Table, op.Column)
		}
		return []core.Operation{op}
	case "change_column_default":
		op := base
		op.Column = symbolArg(args, 1)
		if positionalArg(args, 2) == "nil" {
			op.Kind = core.OpDropDefault
		} else {
			op.Kind = core.OpSetDefault
		}
		return []core.Operation{op}
	case "rename_column":
		op := base
		op.Kind = core.OpRenameColumn
		op.Column = symbolArg(args, 1)
		return []core.Operation{op}
	case "rename_table":
		op := base
		op.Kind = core.OpRenameTable
		return []core.Operation{op}
	case "add_index":
		op := base
		op.Kind = core.OpCreateIndex
		op.Concurrently = reAlgorithm.MatchString(line)
		return []core.Operation{op}
	case "remove_index":
		op := base
		op.Kind = core.OpDropIndex
		op.Concurrently = reAlgorithm.MatchString(line)
		return []core.Operation{op}
	case "add_foreign_key":
		op := base
		op.Kind = core.OpAddConstraint
		op.Constraint = core.ConstraintForeignKey
		op.NotValid = reValidateFalse.MatchString(line)
		op.ReferencedTable = symbolArg(args, 1)
		op.ReferencedIsNew = st.isNew(op.ReferencedTable)
		return []core.Operation{op}
	case "remove_foreign_key", "remove_check_constraint":
		op := base
		op.Kind = core.OpDropConstraint
		return []core.Operation{op}
	case "add_check_constraint":
		return []core.Operation{e.addCheckOp(st, base, args, line)}
	case "validate_constraint", "validate_foreign_key":
		op := base
		op.Kind = core.OpValidateConstraint
		st.validateConstraint(op.Table, symbolArg(args, 1))
		return []core.Operation{op}
	case "add_reference", "add_belongs_to":
		return e.referenceOps(st, base, args, line)
	}

	if noOpCalls[name] {
		return nil
	}
	return []core.Operation{{Kind: core.OpUnknown, Seq: seq, Raw: line}}
}

// scanColumnCall handles `t.xxx` calls inside a create_table block.
// Only references with a foreign key matter for locking; every other
// column definition belongs to the new table and has no impact.
func (e *Extractor) scanColumnCall(st *state, seq int, line, method, argstr string) []core.Operation {
	table := st.blockTable()
	if table == "" {
		return nil
	}
	if (method != "references" && method != "belongs_to") || !reForeignKeyOpt.MatchString(line) {
		return nil
	}
	args := splitArgs(argstr)
	ref := referencedTable(line, symbolArg(args, 0))
	if ref == "" || st.isNew(ref) {
		return nil
	}
	return []core.Operation{{
		Kind: core.OpCreateTable, Table: table, Seq: seq, Raw: line,
		IsNewTable: true, ReferencedTable: ref,
	}}
}

func (e *Extractor) addColumnOp(base core.Operation, args []string, line string) core.Operation {
	op := base
	op.Kind = core.OpAddColumn
	op.Column = symbolArg(args, 1)
	op.PGVersionAtLeast11 = e.pgVersion >= 11
	op.HasNotNull = reNullFalse.MatchString(line)
	op.GeneratedStored = reStoredOpt.MatchString(line)
	if m := reDefaultOpt.FindStringSubmatch(line); m != nil {
		op.HasDefault = true
		op.DefaultIsVolatile = reVolatileDefault.MatchString(m[1])
	}
	return op
}

func (e *Extractor) addCheckOp(st *state, base core.Operation, args []string, line string) core.Operation {
	op := base
	op.Kind = core.OpAddConstraint
	op.Constraint = core.ConstraintCheck
	op.NotValid = reValidateFalse.MatchString(line)

	expr := stringArg(args, 1)
	if m := reCheckNotNull.FindStringSubmatch(expr); m != nil {
		st.registerNotNullCheck(op.Table, nameOpt(line), m[1], !op.NotValid)
	}
	return op
}

// referenceOps expands add_reference into the column it adds plus, when
// a foreign key is requested, the constraint on the referenced table.
func (e *Extractor) referenceOps(st *state, base core.Operation, args []string, line string) []core.Operation {
	col := base
	col.Kind = core.OpAddColumn
	col.Column = symbolArg(args, 1) + "_id"
	col.PGVersionAtLeast11 = e.pgVersion >= 11
	col.HasNotNull = reNullFalse.MatchString(line)
	ops := []core.Operation{col}

	if reForeignKeyOpt.MatchString(line) {
		fk := base
		fk.Kind = core.OpAddConstraint
		fk.Constraint = core.ConstraintForeignKey
		fk.NotValid = reValidateFalse.MatchString(line)
		fk.ReferencedTable = referencedTable(line, symbolArg(args, 1))
		fk.ReferencedIsNew = st.isNew(fk.ReferencedTable)
		ops = append(ops, fk)
	}
	return ops
}

// referencedTable resolves the target of a reference: an explicit
// to_table: option wins, otherwise the conventional pluralized name.
func referencedTable(line, ref string) string {
	if m := reToTable.FindStringSubmatch(line); m != nil {
		return firstNonEmpty(m[1:])
	}
	return pluralize(ref)
}

func pluralize(name string) string {
	switch {
	case name == "":
		return ""
	case strings.HasSuffix(name, "s"):
		return name
	case strings.HasSuffix(name, "y"):
		return name[:len(name)-1] + "ies"
	default:
		return name + "s"
	}
}
