package postgres

import (
	"regexp"
	"strings"

	"lockcheck/internal/core"
)

var (
	reValidateConstraint = regexp.MustCompile(`(?is)^VALIDATE\s+CONSTRAINT\s+(` + ident + `)`)
	reAddConstraint      = regexp.MustCompile(`(?is)^ADD\s+CONSTRAINT\s+(` + ident + `)\s+(.*)$`)
	reAddBareConstraint  = regexp.MustCompile(`(?is)^ADD\s+(PRIMARY\s+KEY|UNIQUE|FOREIGN\s+KEY|CHECK|EXCLUDE)\b(.*)$`)
	reAddColumn          = regexp.MustCompile(`(?is)^ADD\s+(?:COLUMN\s+)?(?:IF\s+NOT\s+EXISTS\s+)?(` + ident + `)\s+(.*)$`)
	reDropConstraint     = regexp.MustCompile(`(?is)^DROP\s+CONSTRAINT\s+(?:IF\s+EXISTS\s+)?(` + ident + `)`)
	reDropColumn         = regexp.MustCompile(`(?is)^DROP\s+(?:COLUMN\s+)?(?:IF\s+EXISTS\s+)?(` + ident + `)`)
	reAlterColumn        = regexp.MustCompile(`(?is)^ALTER\s+(?:COLUMN\s+)?(` + ident + `)\s+(.*)$`)
	reRenameTo           = regexp.MustCompile(`(?is)^RENAME\s+TO\s+(` + ident + `)`)
	reRenameColumn       = regexp.MustCompile(`(?is)^RENAME\s+(?:COLUMN\s+)?(` + ident + `)\s+TO\s+(` + ident + `)`)

	reNotValid        = regexp.MustCompile(`(?i)\bNOT\s+VALID\b`)
	reIsNotNull       = regexp.MustCompile(`(?i)\bIS\s+NOT\s+NULL\b`)
	reNotNull         = regexp.MustCompile(`(?i)\bNOT\s+NULL\b`)
	reDefault         = regexp.MustCompile(`(?is)\bDEFAULT\s+(.+)$`)
	reGeneratedStored = regexp.MustCompile(`(?is)\bGENERATED\s+ALWAYS\s+AS\s*\(.*\)\s*STORED\b`)
	reCheckNotNull    = regexp.MustCompile(`(?is)^\s*\(?\s*(` + ident + `)\s+IS\s+NOT\s+NULL\s*\)?\s*$`)

	// Function calls whose results differ per row; a DEFAULT using one
	// of these forces a rewrite on every server version.
	reVolatileFn = regexp.MustCompile(`(?i)\b(?:random|gen_random_uuid|uuid_generate_v4|clock_timestamp|timeofday|nextval)\s*\(`)

	reSetDefault  = regexp.MustCompile(`(?is)^SET\s+DEFAULT\b`)
	reDropDefault = regexp.MustCompile(`(?is)^DROP\s+DEFAULT\b`)
	reSetNotNull  = regexp.MustCompile(`(?is)^SET\s+NOT\s+NULL\b`)
	reDropNotNull = regexp.MustCompile(`(?is)^DROP\s+NOT\s+NULL\b`)
	reSetType     = regexp.MustCompile(`(?is)^(?:SET\s+DATA\s+)?TYPE\b`)
)

// alterAction recognizes one action of an ALTER TABLE statement.
// Action order matters: constraint forms are tried before the column
// forms whose looser patterns would otherwise swallow them.
func (e *Extractor) alterAction(st *unitState, table, action, raw string, seq int) []core.Operation {
	base := core.Operation{Table: table, Seq: seq, Raw: raw, IsNewTable: st.isNew(table)}

	if m := reValidateConstraint.FindStringSubmatch(action); m != nil {
		st.validateConstraint(table, normalizeName(m[1]))
		op := base
		op.Kind = core.OpValidateConstraint
		return []core.Operation{op}
	}
	if m := reAddConstraint.FindStringSubmatch(action); m != nil {
		return []core.Operation{e.constraintOp(st, base, normalizeName(m[1]), m[2])}
	}
	if m := reAddBareConstraint.FindStringSubmatch(action); m != nil {
		return []core.Operation{e.constraintOp(st, base, "", m[1]+m[2])}
	}
	if m := reAddColumn.FindStringSubmatch(action); m != nil {
		return []core.Operation{e.addColumnOp(base, normalizeName(m[1]), m[2])}
	}
	if m := reDropConstraint.FindStringSubmatch(action); m != nil {
		op := base
		op.Kind = core.OpDropConstraint
		return []core.Operation{op}
	}
	if m := reDropColumn.FindStringSubmatch(action); m != nil {
		op := base
		op.Kind = core.OpDropColumn
		op.Column = normalizeName(m[1])
		return []core.Operation{op}
	}
	if m := reRenameTo.FindStringSubmatch(action); m != nil {
		op := base
		op.Kind = core.OpRenameTable
		return []core.Operation{op}
	}
	if m := reRenameColumn.FindStringSubmatch(action); m != nil {
		op := base
		op.Kind = core.OpRenameColumn
		op.Column = normalizeName(m[1])
		return []core.Operation{op}
	}
	if m := reAlterColumn.FindStringSubmatch(action); m != nil {
		return []core.Operation{e.alterColumnOp(st, base, normalizeName(m[1]), m[2])}
	}

	op := base
	op.Kind = core.OpUnknown
	return []core.Operation{op}
}

func (e *Extractor) addColumnOp(base core.Operation, column, rest string) core.Operation {
	op := base
	op.Kind = core.OpAddColumn
	op.Column = column
	op.PGVersionAtLeast11 = e.pgVersion >= 11
	op.GeneratedStored = reGeneratedStored.MatchString(rest)
	// "IS NOT NULL" inside an inline CHECK must not count as a
	// NOT NULL column constraint.
	op.HasNotNull = reNotNull.MatchString(reIsNotNull.ReplaceAllString(rest, ""))
	if m := reDefault.FindStringSubmatch(rest); m != nil {
		op.HasDefault = true
		op.DefaultIsVolatile = reVolatileFn.MatchString(m[1])
	}
	return op
}

func (e *Extractor) alterColumnOp(st *unitState, base core.Operation, column, rest string) core.Operation {
	op := base
	op.Column = column
	switch {
	case reSetDefault.MatchString(rest):
		op.Kind = core.OpSetDefault
	case reDropDefault.MatchString(rest):
		op.Kind = core.OpDropDefault
	case reSetNotNull.MatchString(rest):
		op.Kind = core.OpSetNotNull
		op.HasExistingCheck = st.hasNotNullCheck(base.Table, column)
	case reDropNotNull.MatchString(rest):
		op.Kind = core.OpDropNotNull
	case reSetType.MatchString(rest):
		op.Kind = core.OpAlterColumnType
	default:
		op.Kind = core.OpUnknown
	}
	return op
}

// constraintOp parses the body of an ADD CONSTRAINT action. PRIMARY KEY
// is treated as UNIQUE: same lock, same validation scan.
func (e *Extractor) constraintOp(st *unitState, base core.Operation, name, body string) core.Operation {
	op := base
	op.Kind = core.OpAddConstraint
	op.NotValid = reNotValid.MatchString(body)

	upper := strings.Join(strings.Fields(strings.ToUpper(body)), " ")
	switch {
	case strings.HasPrefix(upper, "FOREIGN KEY"):
		op.Constraint = core.ConstraintForeignKey
		if m := reReferences.FindStringSubmatch(body); m != nil {
			op.ReferencedTable = normalizeName(m[1])
			op.ReferencedIsNew = st.isNew(op.ReferencedTable)
		}
	case strings.HasPrefix(upper, "PRIMARY") || strings.HasPrefix(upper, "UNIQUE"):
		op.Constraint = core.ConstraintUnique
	case strings.HasPrefix(upper, "EXCLUDE"):
		op.Constraint = core.ConstraintExclude
	case strings.HasPrefix(upper, "CHECK"):
		op.Constraint = core.ConstraintCheck
		if expr, ok := parenExpr(body); ok {
			if m := reCheckNotNull.FindStringSubmatch(expr); m != nil {
				st.registerNotNullCheck(base.Table, name, normalizeName(m[1]), !op.NotValid)
			}
		}
	default:
		op.Constraint = core.ConstraintCheck
	}
	return op
}

// parenExpr returns the contents of the first balanced paren group.
func parenExpr(s string) (string, bool) {
	start := strings.IndexByte(s, '(')
	if start < 0 {
		return "", false
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[start+1 : i], true
			}
		}
	}
	return "", false
}

// unitState threads syntactic facts through one migration unit: which
// tables the unit itself creates, and which columns have a CHECK
// (col IS NOT NULL) constraint added (and validated) earlier in the
// unit, which lets a later bare SET NOT NULL skip the rewrite scan.
type unitState struct {
	newTables     map[string]bool
	notNullChecks map[string]map[string]bool
	// pendingChecks holds NOT VALID checks by constraint name until a
	// VALIDATE CONSTRAINT in the same unit promotes them.
	pendingChecks map[string]map[string]string
}

func newUnitState() *unitState {
	return &unitState{
		newTables:     map[string]bool{},
		notNullChecks: map[string]map[string]bool{},
		pendingChecks: map[string]map[string]string{},
	}
}

func (s *unitState) addNewTable(table string) {
	s.newTables[table] = true
}

func (s *unitState) isNew(table string) bool {
	return s.newTables[table]
}

func (s *unitState) registerNotNullCheck(table, name, column string, valid bool) {
	if valid {
		if s.notNullChecks[table] == nil {
			s.notNullChecks[table] = map[string]bool{}
		}
		s.notNullChecks[table][column] = true
		return
	}
	if name == "" {
		return
	}
	if s.pendingChecks[table] == nil {
		s.pendingChecks[table] = map[string]string{}
	}
	s.pendingChecks[table][name] = column
}

func (s *unitState) validateConstraint(table, name string) {
	if column, ok := s.pendingChecks[table][name]; ok {
		s.registerNotNullCheck(table, "", column, true)
		delete(s.pendingChecks[table], name)
	}
}

func (s *unitState) hasNotNullCheck(table, column string) bool {
	return s.notNullChecks[table][column]
}
