// Package postgres extracts structured migration operations from raw
// PostgreSQL DDL. Recognition is keyword- and pattern-based: it
// captures the syntax that is literally present and leaves lock
// semantics entirely to the classifier.
package postgres

import (
	"regexp"
	"strings"

	"lockcheck/internal/core"
)

// ident matches a possibly quoted, possibly schema-qualified name.
const ident = `(?:"[^"]+"|[A-Za-z_][A-Za-z0-9_$]*)(?:\.(?:"[^"]+"|[A-Za-z_][A-Za-z0-9_$]*))*`

var (
	reTxBegin = regexp.MustCompile(`(?is)^(?:BEGIN|START\s+TRANSACTION)\b`)
	reTxEnd   = regexp.MustCompile(`(?is)^(?:COMMIT|END)\b`)

	reCreateTable = regexp.MustCompile(`(?is)^CREATE\s+(?:GLOBAL\s+|LOCAL\s+)?(?:TEMPORARY\s+|TEMP\s+|UNLOGGED\s+)?TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(` + ident + `)`)
	reReferences  = regexp.MustCompile(`(?is)\bREFERENCES\s+(` + ident + `)`)
	reAlterTable  = regexp.MustCompile(`(?is)^ALTER\s+TABLE\s+(?:IF\s+EXISTS\s+)?(?:ONLY\s+)?(` + ident + `)\s+(.*)$`)
	reCreateIndex = regexp.MustCompile(`(?is)^CREATE\s+(?:UNIQUE\s+)?INDEX\s+(CONCURRENTLY\s+)?(?:IF\s+NOT\s+EXISTS\s+)?(?:` + ident + `\s+)?ON\s+(?:ONLY\s+)?(` + ident + `)`)
	reDropIndex   = regexp.MustCompile(`(?is)^DROP\s+INDEX\s+(CONCURRENTLY\s+)?(?:IF\s+EXISTS\s+)?(` + ident + `)`)
	reReindex     = regexp.MustCompile(`(?is)^REINDEX\s+(?:\([^)]*\)\s*)?(?:INDEX|TABLE|SCHEMA|DATABASE|SYSTEM)\s+(CONCURRENTLY\s+)?(` + ident + `)`)
	reTruncate    = regexp.MustCompile(`(?is)^TRUNCATE\s+(?:TABLE\s+)?(?:ONLY\s+)?(.*)$`)
	reVacuum      = regexp.MustCompile(`(?is)^VACUUM\b(.*)$`)
	reCluster     = regexp.MustCompile(`(?is)^CLUSTER\s+(?:VERBOSE\s+)?(` + ident + `)`)
	reDropTable   = regexp.MustCompile(`(?is)^DROP\s+TABLE\s+(?:IF\s+EXISTS\s+)?(.*)$`)
)

type Extractor struct {
	pgVersion int
}

func NewExtractor(pgVersion int) *Extractor {
	return &Extractor{pgVersion: pgVersion}
}

// Extract splits the source into statements and recognizes each one in
// order. Unrecognized statements become UNKNOWN operations; nothing is
// silently dropped.
func (e *Extractor) Extract(src string) (*core.Unit, error) {
	unit := &core.Unit{}
	st := newUnitState()
	for seq, stmt := range SplitStatements(src) {
		e.scanStatement(unit, st, seq, stmt)
	}
	return unit, nil
}

func (e *Extractor) scanStatement(unit *core.Unit, st *unitState, seq int, stmt string) {
	raw := collapse(stmt)

	switch {
	case reTxBegin.MatchString(stmt):
		unit.TxTokens = append(unit.TxTokens, core.TxToken{Kind: core.TxBegin, Seq: seq, Raw: raw})
	case reTxEnd.MatchString(stmt):
		unit.TxTokens = append(unit.TxTokens, core.TxToken{Kind: core.TxCommit, Seq: seq, Raw: raw})
	case reCreateTable.MatchString(stmt):
		e.scanCreateTable(unit, st, seq, stmt, raw)
	case reAlterTable.MatchString(stmt):
		m := reAlterTable.FindStringSubmatch(stmt)
		table := normalizeName(m[1])
		for _, action := range splitTopLevel(m[2], ',') {
			unit.Operations = append(unit.Operations, e.alterAction(st, table, strings.TrimSpace(action), raw, seq)...)
		}
	case reCreateIndex.MatchString(stmt):
		m := reCreateIndex.FindStringSubmatch(stmt)
		table := normalizeName(m[2])
		unit.Operations = append(unit.Operations, core.Operation{
			Kind: core.OpCreateIndex, Table: table, Seq: seq, Raw: raw,
			IsNewTable: st.isNew(table), Concurrently: m[1] != "",
		})
	case reDropIndex.MatchString(stmt):
		m := reDropIndex.FindStringSubmatch(stmt)
		// DROP INDEX names only the index; that name is reported as-is.
		unit.Operations = append(unit.Operations, core.Operation{
			Kind: core.OpDropIndex, Table: normalizeName(m[2]), Seq: seq, Raw: raw,
			Concurrently: m[1] != "",
		})
	case reReindex.MatchString(stmt):
		m := reReindex.FindStringSubmatch(stmt)
		table := normalizeName(m[2])
		unit.Operations = append(unit.Operations, core.Operation{
			Kind: core.OpReindex, Table: table, Seq: seq, Raw: raw,
			IsNewTable: st.isNew(table), Concurrently: m[1] != "",
		})
	case reTruncate.MatchString(stmt):
		m := reTruncate.FindStringSubmatch(stmt)
		for _, table := range tableList(m[1]) {
			unit.Operations = append(unit.Operations, core.Operation{
				Kind: core.OpTruncate, Table: table, Seq: seq, Raw: raw,
				IsNewTable: st.isNew(table),
			})
		}
	case reVacuum.MatchString(stmt):
		m := reVacuum.FindStringSubmatch(stmt)
		full, table := scanVacuum(m[1])
		if !full {
			// Plain VACUUM is not in the operation set; surface it
			// rather than guessing at its lock behavior.
			unit.Operations = append(unit.Operations, core.Operation{Kind: core.OpUnknown, Seq: seq, Raw: raw})
			return
		}
		unit.Operations = append(unit.Operations, core.Operation{
			Kind: core.OpVacuumFull, Table: table, Seq: seq, Raw: raw,
			IsNewTable: st.isNew(table),
		})
	case reCluster.MatchString(stmt):
		m := reCluster.FindStringSubmatch(stmt)
		table := normalizeName(m[1])
		unit.Operations = append(unit.Operations, core.Operation{
			Kind: core.OpCluster, Table: table, Seq: seq, Raw: raw,
			IsNewTable: st.isNew(table),
		})
	case reDropTable.MatchString(stmt):
		m := reDropTable.FindStringSubmatch(stmt)
		for _, table := range tableList(m[1]) {
			unit.Operations = append(unit.Operations, core.Operation{
				Kind: core.OpDropTable, Table: table, Seq: seq, Raw: raw,
				IsNewTable: st.isNew(table),
			})
		}
	default:
		unit.Operations = append(unit.Operations, core.Operation{Kind: core.OpUnknown, Seq: seq, Raw: raw})
	}
}

// scanCreateTable registers the new table and emits one CREATE_TABLE
// operation per inline foreign-key reference, so the single-reference
// operation shape holds even for tables referencing several others.
// A table without references still yields one operation; the
// classifier produces no impact for it.
func (e *Extractor) scanCreateTable(unit *core.Unit, st *unitState, seq int, stmt, raw string) {
	m := reCreateTable.FindStringSubmatch(stmt)
	table := normalizeName(m[1])
	st.addNewTable(table)

	seen := map[string]bool{}
	emitted := false
	for _, rm := range reReferences.FindAllStringSubmatch(stmt, -1) {
		ref := normalizeName(rm[1])
		if ref == table || seen[ref] {
			continue
		}
		seen[ref] = true
		unit.Operations = append(unit.Operations, core.Operation{
			Kind: core.OpCreateTable, Table: table, Seq: seq, Raw: raw,
			IsNewTable: true, ReferencedTable: ref, ReferencedIsNew: st.isNew(ref),
		})
		emitted = true
	}
	if !emitted {
		unit.Operations = append(unit.Operations, core.Operation{
			Kind: core.OpCreateTable, Table: table, Seq: seq, Raw: raw, IsNewTable: true,
		})
	}
}

// scanVacuum inspects the remainder of a VACUUM statement for the FULL
// option (keyword or parenthesized form) and the target table.
func scanVacuum(rest string) (full bool, table string) {
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "(") {
		end := strings.IndexByte(rest, ')')
		if end < 0 {
			end = len(rest) - 1
		}
		opts := strings.ToUpper(rest[1:end])
		for _, o := range strings.Split(opts, ",") {
			fields := strings.Fields(o)
			if len(fields) > 0 && fields[0] == "FULL" {
				full = len(fields) == 1 || (fields[1] != "FALSE" && fields[1] != "OFF" && fields[1] != "0")
			}
		}
		rest = strings.TrimSpace(rest[end+1:])
	}
	words := strings.Fields(rest)
	for len(words) > 0 {
		switch strings.ToUpper(words[0]) {
		case "FULL":
			full = true
			words = words[1:]
		case "FREEZE", "VERBOSE", "ANALYZE", "ANALYSE":
			words = words[1:]
		default:
			table = normalizeName(strings.TrimSuffix(words[0], ","))
			return full, table
		}
	}
	return full, ""
}

// tableList parses the table-name list of TRUNCATE/DROP TABLE,
// stripping trailing options like CASCADE or RESTART IDENTITY.
func tableList(rest string) []string {
	rest = strings.TrimSpace(rest)
	for _, kw := range []string{"RESTART IDENTITY", "CONTINUE IDENTITY", "CASCADE", "RESTRICT"} {
		if idx := indexWordFold(rest, kw); idx >= 0 {
			rest = rest[:idx]
		}
	}
	var tables []string
	for _, part := range splitTopLevel(rest, ',') {
		part = strings.TrimSpace(part)
		if f := strings.Fields(part); len(f) > 1 && strings.EqualFold(f[0], "ONLY") {
			part = strings.Join(f[1:], " ")
		}
		part = strings.TrimSpace(strings.TrimSuffix(part, "*"))
		if part == "" {
			continue
		}
		tables = append(tables, normalizeName(part))
	}
	return tables
}

func indexWordFold(s, word string) int {
	upper := strings.ToUpper(s)
	word = strings.ToUpper(word)
	from := 0
	for {
		idx := strings.Index(upper[from:], word)
		if idx < 0 {
			return -1
		}
		idx += from
		before := idx == 0 || !isIdentChar(upper[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx >= len(upper) || !isIdentChar(upper[afterIdx])
		if before && after {
			return idx
		}
		from = idx + 1
	}
}

// normalizeName lowercases unquoted identifier parts and strips quotes,
// matching PostgreSQL's case folding so in-unit table tracking works
// regardless of how the name is spelled.
func normalizeName(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if strings.HasPrefix(p, `"`) && strings.HasSuffix(p, `"`) && len(p) >= 2 {
			parts[i] = p[1 : len(p)-1]
		} else {
			parts[i] = strings.ToLower(p)
		}
	}
	return strings.Join(parts, ".")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
