// Package activerecord extracts structured migration operations from
// Ruby ActiveRecord migration files. Recognition is line-oriented over
// the migration DSL; `execute "..."` bodies are handed to the raw SQL
// extractor. Only literal transaction wrapper syntax produces a
// transaction boundary: the framework's implicit per-migration
// transaction is never reported.
package activerecord

import (
	"regexp"
	"strings"

	"lockcheck/internal/core"
	"lockcheck/internal/extract/postgres"
)

var (
	reComment = regexp.MustCompile(`(^|\s)#.*$`)

	// Bare `transaction do` opening a block. A chained receiver
	// (`conn.transaction do`) deliberately does not match.
	reTransactionDo = regexp.MustCompile(`^transaction\s+do(\s*\|[^|]*\|)?\s*$`)
	reBlockOpen     = regexp.MustCompile(`\bdo(\s*\|[^|]*\|)?\s*$`)
	reEnd           = regexp.MustCompile(`^end\b`)

	// No \b after the name: `!` and `?` are method-name characters and a
	// boundary there would split `disable_ddl_transaction!`.
	reCall    = regexp.MustCompile(`^([a-z_][a-z0-9_!?]*)\s*\(?\s*(.*?)\)?\s*$`)
	reExecute = regexp.MustCompile(`^execute\s*\(?\s*(?:<<[~-]?(?:SQL|['"]SQL['"])|"((?:[^"\\]|\\.)*)"|'([^']*)')`)

	reSymbolOrString = regexp.MustCompile(`^(?::([A-Za-z_][A-Za-z0-9_]*)|"([^"]+)"|'([^']+)')$`)
	reToTable        = regexp.MustCompile(`to_table:\s*(?::([A-Za-z_][A-Za-z0-9_]*)|"([^"]+)"|'([^']+)')`)
	reAlgorithm      = regexp.MustCompile(`algorithm:\s*:concurrently`)
	reNullFalse      = regexp.MustCompile(`null:\s*false`)
	reValidateFalse  = regexp.MustCompile(`validate:\s*false`)
	reDefaultOpt     = regexp.MustCompile(`default:\s*(.+?)(?:,\s*[a-z_]+:|$)`)
	reForeignKeyOpt  = regexp.MustCompile(`foreign_key:\s*(?:true|\{)`)
	reStoredOpt      = regexp.MustCompile(`stored:\s*true`)

	reVolatileDefault = regexp.MustCompile(`(?i)\b(?:random|gen_random_uuid|uuid_generate_v4|clock_timestamp|timeofday|nextval)\s*\(`)
)

type Extractor struct {
	pgVersion int
	sql       *postgres.Extractor
}

func NewExtractor(pgVersion int) *Extractor {
	return &Extractor{pgVersion: pgVersion, sql: postgres.NewExtractor(pgVersion)}
}

// Extract scans the migration line by line. Each recognized DSL call
// becomes one statement position; block structure is tracked only to
// bound explicit `transaction do ... end` wrappers.
func (e *Extractor) Extract(src string) (*core.Unit, error) {
	unit := &core.Unit{}
	st := newState()
	seq := 0
	lines := strings.Split(src, "\n")

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(reComment.ReplaceAllString(lines[i], ""))
		if line == "" {
			continue
		}

		// class/def bodies are blocks too; tracking them keeps the
		// do/end counter balanced for transaction wrappers.
		if strings.HasPrefix(line, "class ") || strings.HasPrefix(line, "def ") ||
			strings.HasPrefix(line, "module ") {
			st.openBlock(false)
			continue
		}
		if reEnd.MatchString(line) {
			if st.closeBlock() {
				unit.TxTokens = append(unit.TxTokens, core.TxToken{Kind: core.TxCommit, Seq: seq, Raw: line})
				seq++
			}
			continue
		}
		if reTransactionDo.MatchString(line) {
			st.openBlock(true)
			unit.TxTokens = append(unit.TxTokens, core.TxToken{Kind: core.TxBegin, Seq: seq, Raw: line})
			seq++
			continue
		}

		if m := reExecute.FindStringSubmatch(line); m != nil {
			body, consumed := e.executeBody(m, lines, i)
			i = consumed
			sqlUnit, err := e.sql.Extract(body)
			if err == nil {
				seq = appendShifted(unit, sqlUnit, seq)
			}
			continue
		}

		// The `do |t|` opener is block syntax, not part of the call's
		// argument list; strip it before argument parsing.
		opened := reBlockOpen.MatchString(line)
		call := line
		if opened {
			call = strings.TrimSpace(reBlockOpen.ReplaceAllString(line, ""))
		}
		ops := e.scanCall(st, seq, call)
		if opened {
			st.openBlock(false)
		} else {
			st.pendingBlockTable = ""
		}
		if len(ops) > 0 {
			unit.Operations = append(unit.Operations, ops...)
			seq++
		}
	}
	return unit, nil
}

// executeBody returns the SQL text of an execute call, consuming a
// heredoc body when present. Returns the index of the last consumed
// line.
func (e *Extractor) executeBody(m []string, lines []string, i int) (string, int) {
	if m[1] != "" {
		return strings.ReplaceAll(m[1], `\"`, `"`), i
	}
	if m[2] != "" {
		return m[2], i
	}
	var body []string
	j := i + 1
	for ; j < len(lines); j++ {
		if strings.TrimSpace(lines[j]) == "SQL" {
			break
		}
		body = append(body, lines[j])
	}
	return strings.Join(body, "\n"), j
}

// appendShifted merges a nested SQL unit into the outer one, offsetting
// its sequence numbers so within-unit ordering is preserved.
func appendShifted(unit *core.Unit, nested *core.Unit, seq int) int {
	maxSeq := -1
	for _, op := range nested.Operations {
		if op.Seq > maxSeq {
			maxSeq = op.Seq
		}
		op.Seq += seq
		unit.Operations = append(unit.Operations, op)
	}
	for _, tok := range nested.TxTokens {
		if tok.Seq > maxSeq {
			maxSeq = tok.Seq
		}
		tok.Seq += seq
		unit.TxTokens = append(unit.TxTokens, tok)
	}
	return seq + maxSeq + 1
}
