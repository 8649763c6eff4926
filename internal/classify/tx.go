package classify

import "lockcheck/internal/core"

// AnalyzeTransaction flags CONCURRENTLY operations occurring inside an
// explicit transaction boundary. This is a fatal incompatibility: the
// migration fails at execution time, independent of any lock risk.
//
// When the unit contains no explicit transaction syntax, nil is
// returned and nothing is reported about transaction behavior at all —
// absence of evidence is not evidence of absence.
func AnalyzeTransaction(unit *core.Unit) *core.TransactionFlag {
	begins := false
	for _, tok := range unit.TxTokens {
		if tok.Kind == core.TxBegin {
			begins = true
			break
		}
	}
	if !begins {
		return nil
	}

	flag := &core.TransactionFlag{Explicit: true}
	for _, op := range unit.Operations {
		if op.Concurrently && inTransaction(unit.TxTokens, op.Seq) {
			flag.Conflict = true
			flag.Statement = truncate(op.Raw, 80)
			break
		}
	}
	return flag
}

// inTransaction reports whether statement position seq falls between a
// BEGIN and its matching COMMIT. An unmatched BEGIN extends to the end
// of the unit.
func inTransaction(tokens []core.TxToken, seq int) bool {
	open := -1
	for _, tok := range tokens {
		switch tok.Kind {
		case core.TxBegin:
			if open < 0 {
				open = tok.Seq
			}
		case core.TxCommit:
			if open >= 0 && open < seq && seq < tok.Seq {
				return true
			}
			open = -1
		}
	}
	return open >= 0 && open < seq
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
