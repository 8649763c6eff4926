package classify

import "lockcheck/internal/core"

// Result is the classified view of one migration unit before report
// rendering.
type Result struct {
	Impacts []core.TableImpact
	Notes   []string
	TxFlag  *core.TransactionFlag
	Risk    core.RiskLevel
}

// Run classifies every operation of a unit in order, derives notes,
// checks transaction compatibility and aggregates the overall risk.
// It is a pure function of the unit.
func Run(unit *core.Unit) *Result {
	res := &Result{}
	for _, op := range unit.Operations {
		impacts := Classify(op)
		res.Impacts = append(res.Impacts, impacts...)
		res.Notes = append(res.Notes, notesFor(op, impacts)...)
	}
	res.Notes = dedupe(res.Notes)
	res.TxFlag = AnalyzeTransaction(unit)
	res.Risk = AggregateRisk(res.Impacts)
	return res
}
