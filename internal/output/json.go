package output

import (
	"encoding/json"

	"lockcheck/internal/core"
)

type jsonFormatter struct{}

type reportSummary struct {
	Impacts             int    `json:"impacts"`
	Risk                string `json:"risk"`
	Notes               int    `json:"notes"`
	TransactionConflict bool   `json:"transactionConflict"`
}

type reportPayload struct {
	Format  string                `json:"format"`
	File    string                `json:"file,omitempty"`
	Summary reportSummary         `json:"summary"`
	Impacts []core.TableImpact    `json:"impacts,omitempty"`
	Notes   []string              `json:"notes,omitempty"`
	TxFlag  *core.TransactionFlag `json:"transaction,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// FormatReport renders the report as indented JSON with a summary
// block.
func (jsonFormatter) FormatReport(r *core.Report) (string, error) {
	payload := reportPayload{Format: string(FormatJSON)}
	if r != nil {
		payload.File = r.File
		payload.Impacts = r.Impacts
		payload.Notes = r.Notes
		payload.TxFlag = r.TxFlag
		payload.Summary = reportSummary{
			Impacts:             len(r.Impacts),
			Risk:                r.Risk.String(),
			Notes:               len(r.Notes),
			TransactionConflict: r.TxFlag != nil && r.TxFlag.Conflict,
		}
		if r.TxFlag != nil && r.TxFlag.Conflict {
			payload.Error = txErrorLine(r.TxFlag)
		}
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
