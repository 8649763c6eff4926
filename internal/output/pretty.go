package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"lockcheck/internal/core"
)

type prettyFormatter struct{}

// FormatReport renders the report for terminals. It carries the same
// data as markdown but is not part of the compatibility contract.
func (prettyFormatter) FormatReport(r *core.Report) (string, error) {
	if r == nil {
		return "", nil
	}
	var sb strings.Builder

	if r.TxFlag != nil && r.TxFlag.Conflict {
		sb.WriteString(txErrorLine(r.TxFlag))
		sb.WriteString("\n\n")
	}

	if len(r.Impacts) == 0 {
		sb.WriteString(NoImpactSentinel)
		sb.WriteString("\n")
	} else {
		t := table.NewWriter()
		t.SetOutputMirror(&sb)
		t.SetStyle(table.StyleLight)

		header := make(table.Row, len(impactColumns))
		for i, col := range impactColumns {
			header[i] = col
		}
		t.AppendHeader(header)

		for _, imp := range r.Impacts {
			t.AppendRow(table.Row{
				imp.Table, string(imp.Lock),
				yesNo(imp.BlocksReads), yesNo(imp.BlocksWrites),
				string(imp.Duration),
			})
		}
		t.Render()
	}

	fmt.Fprintf(&sb, "\nRisk: %s\n", r.Risk)

	if len(r.Notes) == 0 {
		sb.WriteString("\nNotes: None.\n")
	} else {
		sb.WriteString("\nNotes:\n")
		for _, note := range r.Notes {
			fmt.Fprintf(&sb, "- %s\n", note)
		}
	}

	return sb.String(), nil
}
