package output

import (
	"fmt"
	"strings"

	"lockcheck/internal/core"
)

type markdownFormatter struct{}

// impactColumns is the fixed column set of the report contract.
var impactColumns = []string{"Table", "Lock Type", "Blocks Reads", "Blocks Writes", "Duration"}

// FormatReport renders the contract shape: the five-column impact table
// in operation order (or the fixed sentinel), the risk level, and the
// notes list. Duration and boolean vocabulary are fixed; callers depend
// on this exact shape.
func (markdownFormatter) FormatReport(r *core.Report) (string, error) {
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
		writeMarkdownTable(&sb, r.Impacts)
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

func writeMarkdownTable(sb *strings.Builder, impacts []core.TableImpact) {
	fmt.Fprintf(sb, "| %s |\n", strings.Join(impactColumns, " | "))

	seps := make([]string, len(impactColumns))
	for i := range seps {
		seps[i] = "---"
	}
	fmt.Fprintf(sb, "| %s |\n", strings.Join(seps, " | "))

	for _, imp := range impacts {
		fmt.Fprintf(sb, "| %s | %s | %s | %s | %s |\n",
			imp.Table, imp.Lock, yesNo(imp.BlocksReads), yesNo(imp.BlocksWrites), imp.Duration)
	}
}
