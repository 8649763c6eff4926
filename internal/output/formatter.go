// Package output renders analysis reports. The markdown format is the
// compatibility contract consumed by PR-comment renderers; json and
// pretty carry the same data in other shapes.
package output

import (
	"fmt"
	"strings"

	"lockcheck/internal/core"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatPretty   Format = "pretty"
)

// Formatter renders one report. Rendering is stateless and pure.
type Formatter interface {
	FormatReport(*core.Report) (string, error)
}

// NewFormatter creates a Formatter by name. If no format is specified,
// defaults to markdown.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatMarkdown, "md":
		return markdownFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatPretty:
		return prettyFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'markdown', 'json', or 'pretty'", name)
	}
}

// NoImpactSentinel replaces the impact table when a migration touches
// no pre-existing table.
const NoImpactSentinel = "No existing tables affected."

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func txErrorLine(flag *core.TransactionFlag) string {
	return fmt.Sprintf("Error: %s cannot run inside a transaction block; this migration fails at execution time.",
		flag.Statement)
}
