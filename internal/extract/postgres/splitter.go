package postgres

import "strings"

// SplitStatements splits SQL source into individual statements on
// semicolons, honoring line comments, nested block comments, quoted
// identifiers, string literals and dollar-quoted strings. Comments are
// dropped from the returned text; statement bodies are otherwise kept
// verbatim. Empty statements are skipped.
func SplitStatements(src string) []string {
	var stmts []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	i, n := 0, len(src)
	for i < n {
		c := src[i]
		switch {
		case c == '-' && i+1 < n && src[i+1] == '-':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			depth := 1
			i += 2
			for i < n && depth > 0 {
				if src[i] == '/' && i+1 < n && src[i+1] == '*' {
					depth++
					i += 2
				} else if src[i] == '*' && i+1 < n && src[i+1] == '/' {
					depth--
					i += 2
				} else {
					i++
				}
			}
			cur.WriteByte(' ')
		case c == '\'':
			j := i + 1
			for j < n {
				if src[j] == '\'' {
					if j+1 < n && src[j+1] == '\'' {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			cur.WriteString(src[i:j])
			i = j
		case c == '"':
			j := i + 1
			for j < n && src[j] != '"' {
				j++
			}
			if j < n {
				j++
			}
			cur.WriteString(src[i:j])
			i = j
		case c == '$':
			if end, ok := scanDollarQuote(src, i); ok {
				cur.WriteString(src[i:end])
				i = end
			} else {
				cur.WriteByte(c)
				i++
			}
		case c == ';':
			flush()
			i++
		default:
			cur.WriteByte(c)
			i++
		}
	}
	flush()
	return stmts
}

// scanDollarQuote consumes a $tag$...$tag$ string starting at src[i].
// Returns the index past the closing delimiter.
func scanDollarQuote(src string, i int) (int, bool) {
	j := i + 1
	for j < len(src) && (isIdentChar(src[j]) || src[j] == '$') {
		if src[j] == '$' {
			delim := src[i : j+1]
			end := strings.Index(src[j+1:], delim)
			if end < 0 {
				return len(src), true
			}
			return j + 1 + end + len(delim), true
		}
		j++
	}
	return 0, false
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// splitTopLevel splits s on sep, ignoring separators inside parens,
// quoted identifiers and string literals.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	start := 0
	i, n := 0, len(s)
	for i < n {
		switch c := s[i]; c {
		case '(':
			depth++
			i++
		case ')':
			if depth > 0 {
				depth--
			}
			i++
		case '\'':
			j := i + 1
			for j < n {
				if s[j] == '\'' {
					if j+1 < n && s[j+1] == '\'' {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			i = j
		case '"':
			j := i + 1
			for j < n && s[j] != '"' {
				j++
			}
			if j < n {
				j++
			}
			i = j
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
			i++
		default:
			i++
		}
	}
	parts = append(parts, s[start:])
	return parts
}
