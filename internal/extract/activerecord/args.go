package activerecord

import "strings"

// splitArgs splits a DSL argument list on top-level commas, skipping
// separators nested in strings, brackets, braces or parens.
func splitArgs(s string) []string {
	var args []string
	depth := 0
	start := 0
	i, n := 0, len(s)
	for i < n {
		switch c := s[i]; c {
		case '(', '[', '{':
			depth++
			i++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
			i++
		case '\'', '"':
			q := c
			j := i + 1
			for j < n && s[j] != q {
				if s[j] == '\\' {
					j++
				}
				j++
			}
			if j < n {
				j++
			}
			i = j
		case ',':
			if depth == 0 {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
			i++
		default:
			i++
		}
	}
	if tail := strings.TrimSpace(s[start:]); tail != "" {
		args = append(args, tail)
	}
	return args
}

// symbolArg returns the i-th positional argument when it is a symbol or
// string literal, as its bare name.
func symbolArg(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	if m := reSymbolOrString.FindStringSubmatch(args[i]); m != nil {
		return firstNonEmpty(m[1:])
	}
	return ""
}

// stringArg returns the i-th positional argument stripped of quotes.
func stringArg(args []string, i int) string {
	if i >= len(args) {
		return ""
	}
	a := args[i]
	if len(a) >= 2 && (a[0] == '"' || a[0] == '\'') && a[len(a)-1] == a[0] {
		return a[1 : len(a)-1]
	}
	return ""
}

// positionalArg returns the i-th argument verbatim, or "" when the
// argument is missing or a keyword option.
func positionalArg(args []string, i int) string {
	if i >= len(args) || strings.Contains(args[i], ":") && !strings.HasPrefix(args[i], ":") {
		return ""
	}
	return args[i]
}

func nameOpt(line string) string {
	if m := reNameOpt.FindStringSubmatch(line); m != nil {
		return firstNonEmpty(m[1:])
	}
	return ""
}

func firstNonEmpty(parts []string) string {
	for _, p := range parts {
		if p != "" {
			return p
		}
	}
	return ""
}
