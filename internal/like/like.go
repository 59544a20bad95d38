// Package like compiles SQL LIKE patterns.
package like

import (
	"regexp"
	"strings"
)

// Compile turns a LIKE pattern into an anchored, case-insensitive matcher.
// '%' matches any run of characters and '_' exactly one; everything else is
// literal.
func Compile(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString(`(?is)^`)
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(`.*`)
		case '_':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString(`$`)
	return regexp.Compile(b.String())
}

// Match reports whether value matches pattern.
func Match(pattern, value string) (bool, error) {
	re, err := Compile(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(value), nil
}
