package state

import (
	"regexp"
	"strings"
)

// compileWildcard translates a username search pattern into an anchored
// regexp. `*` matches any substring, `?` matches exactly one character, and
// everything else is literal. The whole username must match.
func compileWildcard(pattern string) (*regexp.Regexp, error) {
	var sb strings.Builder
	sb.WriteString("^")

	literal := strings.Builder{}
	flush := func() {
		if literal.Len() > 0 {
			sb.WriteString(regexp.QuoteMeta(literal.String()))
			literal.Reset()
		}
	}

	for _, r := range pattern {
		switch r {
		case '*':
			flush()
			sb.WriteString(".*")
		case '?':
			flush()
			sb.WriteString(".")
		default:
			literal.WriteRune(r)
		}
	}
	flush()
	sb.WriteString("$")

	return regexp.Compile(sb.String())
}
