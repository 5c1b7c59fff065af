package filter

import (
	"strings"

	"nsntrace/internal/errors"
)

// Kind selects how filter predicate values are compared.
type Kind uint8

const (
	KindSimple Kind = iota // exact value match
	KindRegexp             // anchored regular expression match
)

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSimple:
		return "simple"
	case KindRegexp:
		return "regexp"
	default:
		return "unknown"
	}
}

// ParseKind converts a string to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "simple", "filter", "":
		return KindSimple, nil
	case "regexp", "regex", "re":
		return KindRegexp, nil
	default:
		return KindSimple, errors.Invalidf("filter kind %q (expected: simple|regexp)", s)
	}
}
