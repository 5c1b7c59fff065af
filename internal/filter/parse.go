package filter

import (
	"nsntrace/internal/errors"
)

// Parse turns a filter description into predicates.
//
// A description is a whitespace separated list of key=value pairs. Values
// may be quoted with ' or " to include whitespace; whitespace around '=' is
// allowed:
//
//	i=1 name = "two words" j='x'
//
// An empty description, a missing '=', an empty key or an unterminated
// quote is rejected with ErrInvalid.
func Parse(descr string) ([]Tag, error) {
	var tags []Tag
	p := 0
	n := len(descr)

	for {
		p = skipSpace(descr, p)
		if p >= n {
			break
		}

		start := p
		for p < n && descr[p] != '=' && !isSpace(descr[p]) {
			p++
		}
		key := descr[start:p]
		if key == "" {
			return nil, errors.Invalidf("filter %q: missing key at %q", descr, descr[start:])
		}

		p = skipSpace(descr, p)
		if p >= n || descr[p] != '=' {
			return nil, errors.Invalidf("filter %q: missing '=' after %q", descr, key)
		}
		p = skipSpace(descr, p+1)

		var value string
		if p < n && (descr[p] == '\'' || descr[p] == '"') {
			quote := descr[p]
			end := p + 1
			for end < n && descr[end] != quote {
				end++
			}
			if end >= n {
				return nil, errors.Invalidf("filter %q: unterminated quote at %q", descr, descr[p:])
			}
			value = descr[p+1 : end]
			p = end + 1
		} else {
			start := p
			for p < n && !isSpace(descr[p]) {
				p++
			}
			value = descr[start:p]
		}

		tags = append(tags, Tag{Key: key, Value: value})
	}

	if len(tags) == 0 {
		return nil, errors.Invalidf("empty filter description")
	}
	return tags, nil
}

func skipSpace(s string, p int) int {
	for p < len(s) && isSpace(s[p]) {
		p++
	}
	return p
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
