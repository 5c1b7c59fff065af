package filter

import (
	"regexp"
	"strings"

	"nsntrace/internal/errors"
)

// Filter decides whether a tagged message passes.
type Filter interface {
	// Match reports whether every predicate is satisfied by tags.
	Match(tags Tags) bool
	// Kind reports how predicate values are compared.
	Kind() Kind
	// Description returns the text the filter was built from.
	Description() string
	// Predicates returns the key/value pairs the filter was built from.
	Predicates() []Tag
}

// Simple matches when every predicate has a tag with an equal key and
// an equal value.
type Simple struct {
	descr string
	preds []Tag
}

// NewSimple parses descr into a Simple filter.
func NewSimple(descr string) (*Simple, error) {
	preds, err := Parse(descr)
	if err != nil {
		return nil, err
	}
	return &Simple{descr: strings.TrimSpace(descr), preds: preds}, nil
}

// Match implements Filter.
func (f *Simple) Match(tags Tags) bool {
	for _, p := range f.preds {
		found := false
		for _, tag := range tags {
			if tag.Key == p.Key && tag.Value == p.Value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *Simple) Kind() Kind          { return KindSimple }
func (f *Simple) Description() string { return f.descr }
func (f *Simple) Predicates() []Tag   { return append([]Tag(nil), f.preds...) }

type regexpPred struct {
	key string
	re  *regexp.Regexp
}

// Regexp matches when every predicate has a tag with an equal key whose
// value matches the predicate's pattern. Patterns are anchored at the start
// of the value; a pattern that already begins with '^' is used as is.
type Regexp struct {
	descr string
	preds []Tag
	res   []regexpPred
}

// NewRegexp parses descr and compiles each value. Any invalid pattern
// rejects the whole filter.
func NewRegexp(descr string) (*Regexp, error) {
	preds, err := Parse(descr)
	if err != nil {
		return nil, err
	}
	f := &Regexp{descr: strings.TrimSpace(descr), preds: preds, res: make([]regexpPred, 0, len(preds))}
	for _, p := range preds {
		pattern := p.Value
		if !strings.HasPrefix(pattern, "^") {
			pattern = "^" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrInvalid, "filter %q: pattern %q: %v", descr, p.Value, err)
		}
		f.res = append(f.res, regexpPred{key: p.Key, re: re})
	}
	return f, nil
}

// Match implements Filter.
func (f *Regexp) Match(tags Tags) bool {
	for _, p := range f.res {
		found := false
		for _, tag := range tags {
			if tag.Key == p.key && p.re.MatchString(tag.Value) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (f *Regexp) Kind() Kind          { return KindRegexp }
func (f *Regexp) Description() string { return f.descr }
func (f *Regexp) Predicates() []Tag   { return append([]Tag(nil), f.preds...) }

// New builds a filter of the given kind.
func New(kind Kind, descr string) (Filter, error) {
	switch kind {
	case KindSimple:
		return NewSimple(descr)
	case KindRegexp:
		return NewRegexp(descr)
	default:
		return nil, errors.Invalidf("filter kind %d", kind)
	}
}

// Identical reports whether a and b are the same kind and carry the same
// predicates regardless of order.
func Identical(a, b Filter) bool {
	return a.Kind() == b.Kind() && identical(a.Predicates(), b.Predicates())
}
