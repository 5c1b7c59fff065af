package filter

import (
	"strings"

	"nsntrace/internal/errors"
)

// Reserved descriptions toggling the set's mode flags instead of adding a filter.
const (
	DescrEmpty = "empty" // pass messages carrying no tags
	DescrAll   = "all"   // pass every message regardless of tags
)

// Set is the filter state of one trace context: the installed filters of
// both kinds plus the pass-empty and pass-all mode flags.
//
// Suppression rules:
//
//	pass-all set         -> pass
//	message has no tags  -> pass iff pass-empty set
//	otherwise            -> pass iff any filter matches
type Set struct {
	filters   []Filter
	passEmpty bool
	passAll   bool
}

// Add installs a filter built from descr, or sets a mode flag for the
// reserved descriptions "empty" and "all".
func (s *Set) Add(kind Kind, descr string) error {
	switch strings.TrimSpace(descr) {
	case DescrEmpty:
		s.passEmpty = true
		return nil
	case DescrAll:
		s.passAll = true
		return nil
	}

	f, err := New(kind, descr)
	if err != nil {
		return err
	}
	s.filters = append(s.filters, f)
	return nil
}

// Del removes every installed filter identical to descr, or clears a mode
// flag for the reserved descriptions. ErrNotFound if nothing was removed.
func (s *Set) Del(kind Kind, descr string) error {
	switch strings.TrimSpace(descr) {
	case DescrEmpty:
		s.passEmpty = false
		return nil
	case DescrAll:
		s.passAll = false
		return nil
	}

	probe, err := New(kind, descr)
	if err != nil {
		return err
	}

	kept := s.filters[:0]
	removed := 0
	for _, f := range s.filters {
		if Identical(f, probe) {
			removed++
			continue
		}
		kept = append(kept, f)
	}
	clear(s.filters[len(kept):])
	s.filters = kept

	if removed == 0 {
		return errors.NotFoundf("%s filter %q", kind, descr)
	}
	return nil
}

// Reset removes all filters and clears both mode flags.
func (s *Set) Reset() {
	s.filters = nil
	s.passEmpty = false
	s.passAll = false
}

// Pass applies the suppression rules to tags.
func (s *Set) Pass(tags Tags) bool {
	if s.passAll {
		return true
	}
	if len(tags) == 0 {
		return s.passEmpty
	}
	for _, f := range s.filters {
		if f.Match(tags) {
			return true
		}
	}
	return false
}

func (s *Set) PassEmpty() bool { return s.passEmpty }
func (s *Set) PassAll() bool   { return s.passAll }

// SetPassEmpty sets the pass-empty mode flag.
func (s *Set) SetPassEmpty(on bool) { s.passEmpty = on }

// SetPassAll sets the pass-all mode flag.
func (s *Set) SetPassAll(on bool) { s.passAll = on }

// Len returns the number of installed filters.
func (s *Set) Len() int { return len(s.filters) }

// Descriptions returns the descriptions of installed filters of one kind in
// installation order.
func (s *Set) Descriptions(kind Kind) []string {
	var out []string
	for _, f := range s.filters {
		if f.Kind() == kind {
			out = append(out, f.Description())
		}
	}
	return out
}
