package header

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"nsntrace/internal/errors"
)

// DefaultListFormat is the per-flag layout used when ListFlags gets none.
const DefaultListFormat = "  %m.%f:\t%d"

// MaxListWidth bounds the min and max widths of a list directive.
const MaxListWidth = 1024

// Entry is one flag as presented in a listing.
type Entry struct {
	Context     string
	Module      string
	Flag        string
	Description string
	On          bool
}

// listSpec is one parsed %[-][min][.max]verb directive.
type listSpec struct {
	left     bool
	min, max int // max < 0 means unlimited
	verb     byte
}

func listVerb(c byte) bool {
	return strings.IndexByte("cmfdFs", c) >= 0
}

// parseListSpec parses the directive starting after the '%' at format[i].
// It returns the spec and the index of the verb.
func parseListSpec(format string, i int) (listSpec, int, error) {
	spec := listSpec{max: -1}
	start := i - 1
	if i < len(format) && format[i] == '-' {
		spec.left = true
		i++
	}
	var err error
	if spec.min, i, err = parseWidth(format, start, i); err != nil {
		return spec, i, err
	}
	if i < len(format) && format[i] == '.' {
		if spec.max, i, err = parseWidth(format, start, i+1); err != nil {
			return spec, i, err
		}
	}
	if i >= len(format) {
		return spec, i, errors.Invalidf("list format %q: dangling directive %q", format, format[start:])
	}
	spec.verb = format[i]
	if !listVerb(spec.verb) {
		return spec, i, errors.Invalidf("list format %q: unknown directive %q", format, format[start:i+1])
	}
	return spec, i, nil
}

// parseWidth reads the decimal width at format[i:], rejecting widths above
// MaxListWidth before they can overflow.
func parseWidth(format string, start, i int) (int, int, error) {
	n := 0
	for i < len(format) && format[i] >= '0' && format[i] <= '9' {
		n = n*10 + int(format[i]-'0')
		if n > MaxListWidth {
			return 0, i, errors.Invalidf("list format %q: width in %q exceeds %d", format, format[start:], MaxListWidth)
		}
		i++
	}
	return n, i, nil
}

// CheckList validates a flag listing format.
func CheckList(format string) error {
	if format == "" {
		return errors.Invalidf("empty list format")
	}
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			i++
			continue
		}
		_, end, err := parseListSpec(format, i+1)
		if err != nil {
			return err
		}
		i = end
	}
	return nil
}

func (e *Entry) field(verb byte) string {
	switch verb {
	case 'c':
		return e.Context
	case 'm':
		return e.Module
	case 'f':
		return e.Flag
	case 'd':
		return e.Description
	case 'F':
		return e.Module + "." + e.Flag
	case 's':
		if e.On {
			return "on"
		}
		return "off"
	}
	return ""
}

// pad applies the width spec measuring display columns, so wide runes in
// names keep listings aligned. Padding never exceeds room+1 columns, enough
// to mark the output as overflowing.
func (s listSpec) pad(v string, room int) string {
	if s.max >= 0 && runewidth.StringWidth(v) > s.max {
		v = runewidth.Truncate(v, s.max, "")
	}
	width := min(s.min, room+1)
	if width > 0 {
		if s.left {
			return runewidth.FillRight(v, width)
		}
		return runewidth.FillLeft(v, width)
	}
	return v
}

// List renders one line per entry through format, joined by sep, into dst
// without growing it. An empty entry list renders "<none>" after the
// format's leading indentation. The format must have passed CheckList.
func List(dst []byte, format, sep string, entries []Entry) ([]byte, error) {
	if format == "" {
		format = DefaultListFormat
	}
	w := newBounded(dst)

	if len(entries) == 0 {
		indent := format[:len(format)-len(strings.TrimLeft(format, " \t"))]
		w.WriteString(indent)
		w.WriteString("<none>")
		return w.finishList("flag list")
	}

	for n := range entries {
		if n > 0 {
			w.WriteString(sep)
		}
		e := &entries[n]
		for i := 0; i < len(format); i++ {
			c := format[i]
			if c != '%' {
				_ = w.WriteByte(c)
				continue
			}
			if i+1 < len(format) && format[i+1] == '%' {
				_ = w.WriteByte('%')
				i++
				continue
			}
			spec, end, err := parseListSpec(format, i+1)
			if err != nil {
				w.WriteString(format[i:])
				break
			}
			w.WriteString(spec.pad(e.field(spec.verb), w.room()))
			i = end
		}
	}
	return w.finishList("flag list")
}

// ListString is List into a buffer of the given capacity.
func ListString(size int, format, sep string, entries []Entry) (string, error) {
	if size < 0 {
		return "", errors.Invalidf("negative list buffer size %d", size)
	}
	out, err := List(make([]byte, 0, size), format, sep, entries)
	return string(out), err
}

// FormatString is Format into a buffer of the given capacity, mostly for
// tests and tools.
func FormatString(size int, format string, rec *Record) (string, error) {
	if size < 0 {
		return "", errors.Invalidf("negative header buffer size %d", size)
	}
	out, err := Format(make([]byte, 0, size), format, rec)
	return string(out), err
}
