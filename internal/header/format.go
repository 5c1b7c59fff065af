package header

import (
	"strconv"
	"strings"

	"nsntrace/internal/errors"
)

// Directives lists the header directives and what they expand to.
var Directives = []struct {
	Verb byte
	Help string
}{
	{'c', "context name"},
	{'m', "module name"},
	{'f', "flag name"},
	{'F', "file"},
	{'L', "line"},
	{'C', "function"},
	{'W', "function@file:line"},
	{'U', "UTC timestamp YYYY-MM-DD HH:MM:SS.mmm"},
	{'u', "time since previous message (+SSSS.mmm), absolute for the first"},
	{'T', "tags {k=v,...} or <no tags>"},
	{'M', "message body"},
	{'%', "a literal %"},
}

func knownVerb(c byte) bool {
	for _, d := range Directives {
		if d.Verb == c {
			return true
		}
	}
	return false
}

// Check validates a header format. It rejects an empty format, unknown
// directives, a dangling '%' and more than one %M, naming the offending
// part of the format.
func Check(format string) error {
	if format == "" {
		return errors.Invalidf("empty header format")
	}
	messages := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 >= len(format) {
			return errors.Invalidf("header format %q: dangling %%", format)
		}
		i++
		c := format[i]
		if !knownVerb(c) {
			return errors.Invalidf("header format %q: unknown directive %q", format, format[i-1:i+1])
		}
		if c == 'M' {
			messages++
			if messages > 1 {
				return errors.Invalidf("header format %q: %%M used more than once", format)
			}
		}
	}
	return nil
}

// HasMessage reports whether format places the message body itself.
func HasMessage(format string) bool {
	for i := 0; i+1 < len(format); i++ {
		if format[i] == '%' {
			if format[i+1] == 'M' {
				return true
			}
			i++
		}
	}
	return false
}

// Format renders rec through format into dst, which is reused from index
// 0 and never grown beyond cap(dst). The format must have passed Check;
// unknown directives are copied verbatim.
//
// Without %M the body follows the header, separated by a space unless the
// header already ends in blank space. The line always ends in a newline;
// one trailing newline in the body is dropped first. On overflow the line
// ends in "...\n" and ErrOverflow is returned along with it.
func Format(dst []byte, format string, rec *Record) ([]byte, error) {
	w := newBounded(dst)
	msg := strings.TrimSuffix(rec.Message, "\n")
	placed := false

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			_ = w.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case 'c':
			w.WriteString(rec.Context)
		case 'm':
			w.WriteString(orUnknown(rec.Module))
		case 'f':
			w.WriteString(orUnknown(rec.Flag))
		case 'F':
			w.WriteString(rec.File)
		case 'L':
			w.WriteString(strconv.Itoa(rec.Line))
		case 'C':
			w.WriteString(rec.Function)
		case 'W':
			w.WriteString(rec.Function)
			_ = w.WriteByte('@')
			w.WriteString(rec.File)
			_ = w.WriteByte(':')
			w.WriteString(strconv.Itoa(rec.Line))
		case 'U':
			w.WriteString(Stamp(rec.Time))
		case 'u':
			w.WriteString(Delta(rec.Time, rec.Last))
		case 'T':
			if len(rec.Tags) == 0 {
				w.WriteString(noTags)
			} else {
				w.WriteString(rec.Tags.String())
			}
		case 'M':
			w.WriteString(msg)
			placed = true
		case '%':
			_ = w.WriteByte('%')
		default:
			_ = w.WriteByte('%')
			_ = w.WriteByte(format[i])
		}
	}

	if !placed {
		if last := w.last(); len(w.b) > 0 && last != ' ' && last != '\t' {
			_ = w.WriteByte(' ')
		}
		w.WriteString(msg)
	}
	return w.finish("trace line")
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
