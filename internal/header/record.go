// Package header renders trace lines: the %-directive header prefix, the
// message body and the trailing newline, into a buffer of fixed capacity.
package header

import (
	"time"

	"nsntrace/internal/filter"
)

// Record is one trace message as seen by the formatter.
type Record struct {
	Time     time.Time // wall-clock time of this message
	Last     time.Time // previous message in the same context; zero for the first
	Context  string
	Module   string
	Flag     string
	File     string
	Line     int
	Function string
	Tags     filter.Tags
	Message  string
}

const unknown = "<unknown>"

const noTags = "<no tags>"

// StampLayout is the fixed-width UTC layout used by %U and the first %u.
const StampLayout = "2006-01-02 15:04:05.000"

// Stamp renders t as an absolute UTC timestamp with millisecond precision.
// Go's time layouts do not depend on the process locale.
func Stamp(t time.Time) string {
	return t.UTC().Format(StampLayout)
}

// Delta renders the time since last as +SSSS.mmm, or -SSSS.mmm when the
// clock went backwards. A zero last renders the absolute stamp of now.
func Delta(now, last time.Time) string {
	if last.IsZero() {
		return Stamp(now)
	}
	d := now.Sub(last)
	sign := byte('+')
	if d < 0 {
		sign = '-'
		d = -d
	}
	secs := int64(d / time.Second)
	msecs := int64(d%time.Second) / int64(time.Millisecond)

	var b [24]byte
	out := append(b[:0], sign)
	out = appendPadded(out, secs, 4)
	out = append(out, '.')
	out = appendPadded(out, msecs, 3)
	return string(out)
}

func appendPadded(dst []byte, v int64, width int) []byte {
	var digits [20]byte
	i := len(digits)
	for v >= 10 {
		i--
		digits[i] = byte('0' + v%10)
		v /= 10
	}
	i--
	digits[i] = byte('0' + v)
	for n := len(digits) - i; n < width; n++ {
		dst = append(dst, '0')
	}
	return append(dst, digits[i:]...)
}
