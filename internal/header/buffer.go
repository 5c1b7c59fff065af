package header

import (
	"unicode/utf8"

	"nsntrace/internal/errors"
)

// ellipsis replaces the tail of a line that did not fit.
const ellipsis = "...\n"

// bounded appends into a byte slice without ever exceeding its capacity.
type bounded struct {
	b    []byte
	over bool
}

func newBounded(dst []byte) *bounded {
	return &bounded{b: dst[:0]}
}

func (w *bounded) room() int { return cap(w.b) - len(w.b) }

func (w *bounded) WriteString(s string) {
	if w.over {
		return
	}
	if len(s) > w.room() {
		n := w.room()
		for n > 0 && !utf8.RuneStart(s[n]) {
			n--
		}
		w.b = append(w.b, s[:n]...)
		w.over = true
		return
	}
	w.b = append(w.b, s...)
}

func (w *bounded) WriteByte(c byte) error {
	if w.over {
		return nil
	}
	if w.room() == 0 {
		w.over = true
		return nil
	}
	w.b = append(w.b, c)
	return nil
}

// cut returns the longest prefix length of at most n bytes that ends on a
// rune boundary.
func (w *bounded) cut(n int) int {
	n = min(n, len(w.b))
	for n > 0 && n < len(w.b) && !utf8.RuneStart(w.b[n]) {
		n--
	}
	return n
}

func (w *bounded) last() byte {
	if len(w.b) == 0 {
		return 0
	}
	return w.b[len(w.b)-1]
}

// finish terminates the line. On overflow the tail is replaced by the
// ellipsis, or as much of it as fits, and ErrOverflow is returned with the
// truncated line.
func (w *bounded) finish(what string) ([]byte, error) {
	if !w.over && w.room() >= 1 {
		w.b = append(w.b, '\n')
		return w.b, nil
	}
	limit := cap(w.b)
	if limit < len(ellipsis) {
		w.b = append(w.b[:0], ellipsis[len(ellipsis)-limit:]...)
	} else {
		w.b = append(w.b[:w.cut(limit-len(ellipsis))], ellipsis...)
	}
	return w.b, errors.Wrapf(errors.ErrOverflow, "%s does not fit in %d bytes", what, limit)
}

// finishList ends output that carries no newline of its own. On overflow
// the tail becomes "...".
func (w *bounded) finishList(what string) ([]byte, error) {
	if !w.over {
		return w.b, nil
	}
	const dots = "..."
	limit := cap(w.b)
	if limit < len(dots) {
		w.b = append(w.b[:0], dots[:limit]...)
	} else {
		w.b = append(w.b[:w.cut(limit-len(dots))], dots...)
	}
	return w.b, errors.Wrapf(errors.ErrOverflow, "%s does not fit in %d bytes", what, limit)
}
