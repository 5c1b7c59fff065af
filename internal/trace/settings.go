package trace

import (
	"io"

	"nsntrace/internal/errors"
	"nsntrace/internal/filter"
	"nsntrace/internal/header"
)

// SetTarget directs a context's output to "stderr" (or "-"), "stdout", or a
// file opened for appending. If the new target cannot be opened the old one
// stays in place. A previous file target is closed.
func (r *Registry) SetTarget(cid ContextID, target string) error {
	defer r.lock()()
	c, err := r.mustCtx(cid)
	if err != nil {
		return err
	}
	out, err := r.openTarget(target)
	if err != nil {
		r.log.Warnw("trace target rejected", "context", c.name, "target", target, "error", err)
		return err
	}
	return c.replaceStream(out)
}

// SetWriter directs a context's output to w. The registry never closes w.
func (r *Registry) SetWriter(cid ContextID, w io.Writer) error {
	if w == nil {
		return errors.Invalidf("nil trace writer")
	}
	defer r.lock()()
	c, err := r.mustCtx(cid)
	if err != nil {
		return err
	}
	return c.replaceStream(&stream{w: w, target: TargetWriter})
}

func (c *tcontext) replaceStream(out *stream) error {
	old := c.out
	c.out = out
	if old == out {
		return nil
	}
	return old.close()
}

// Target returns the name of a context's destination.
func (r *Registry) Target(cid ContextID) (string, error) {
	defer r.rlock()()
	c, err := r.mustCtx(cid)
	if err != nil {
		return "", err
	}
	return c.out.target, nil
}

// SetFormat replaces a context's header format after validating it.
func (r *Registry) SetFormat(cid ContextID, format string) error {
	defer r.lock()()
	c, err := r.mustCtx(cid)
	if err != nil {
		return err
	}
	if err := header.Check(format); err != nil {
		r.log.Warnw("trace header format rejected", "context", c.name, "format", format, "error", err)
		return err
	}
	c.format = format
	return nil
}

// Format returns a context's header format.
func (r *Registry) Format(cid ContextID) (string, error) {
	defer r.rlock()()
	c, err := r.mustCtx(cid)
	if err != nil {
		return "", err
	}
	return c.format, nil
}

// AddFilter installs a filter in a context. The descriptions "empty" and
// "all" set the pass-empty and pass-all modes instead.
func (r *Registry) AddFilter(cid ContextID, kind filter.Kind, descr string) error {
	defer r.lock()()
	c, err := r.mustCtx(cid)
	if err != nil {
		return err
	}
	if err := c.filters.Add(kind, descr); err != nil {
		r.log.Warnw("trace filter rejected", "context", c.name, "kind", kind.String(), "filter", descr, "error", err)
		return err
	}
	return nil
}

// DelFilter removes every filter of the kind identical to descr, or clears
// a mode for "empty" and "all".
func (r *Registry) DelFilter(cid ContextID, kind filter.Kind, descr string) error {
	defer r.lock()()
	c, err := r.mustCtx(cid)
	if err != nil {
		return err
	}
	return c.filters.Del(kind, descr)
}

// ResetFilters removes all filters of a context and clears both modes.
func (r *Registry) ResetFilters(cid ContextID) error {
	defer r.lock()()
	c, err := r.mustCtx(cid)
	if err != nil {
		return err
	}
	c.filters.Reset()
	return nil
}

// Passes reports whether a context's filters would let tags through.
func (r *Registry) Passes(cid ContextID, tags filter.Tags) bool {
	defer r.rlock()()
	c := r.ctx(cid)
	return c != nil && c.filters.Pass(tags)
}
