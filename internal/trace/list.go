package trace

import (
	"strings"

	"nsntrace/internal/errors"
	"nsntrace/internal/header"
)

// AllContexts asks ListFlags to cover every live context.
const AllContexts ContextID = -1

// ListFlags renders the flags of one context, or of all contexts for
// AllContexts, into at most size bytes. Directives: %c context, %m module,
// %f flag, %d description, %F module.flag, %s on/off, each taking an
// optional '-' for left alignment and min.max widths in display columns.
// An empty format means header.DefaultListFormat. Output that does not fit
// ends in "..." and comes with ErrOverflow.
func (r *Registry) ListFlags(cid ContextID, format, sep string, size int) (string, error) {
	if size < 0 {
		return "", errors.Invalidf("negative list size %d", size)
	}
	if format == "" {
		format = header.DefaultListFormat
	}
	if err := header.CheckList(format); err != nil {
		return "", err
	}

	defer r.rlock()()
	var entries []header.Entry
	if cid == AllContexts {
		r.defaultCtx()
		for _, c := range r.liveContexts() {
			entries = c.appendEntries(entries)
		}
	} else {
		c, err := r.mustCtx(cid)
		if err != nil {
			return "", err
		}
		entries = c.appendEntries(entries)
	}
	return header.ListString(size, format, sep, entries)
}

func (r *Registry) liveContexts() []*tcontext {
	if r.closed {
		return nil
	}
	out := make([]*tcontext, 0, len(r.contexts))
	for _, c := range r.contexts {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

func (c *tcontext) appendEntries(entries []header.Entry) []header.Entry {
	for _, m := range c.modules {
		if m == nil {
			continue
		}
		for _, f := range m.flags {
			entries = append(entries, header.Entry{
				Context:     c.name,
				Module:      m.name,
				Flag:        f.name,
				Description: f.descr,
				On:          c.on.Test(f.bit),
			})
		}
	}
	return entries
}

// Show describes the state of every flag as configuration text, one
// "context.module=+flag" or "context.module=-flag" line per flag. Feeding
// the text to Apply restores those flag states.
func (r *Registry) Show() string {
	defer r.rlock()()
	r.defaultCtx()

	var sb strings.Builder
	for _, c := range r.liveContexts() {
		for _, m := range c.modules {
			if m == nil {
				continue
			}
			for _, f := range m.flags {
				sb.WriteString(c.name)
				sb.WriteByte('.')
				sb.WriteString(m.name)
				sb.WriteByte('=')
				if c.on.Test(f.bit) {
					sb.WriteByte('+')
				} else {
					sb.WriteByte('-')
				}
				sb.WriteString(f.name)
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String()
}
