package trace

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"nsntrace/internal/filter"
	"nsntrace/internal/header"
)

// Tracef writes a trace line for id if its flag and context are enabled
// and the context passes untagged messages. The call site's file, line and
// function fill the location directives.
func (r *Registry) Tracef(id ID, format string, args ...any) {
	r.write(id, nil, 1, "", 0, "", format, args)
}

// TraceTagsf is Tracef with tags for the context's filters.
func (r *Registry) TraceTagsf(id ID, tags filter.Tags, format string, args ...any) {
	r.write(id, tags, 1, "", 0, "", format, args)
}

// TraceDepthf is TraceTagsf for wrappers: depth counts the wrapper frames
// between the traced call site and this call.
func (r *Registry) TraceDepthf(depth int, id ID, tags filter.Tags, format string, args ...any) {
	r.write(id, tags, 1+depth, "", 0, "", format, args)
}

// Write is the uncaptured form of TraceTagsf for callers that supply their
// own location, such as adapters for other logging front ends.
func (r *Registry) Write(id ID, tags filter.Tags, file string, line int, function, format string, args ...any) {
	r.write(id, tags, 0, file, line, function, format, args)
}

// write never fails: anything that does not resolve to an enabled flag in
// an enabled context, or that the filters reject, produces no output. With
// skip > 0 the location is taken from the caller skip frames above write's
// caller, and only once the message is known to pass.
func (r *Registry) write(id ID, tags filter.Tags, skip int, file string, line int, function, format string, args []any) {
	defer r.rlock()()

	c, m, f, ok := r.decode(id)
	if !ok || !c.enabled || !c.on.Test(f.bit) || !c.filters.Pass(tags) {
		return
	}
	if skip > 0 {
		file, line, function = caller(skip + 2)
	}

	if r.safe {
		c.mu.Lock()
		defer c.mu.Unlock()
	}

	now := r.now()
	rec := header.Record{
		Time:     now,
		Last:     c.last,
		Context:  c.name,
		Module:   m.name,
		Flag:     f.name,
		File:     file,
		Line:     line,
		Function: function,
		Tags:     tags,
		Message:  fmt.Sprintf(format, args...),
	}
	c.last = now

	// an overflowing line still comes back terminated and is worth emitting
	out, _ := header.Format(c.buf[:0], c.format, &rec)
	c.out.write(out)
}

// caller returns the base file name, line and short function name of the
// frame skip levels up.
func caller(skip int) (string, int, string) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "???", 0, "???"
	}
	function := "???"
	if fn := runtime.FuncForPC(pc); fn != nil {
		function = fn.Name()
		if i := strings.LastIndexByte(function, '/'); i >= 0 {
			function = function[i+1:]
		}
	}
	return filepath.Base(file), line, function
}
