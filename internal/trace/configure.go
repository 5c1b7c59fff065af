package trace

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"nsntrace/internal/errors"
	"nsntrace/internal/filter"
)

// Apply executes configuration text against the registry.
//
// Commands are separated by ';' or newlines; separators inside quotes do
// not count. Each command is either a flag assignment
//
//	context[.module]=[+|-]flag[,[+|-]flag...]
//
// where '*' matches every context, module or flag ("all" also names every
// flag), a missing module means every module and a bare flag is turned on,
// or a context command
//
//	context enable | disable
//	context target <path|stdout|stderr>      (or: context > <path>)
//	context format <'quoted'|"quoted"|bare>
//	context filter | regexp <description>
//	context unfilter | unregexp <description>
//	context reset-filters
//
// "default" names the default context. Commands are applied one by one:
// a failing command is logged and skipped, and its error joined into the
// result, without undoing earlier commands or stopping later ones.
func (r *Registry) Apply(text string) error {
	var errs []error
	for _, cmd := range splitCommands(text) {
		cmd = strings.TrimSpace(cmd)
		if cmd == "" || strings.HasPrefix(cmd, "#") {
			continue
		}
		if err := r.applyCommand(cmd); err != nil {
			r.log.Warnw("trace configuration command failed", "command", cmd, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// splitCommands splits on ';' and '\n' outside quotes.
func splitCommands(text string) []string {
	var cmds []string
	var quote byte
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ';' || c == '\n':
			cmds = append(cmds, text[start:i])
			start = i + 1
		}
	}
	return append(cmds, text[start:])
}

// scanName consumes a name or '*' from the front of s.
func scanName(s string) (string, string) {
	end := 0
	for end < len(s) {
		r, size := utf8.DecodeRuneInString(s[end:])
		if !isNameRune(r) && r != '*' {
			break
		}
		end += size
	}
	return s[:end], s[end:]
}

func (r *Registry) applyCommand(cmd string) error {
	ctxName, rest := scanName(cmd)
	if ctxName == "" {
		return errors.Invalidf("command %q: expected a context name", cmd)
	}

	var modName string
	hasModule := false
	if strings.HasPrefix(rest, ".") {
		modName, rest = scanName(rest[1:])
		if modName == "" {
			return errors.Invalidf("command %q: expected a module name after '.'", cmd)
		}
		hasModule = true
	}

	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	if strings.HasPrefix(rest, "=") {
		if !hasModule {
			modName = "*"
		}
		return r.applyFlags(cmd, ctxName, modName, rest[1:])
	}
	if hasModule {
		return errors.Invalidf("command %q: expected '=' after %s.%s", cmd, ctxName, modName)
	}
	if rest == "" {
		return errors.Invalidf("command %q: missing command after context", cmd)
	}

	var verb, arg string
	if strings.HasPrefix(rest, ">") {
		verb, arg = "target", strings.TrimSpace(rest[1:])
	} else {
		verb = rest
		if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
			verb, arg = rest[:i], strings.TrimSpace(rest[i:])
		}
	}

	ids, err := r.resolveContexts(ctxName)
	if err != nil {
		return err
	}
	var errs []error
	for _, id := range ids {
		if err := r.contextCommand(id, verb, arg); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return errors.Wrapf(err, "command %q", cmd)
	}
	return nil
}

func (r *Registry) resolveContexts(name string) ([]ContextID, error) {
	defer r.rlock()()
	if name == "*" {
		r.defaultCtx()
		var ids []ContextID
		for _, c := range r.liveContexts() {
			ids = append(ids, c.id)
		}
		return ids, nil
	}
	c := r.findContext(name)
	if c == nil {
		return nil, errors.NotFoundf("context %q", name)
	}
	return []ContextID{c.id}, nil
}

func (r *Registry) contextCommand(id ContextID, verb, arg string) error {
	noArg := func() error {
		if arg != "" {
			return errors.Invalidf("%s takes no argument, got %q", verb, arg)
		}
		return nil
	}

	switch verb {
	case "enable", "disable":
		if err := noArg(); err != nil {
			return err
		}
		_, err := r.setEnabled(id, verb == "enable")
		return err
	case "target":
		target, err := unquote(arg)
		if err != nil {
			return err
		}
		if target == "" {
			return errors.Invalidf("target needs a destination")
		}
		return r.SetTarget(id, target)
	case "format":
		format, err := unquote(arg)
		if err != nil {
			return err
		}
		return r.SetFormat(id, format)
	case "filter", "regexp":
		return r.AddFilter(id, filterKind(verb), arg)
	case "unfilter", "unregexp":
		return r.DelFilter(id, filterKind(strings.TrimPrefix(verb, "un")), arg)
	case "reset-filters":
		if err := noArg(); err != nil {
			return err
		}
		return r.ResetFilters(id)
	default:
		return errors.Invalidf("unknown command %q", verb)
	}
}

func filterKind(verb string) filter.Kind {
	if verb == "regexp" {
		return filter.KindRegexp
	}
	return filter.KindSimple
}

// unquote strips one level of matching quotes. Unquoted text is used as is.
func unquote(s string) (string, error) {
	if s == "" || (s[0] != '\'' && s[0] != '"') {
		return s, nil
	}
	if len(s) < 2 || s[len(s)-1] != s[0] {
		return "", errors.Invalidf("unterminated quote in %q", s)
	}
	return s[1 : len(s)-1], nil
}

type flagOp struct {
	name string
	on   bool
}

func parseFlagOps(list string) ([]flagOp, error) {
	var ops []flagOp
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		op := flagOp{on: true}
		switch {
		case strings.HasPrefix(item, "+"):
			item = strings.TrimSpace(item[1:])
		case strings.HasPrefix(item, "-"):
			op.on = false
			item = strings.TrimSpace(item[1:])
		}
		name, tail := scanName(item)
		if name == "" || tail != "" {
			return nil, errors.Invalidf("bad flag %q", item)
		}
		op.name = canonical(name)
		ops = append(ops, op)
	}
	return ops, nil
}

// applyFlags flips flags for one assignment command. Names that match
// nothing are reported unless they came from a wildcard.
func (r *Registry) applyFlags(cmd, ctxName, modName, list string) error {
	ops, err := parseFlagOps(list)
	if err != nil {
		return errors.Wrapf(err, "command %q", cmd)
	}

	defer r.lock()()

	var contexts []*tcontext
	if ctxName == "*" {
		r.defaultCtx()
		contexts = r.liveContexts()
	} else {
		c := r.findContext(ctxName)
		if c == nil {
			return errors.NotFoundf("command %q: context %q", cmd, ctxName)
		}
		contexts = []*tcontext{c}
	}

	moduleSeen := modName == "*"
	name := canonical(modName)
	var errs []error
	for _, op := range ops {
		wild := op.name == "*" || op.name == "all"
		hits := 0
		for _, c := range contexts {
			for _, m := range c.modules {
				if m == nil || (modName != "*" && m.name != name) {
					continue
				}
				moduleSeen = true
				for _, f := range m.flags {
					if wild || f.name == op.name {
						c.setBit(f, op.on)
						hits++
						r.log.Debugw("trace flag changed", "context", c.name, "module", m.name, "flag", f.name, "on", op.on)
					}
				}
			}
		}
		if hits == 0 && !wild && moduleSeen {
			errs = append(errs, errors.NotFoundf("command %q: flag %q", cmd, op.name))
		}
	}
	if !moduleSeen && ctxName != "*" {
		return errors.NotFoundf("command %q: module %q", cmd, modName)
	}
	return errors.Join(errs...)
}
