package trace

import (
	"nsntrace/internal/errors"
)

// decode resolves an id to its live flag. Stale ids, whose module was
// removed or whose slot now holds a different module, do not resolve.
func (r *Registry) decode(id ID) (*tcontext, *module, *flag, bool) {
	if !id.Valid() {
		return nil, nil, nil, false
	}
	c := r.ctx(id.Context())
	if c == nil {
		return nil, nil, nil, false
	}
	slot := id.Module()
	if slot >= len(c.modules) || c.modules[slot] == nil {
		return nil, nil, nil, false
	}
	m := c.modules[slot]
	if m.gen != id.Generation() || id.Index() >= len(m.flags) {
		return nil, nil, nil, false
	}
	f := m.flags[id.Index()]
	if f.bit != id.Bit() {
		return nil, nil, nil, false
	}
	return c, m, f, true
}

// FlagSet enables a flag.
func (r *Registry) FlagSet(id ID) error {
	return r.setFlag(id, true)
}

// FlagClr disables a flag.
func (r *Registry) FlagClr(id ID) error {
	return r.setFlag(id, false)
}

func (r *Registry) setFlag(id ID, on bool) error {
	defer r.lock()()
	c, _, f, ok := r.decode(id)
	if !ok {
		return errors.NotFoundf("flag id %v", id)
	}
	c.setBit(f, on)
	return nil
}

func (c *tcontext) setBit(f *flag, on bool) {
	if on {
		c.on.Grow(c.allocated.Len())
		_ = c.on.Set(f.bit)
		return
	}
	c.on.Clear(f.bit)
}

// FlagTest reports whether a flag is enabled. Invalid and stale ids read
// as disabled. The context's own enable state is not consulted.
func (r *Registry) FlagTest(id ID) bool {
	defer r.rlock()()
	c, _, f, ok := r.decode(id)
	return ok && c.on.Test(f.bit)
}

// Active reports whether a trace statement for id would reach the filters:
// the flag and its context are both enabled.
func (r *Registry) Active(id ID) bool {
	defer r.rlock()()
	c, _, f, ok := r.decode(id)
	return ok && c.enabled && c.on.Test(f.bit)
}

// FlagInfo describes the flag behind an id.
type FlagInfo struct {
	Context     string
	Module      string
	Flag        string
	Description string
	Bit         int
	On          bool
}

// Lookup describes the flag behind a live id.
func (r *Registry) Lookup(id ID) (FlagInfo, bool) {
	defer r.rlock()()
	c, m, f, ok := r.decode(id)
	if !ok {
		return FlagInfo{}, false
	}
	return FlagInfo{
		Context:     c.name,
		Module:      m.name,
		Flag:        f.name,
		Description: f.descr,
		Bit:         f.bit,
		On:          c.on.Test(f.bit),
	}, true
}

// FindFlag returns the id of a live flag by names.
func (r *Registry) FindFlag(cid ContextID, moduleName, flagName string) (ID, error) {
	defer r.rlock()()
	c, err := r.mustCtx(cid)
	if err != nil {
		return NoID, err
	}
	m := c.findModule(canonical(moduleName))
	if m == nil {
		return NoID, errors.NotFoundf("module %q in context %q", moduleName, c.name)
	}
	name := canonical(flagName)
	for i, f := range m.flags {
		if f.name == name {
			return c.idOf(m, i), nil
		}
	}
	return NoID, errors.NotFoundf("flag %q in module %q", flagName, m.name)
}

// idOf packs the id of the i-th flag of a live module.
func (c *tcontext) idOf(m *module, i int) ID {
	id, err := packID(c.id, m.slot, i, m.flags[i].bit, m.gen)
	if err != nil {
		return NoID
	}
	return id
}
