package trace

import (
	"nsntrace/internal/errors"
)

// FlagDef declares one flag of a module. Ref receives the flag's id when
// the module is installed and NoID when it is removed. A final all-zero
// FlagDef is accepted as a terminator and ignored.
type FlagDef struct {
	Name        string
	Description string
	Ref         *ID
}

// ModuleDef declares a module and its flags in order.
type ModuleDef struct {
	Name  string
	Flags []FlagDef
}

// ModuleBuilder builds a ModuleDef flag by flag.
type ModuleBuilder struct {
	def ModuleDef
}

// NewModule starts a module declaration.
func NewModule(name string) *ModuleBuilder {
	return &ModuleBuilder{def: ModuleDef{Name: name}}
}

// Flag declares the next flag. A nil ref gets a private cell; the id is
// still returned by AddModule.
func (b *ModuleBuilder) Flag(name, description string, ref *ID) *ModuleBuilder {
	if ref == nil {
		ref = new(ID)
	}
	*ref = NoID
	b.def.Flags = append(b.def.Flags, FlagDef{Name: name, Description: description, Ref: ref})
	return b
}

// Def returns the declaration.
func (b *ModuleBuilder) Def() ModuleDef { return b.def }

// AddModule installs a module in a context and returns the ids of its flags
// in declaration order.
//
// Bits come from one contiguous run starting at the context's lowest free
// bit when possible, else from the lowest free bits one by one. If the
// context runs out of bits nothing is installed and every ref is NoID.
func (r *Registry) AddModule(cid ContextID, def ModuleDef) ([]ID, error) {
	defer r.lock()()
	c, err := r.mustCtx(cid)
	if err != nil {
		return nil, err
	}
	ids, err := r.addModule(c, def)
	if err != nil {
		r.log.Warnw("trace module rejected", "context", c.name, "module", def.Name, "error", err)
	}
	return ids, err
}

func (r *Registry) addModule(c *tcontext, def ModuleDef) ([]ID, error) {
	name := canonical(def.Name)
	if err := checkName("module", name); err != nil {
		return nil, err
	}
	if c.findModule(name) != nil {
		return nil, errors.Wrapf(errors.ErrExists, "module %q in context %q", name, c.name)
	}

	defs := def.Flags
	if n := len(defs); n > 0 && defs[n-1] == (FlagDef{}) {
		defs = defs[:n-1]
	}
	if len(defs) > MaxFlags {
		return nil, errors.Wrapf(errors.ErrExhausted, "module %q: %d flags, at most %d", name, len(defs), MaxFlags)
	}
	seen := make(map[string]bool, len(defs))
	for i, fd := range defs {
		fname := canonical(fd.Name)
		if fd.Ref == nil {
			return nil, errors.Invalidf("module %q: flag #%d (%q) has no id ref", name, i, fd.Name)
		}
		if err := checkName("flag", fname); err != nil {
			return nil, errors.Wrapf(err, "module %q: flag #%d", name, i)
		}
		if seen[fname] {
			return nil, errors.Wrapf(errors.ErrExists, "module %q: flag %q declared twice", name, fname)
		}
		seen[fname] = true
	}

	slot := c.freeModuleSlot()
	if slot >= MaxModules {
		return nil, errors.Wrapf(errors.ErrExhausted, "module %q: all %d module slots of context %q in use", name, MaxModules, c.name)
	}

	bits, err := c.allocBits(len(defs))
	if err != nil {
		for _, fd := range defs {
			*fd.Ref = NoID
		}
		return nil, errors.Wrapf(err, "module %q in context %q", name, c.name)
	}

	r.generation++
	m := &module{name: name, slot: slot, gen: r.generation, flags: make([]*flag, len(defs))}
	ids := make([]ID, len(defs))
	for i, fd := range defs {
		id, err := packID(c.id, slot, i, bits[i], m.gen)
		if err != nil {
			c.freeBits(bits)
			for _, fd := range defs {
				*fd.Ref = NoID
			}
			return nil, err
		}
		ids[i] = id
		m.flags[i] = &flag{name: canonical(fd.Name), descr: fd.Description, bit: bits[i], ref: fd.Ref}
	}

	if slot == len(c.modules) {
		c.modules = append(c.modules, m)
	} else {
		c.modules[slot] = m
	}
	for i, f := range m.flags {
		*f.ref = ids[i]
	}
	return ids, nil
}

// DelModule removes a module. Its bits return to the context and its ids
// go stale.
func (r *Registry) DelModule(cid ContextID, name string) error {
	defer r.lock()()
	c, err := r.mustCtx(cid)
	if err != nil {
		return err
	}
	m := c.findModule(canonical(name))
	if m == nil {
		return errors.NotFoundf("module %q in context %q", name, c.name)
	}
	c.release(m)
	c.modules[m.slot] = nil
	return nil
}

// Modules returns the names of the live modules of a context in slot order.
func (r *Registry) Modules(cid ContextID) []string {
	defer r.rlock()()
	c := r.ctx(cid)
	if c == nil {
		return nil
	}
	var names []string
	for _, m := range c.modules {
		if m != nil {
			names = append(names, m.name)
		}
	}
	return names
}

func (c *tcontext) findModule(name string) *module {
	for _, m := range c.modules {
		if m != nil && m.name == name {
			return m
		}
	}
	return nil
}

func (c *tcontext) freeModuleSlot() int {
	for i, m := range c.modules {
		if m == nil {
			return i
		}
	}
	return len(c.modules)
}

// release frees the bits of m and clears its refs.
func (c *tcontext) release(m *module) {
	for _, f := range m.flags {
		c.allocated.Clear(f.bit)
		c.on.Clear(f.bit)
		*f.ref = NoID
		f.bit = -1
	}
}

// allocBits claims n bits, contiguous when possible. On failure nothing
// stays allocated.
func (c *tcontext) allocBits(n int) ([]int, error) {
	bits := make([]int, 0, n)
	if n == 0 {
		return bits, nil
	}

	start := c.allocated.FirstFree()
	if start < 0 {
		start = c.allocated.Len()
	}
	if start+n <= MaxBits && c.allocated.RunFree(start, n) {
		c.allocated.Grow(start + n)
		for b := start; b < start+n; b++ {
			_ = c.allocated.Set(b)
			bits = append(bits, b)
		}
		return bits, nil
	}

	for len(bits) < n {
		b := c.allocated.AllocFirstFree()
		if b < 0 {
			if c.allocated.Len() >= MaxBits {
				c.freeBits(bits)
				return nil, errors.Wrapf(errors.ErrExhausted, "all %d bits in use", MaxBits)
			}
			c.allocated.Grow(c.allocated.Len() + 1)
			continue
		}
		if b >= MaxBits {
			c.allocated.Clear(b)
			c.freeBits(bits)
			return nil, errors.Wrapf(errors.ErrExhausted, "all %d bits in use", MaxBits)
		}
		bits = append(bits, b)
	}
	return bits, nil
}

func (c *tcontext) freeBits(bits []int) {
	for _, b := range bits {
		c.allocated.Clear(b)
		c.on.Clear(b)
	}
}
