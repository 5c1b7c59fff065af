package trace

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"nsntrace/internal/bitmap"
	"nsntrace/internal/errors"
	"nsntrace/internal/filter"
)

// Header formats new contexts start with.
const (
	DefaultFormat        = "%u [%c.%m.%f] %M"
	DefaultContextFormat = "[%u %C] "
)

// DefaultBufferSize is the line buffer capacity of each context.
const DefaultBufferSize = 4096

// Registry owns every trace context and the flags registered in them.
type Registry struct {
	mu   sync.RWMutex
	safe bool

	log     *zap.SugaredLogger
	now     func() time.Time
	bufSize int

	stdout *stream
	stderr *stream

	defaultName string
	defaultOnce sync.Once

	contexts   []*tcontext // slot 0 is the default context, nil slots are free
	generation uint16      // bumped for every installed module
	closed     bool
}

// tcontext is one trace context.
type tcontext struct {
	mu sync.Mutex // serializes writes in safe mode

	id      ContextID
	name    string
	enabled bool

	allocated *bitmap.Bitmap
	on        *bitmap.Bitmap
	modules   []*module // nil slots are free

	format  string
	out     *stream
	last    time.Time
	filters filter.Set
	buf     []byte
}

type module struct {
	name  string
	slot  int
	gen   uint16
	flags []*flag
}

type flag struct {
	name  string
	descr string
	bit   int
	ref   *ID
}

// New creates an empty registry. The default context is created on first use.
func New(opts ...Option) *Registry {
	r := &Registry{
		log:      zap.NewNop().Sugar(),
		now:      time.Now,
		bufSize:  DefaultBufferSize,
		stdout:   &stream{w: os.Stdout, target: TargetStdout},
		stderr:   &stream{w: os.Stderr, target: TargetStderr},
		contexts: make([]*tcontext, 1, 8),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) lock() func() {
	if !r.safe {
		return func() {}
	}
	r.mu.Lock()
	return r.mu.Unlock
}

func (r *Registry) rlock() func() {
	if !r.safe {
		return func() {}
	}
	r.mu.RLock()
	return r.mu.RUnlock
}

// SafeMode reports whether the registry locks internally.
func (r *Registry) SafeMode() bool { return r.safe }

// Close closes every context, the default one included, along with any
// file destinations. The registry is unusable afterwards.
func (r *Registry) Close() error {
	defer r.lock()()
	if r.closed {
		return nil
	}
	r.defaultCtx()

	var errs []error
	for i, c := range r.contexts {
		if c == nil {
			continue
		}
		if err := r.destroy(c); err != nil {
			errs = append(errs, err)
		}
		r.contexts[i] = nil
	}
	r.closed = true
	return errors.Join(errs...)
}

func (r *Registry) newContext(id ContextID, name string) *tcontext {
	c := &tcontext{
		id:        id,
		name:      name,
		allocated: bitmap.New(64),
		on:        bitmap.New(64),
		format:    DefaultFormat,
		out:       r.stderr,
		buf:       make([]byte, 0, r.bufSize),
	}
	c.filters.SetPassEmpty(true)
	return c
}

// defaultCtx returns the default context, creating it on first use.
func (r *Registry) defaultCtx() *tcontext {
	r.defaultOnce.Do(func() {
		name := r.defaultName
		if name == "" {
			name = binaryName()
		}
		c := r.newContext(DefaultContext, canonical(name))
		c.enabled = true
		c.format = DefaultContextFormat
		c.filters.SetPassAll(true)
		r.contexts[DefaultContext] = c
	})
	return r.contexts[DefaultContext]
}

// ctx returns the live context in slot id, or nil.
func (r *Registry) ctx(id ContextID) *tcontext {
	if r.closed || id < 0 || int(id) >= len(r.contexts) {
		return nil
	}
	if id == DefaultContext {
		return r.defaultCtx()
	}
	return r.contexts[id]
}

func (r *Registry) mustCtx(id ContextID) (*tcontext, error) {
	c := r.ctx(id)
	if c == nil {
		return nil, errors.NotFoundf("context %d", id)
	}
	return c, nil
}

func (r *Registry) findContext(name string) *tcontext {
	if r.closed {
		return nil
	}
	name = canonical(name)
	def := r.defaultCtx()
	if name == "" || name == DefaultAlias || name == def.name {
		return def
	}
	for _, c := range r.contexts[1:] {
		if c != nil && c.name == name {
			return c
		}
	}
	return nil
}

// Default returns the id of the default context.
func (r *Registry) Default() ContextID {
	defer r.rlock()()
	r.defaultCtx()
	return DefaultContext
}

// FindContext looks a context up by name. "" and "default" name the
// default context.
func (r *Registry) FindContext(name string) (ContextID, bool) {
	defer r.rlock()()
	if c := r.findContext(name); c != nil {
		return c.id, true
	}
	return NoContext, false
}

// ContextName returns the name of a live context.
func (r *Registry) ContextName(id ContextID) (string, bool) {
	defer r.rlock()()
	if c := r.ctx(id); c != nil {
		return c.name, true
	}
	return "", false
}

// OpenContext returns the id of the named context, creating it if needed.
// New contexts start disabled, write to stderr with DefaultFormat and pass
// untagged messages.
func (r *Registry) OpenContext(name string) (ContextID, error) {
	defer r.lock()()
	return r.openContext(name)
}

func (r *Registry) openContext(name string) (ContextID, error) {
	if r.closed {
		return NoContext, errors.Invalidf("registry is closed")
	}
	if c := r.findContext(name); c != nil {
		return c.id, nil
	}
	name = canonical(name)
	if err := checkName("context", name); err != nil {
		return NoContext, err
	}

	slot := -1
	for i := 1; i < len(r.contexts); i++ {
		if r.contexts[i] == nil {
			slot = i
			break
		}
	}
	if slot < 0 {
		if len(r.contexts) >= MaxContexts {
			return NoContext, errors.Wrapf(errors.ErrExhausted, "context %q: all %d context slots in use", name, MaxContexts)
		}
		slot = len(r.contexts)
		r.contexts = append(r.contexts, nil)
	}

	id := ContextID(slot)
	r.contexts[slot] = r.newContext(id, name)
	r.log.Infow("trace context opened", "context", name, "id", slot)
	return id, nil
}

// CloseContext frees a context with its modules, filters and file
// destination. Ids of its flags go stale. Closing the default context does
// nothing.
func (r *Registry) CloseContext(id ContextID) error {
	defer r.lock()()
	if id == DefaultContext {
		return nil
	}
	c, err := r.mustCtx(id)
	if err != nil {
		return err
	}
	r.contexts[id] = nil
	r.log.Infow("trace context closed", "context", c.name, "id", int(id))
	return r.destroy(c)
}

func (r *Registry) destroy(c *tcontext) error {
	for _, m := range c.modules {
		if m != nil {
			c.release(m)
		}
	}
	c.modules = nil
	c.filters.Reset()
	c.enabled = false
	return c.out.close()
}

// Enable turns a context on and reports whether it was on before.
func (r *Registry) Enable(id ContextID) (bool, error) {
	return r.setEnabled(id, true)
}

// Disable turns a context off and reports whether it was on before.
func (r *Registry) Disable(id ContextID) (bool, error) {
	return r.setEnabled(id, false)
}

func (r *Registry) setEnabled(id ContextID, on bool) (bool, error) {
	defer r.lock()()
	c, err := r.mustCtx(id)
	if err != nil {
		return false, err
	}
	prev := c.enabled
	c.enabled = on
	return prev, nil
}

// Enabled reports whether a context is on. Unknown contexts are off.
func (r *Registry) Enabled(id ContextID) bool {
	defer r.rlock()()
	c := r.ctx(id)
	return c != nil && c.enabled
}
