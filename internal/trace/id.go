package trace

import (
	"fmt"

	"fortio.org/safecast"

	"nsntrace/internal/errors"
)

// Limits imposed by the packed id layout.
const (
	MaxContexts = 127 // including the default context
	MaxModules  = 256 // per context
	MaxFlags    = 256 // per module
	MaxBits     = 256 // per context
)

// ID identifies one flag of one installed module.
//
// Layout, low to high: bit number (8), flag index (8), module slot (8),
// context slot (8), module generation (16).
type ID int64

// NoID is the value of an id that refers to nothing.
const NoID ID = -1

// ContextID identifies a trace context.
type ContextID int

// NoContext is returned when no context was found.
const NoContext ContextID = -1

// DefaultContext is the slot of the default context.
const DefaultContext ContextID = 0

const (
	bitShift  = 0
	idxShift  = 8
	modShift  = 16
	ctxShift  = 24
	genShift  = 32
	fieldMask = 0xff
	genMask   = 0xffff
)

func packID(ctx ContextID, mod, idx, bit int, gen uint16) (ID, error) {
	c, err := safecast.Conv[uint8](int(ctx))
	if err != nil || c >= MaxContexts {
		return NoID, errors.Wrapf(errors.ErrExhausted, "context slot %d", ctx)
	}
	m, err := safecast.Conv[uint8](mod)
	if err != nil {
		return NoID, errors.Wrapf(errors.ErrExhausted, "module slot %d", mod)
	}
	i, err := safecast.Conv[uint8](idx)
	if err != nil {
		return NoID, errors.Wrapf(errors.ErrExhausted, "flag index %d", idx)
	}
	b, err := safecast.Conv[uint8](bit)
	if err != nil {
		return NoID, errors.Wrapf(errors.ErrExhausted, "bit %d", bit)
	}
	return ID(int64(gen)<<genShift | int64(c)<<ctxShift | int64(m)<<modShift | int64(i)<<idxShift | int64(b)<<bitShift), nil
}

// Valid reports whether the id is structurally well formed. A valid id may
// still be stale.
func (id ID) Valid() bool {
	return id >= 0 && int64(id)>>(genShift+16) == 0 && id.Context() < MaxContexts
}

// Context returns the context slot encoded in the id.
func (id ID) Context() ContextID { return ContextID(int64(id) >> ctxShift & fieldMask) }

// Module returns the module slot encoded in the id.
func (id ID) Module() int { return int(int64(id) >> modShift & fieldMask) }

// Index returns the flag index within its module.
func (id ID) Index() int { return int(int64(id) >> idxShift & fieldMask) }

// Bit returns the bit number encoded in the id.
func (id ID) Bit() int { return int(int64(id) >> bitShift & fieldMask) }

// Generation returns the module generation encoded in the id.
func (id ID) Generation() uint16 { return uint16(int64(id) >> genShift & genMask) }

func (id ID) String() string {
	if !id.Valid() {
		return "trace.NoID"
	}
	return fmt.Sprintf("%d.%d.%d:%d@%d", id.Context(), id.Module(), id.Index(), id.Bit(), id.Generation())
}
