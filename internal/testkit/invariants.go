// Package testkit holds checks shared by tests and the stress command.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"nsntrace/internal/trace"
)

// CheckInvariants verifies the structural invariants of a registry snapshot:
//  1. context ids and names are unique, module names unique per context
//  2. every flag bit is allocated, below trace.MaxBits and unique in its context
//  3. allocated bits are exactly the bits of live flags
//  4. enabled bits are a subset of allocated bits
//  5. every flag id decodes back to its own context, module slot, index and bit
func CheckInvariants(snap trace.Snapshot) error {
	ctxIDs := make(map[trace.ContextID]bool)
	ctxNames := make(map[string]bool)

	for _, c := range snap.Contexts {
		// 1) unique contexts
		if ctxIDs[c.ID] {
			return fmt.Errorf("context id %d appears twice", c.ID)
		}
		if ctxNames[c.Name] {
			return fmt.Errorf("context name %q appears twice", c.Name)
		}
		ctxIDs[c.ID] = true
		ctxNames[c.Name] = true

		allocated := make(map[int]bool, len(c.AllocatedBits))
		for _, b := range c.AllocatedBits {
			allocated[b] = true
		}

		used := make(map[int]string)
		modNames := make(map[string]bool)
		for _, m := range c.Modules {
			if modNames[m.Name] {
				return fmt.Errorf("context %q: module %q appears twice", c.Name, m.Name)
			}
			modNames[m.Name] = true

			for i, f := range m.Flags {
				// 2) bits allocated, bounded and unique
				bit, err := safecast.Conv[uint8](f.Bit)
				if err != nil {
					return fmt.Errorf("context %q: flag %s.%s has bit %d outside the id range: %w", c.Name, m.Name, f.Name, f.Bit, err)
				}
				if !allocated[f.Bit] {
					return fmt.Errorf("context %q: flag %s.%s bit %d not allocated", c.Name, m.Name, f.Name, f.Bit)
				}
				if owner, dup := used[f.Bit]; dup {
					return fmt.Errorf("context %q: bit %d shared by %s and %s.%s", c.Name, f.Bit, owner, m.Name, f.Name)
				}
				used[f.Bit] = m.Name + "." + f.Name

				// 5) ids decode to their own flag
				id := f.ID
				if !id.Valid() || id.Context() != c.ID || id.Module() != m.Slot || id.Index() != i || id.Bit() != int(bit) {
					return fmt.Errorf("context %q: flag %s.%s id %v does not decode to ctx=%d mod=%d idx=%d bit=%d",
						c.Name, m.Name, f.Name, id, c.ID, m.Slot, i, f.Bit)
				}
			}
		}

		// 3) no leaked bits
		if len(used) != len(allocated) {
			return fmt.Errorf("context %q: %d bits allocated but %d in use", c.Name, len(allocated), len(used))
		}

		// 4) enabled subset of allocated
		for _, b := range c.EnabledBits {
			if !allocated[b] {
				return fmt.Errorf("context %q: bit %d enabled but not allocated", c.Name, b)
			}
		}
	}
	return nil
}
