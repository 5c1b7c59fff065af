// Package trace is the runtime of nsntrace: a registry of trace contexts,
// modules and flags, the bit allocation behind them, and the write path that
// turns an enabled call site into a formatted line on a destination.
//
// # Usage
//
// Declare a module of flags and keep the returned ids:
//
//	var rx, tx trace.ID
//	r := trace.New()
//	cid, _ := r.OpenContext("net")
//	r.AddModule(cid, trace.ModuleDef{Name: "io", Flags: []trace.FlagDef{
//		{Name: "rx", Description: "receive path", Ref: &rx},
//		{Name: "tx", Description: "send path", Ref: &tx},
//	}})
//
// Turn tracing on, from code or from configuration text:
//
//	r.Apply("net enable; net.io=+rx; net format '%U [%m.%f] %M'")
//
// and trace:
//
//	r.Tracef(rx, "got %d bytes", n)
//	r.TraceTagsf(rx, filter.T("peer", addr), "got %d bytes", n)
//
// # Ids
//
// A flag id packs the context slot, module slot, flag index, bit number and
// module generation into one integer. Removing a module invalidates its ids:
// they test as disabled and FlagSet/FlagClr report ErrNotFound, even after
// the slot and bits are handed to a new module.
//
// # Contexts
//
// Slot 0 holds the default context. It is created on first use, named after
// the running binary, reachable as "default", starts enabled with every tag
// passing, and cannot be closed. Other contexts start disabled.
//
// # Filtering
//
// A message passes when its flag and context are enabled and the context's
// filter set accepts its tags; see package filter.
//
// # Concurrency
//
// A Registry does no locking unless built WithSafeMode. Without it the
// caller serializes all calls. In safe mode mutations take an exclusive
// lock, flag tests and writes a shared one, and each context serializes its
// own writes.
//
// # Context Propagation
//
// Registries travel through call chains via context.Context:
//
//	ctx = trace.WithRegistry(ctx, r)
//	r := trace.FromContext(ctx)
package trace
