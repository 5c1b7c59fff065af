// Package nsntrace is an in-process tracing library. Applications declare
// named flags grouped into modules under named contexts; every flag owns a
// bit that gates whether its call sites write a line.
//
//	var rx nsntrace.ID
//	cid, _ := nsntrace.Global().OpenContext("net")
//	nsntrace.Global().AddModule(cid, nsntrace.NewModule("io").Flag("rx", "receive path", &rx).Def())
//	nsntrace.Apply("net enable; net.io=rx")
//	nsntrace.Tracef(rx, "got %d bytes", n)
//
// The package-level functions use the process-wide registry, which is safe
// for concurrent use. Build private registries with New.
package nsntrace

import (
	"nsntrace/internal/filter"
	"nsntrace/internal/trace"
)

type (
	Registry       = trace.Registry
	Option         = trace.Option
	ID             = trace.ID
	ContextID      = trace.ContextID
	ModuleDef      = trace.ModuleDef
	FlagDef        = trace.FlagDef
	ModuleBuilder  = trace.ModuleBuilder
	FlagInfo       = trace.FlagInfo
	Snapshot       = trace.Snapshot
	SnapshotFormat = trace.SnapshotFormat
	RingWriter     = trace.RingWriter
	Tag            = filter.Tag
	Tags           = filter.Tags
	FilterKind     = filter.Kind
)

const (
	NoID           = trace.NoID
	NoContext      = trace.NoContext
	DefaultContext = trace.DefaultContext
	AllContexts    = trace.AllContexts

	KindSimple = filter.KindSimple
	KindRegexp = filter.KindRegexp

	SnapshotText    = trace.SnapshotText
	SnapshotJSON    = trace.SnapshotJSON
	SnapshotMsgpack = trace.SnapshotMsgpack
)

var (
	New           = trace.New
	NewModule     = trace.NewModule
	NewRingWriter = trace.NewRingWriter
	T             = filter.T

	WithLogger      = trace.WithLogger
	WithSafeMode    = trace.WithSafeMode
	WithClock       = trace.WithClock
	WithStdout      = trace.WithStdout
	WithStderr      = trace.WithStderr
	WithDefaultName = trace.WithDefaultName
	WithBufferSize  = trace.WithBufferSize

	WithRegistry = trace.WithRegistry
	FromContext  = trace.FromContext
)

// Global returns the process-wide registry.
func Global() *Registry { return trace.Global() }

// SetGlobal replaces the process-wide registry and returns the previous one.
func SetGlobal(r *Registry) *Registry { return trace.SetGlobal(r) }

// Tracef traces through the process-wide registry.
func Tracef(id ID, format string, args ...any) {
	trace.Global().TraceDepthf(1, id, nil, format, args...)
}

// TraceTagsf traces a tagged message through the process-wide registry.
func TraceTagsf(id ID, tags Tags, format string, args ...any) {
	trace.Global().TraceDepthf(1, id, tags, format, args...)
}

// Active reports whether a call site for id would write anything, so that
// expensive arguments can be skipped.
func Active(id ID) bool { return trace.Global().Active(id) }

// Apply applies configuration text to the process-wide registry.
func Apply(text string) error { return trace.Global().Apply(text) }
