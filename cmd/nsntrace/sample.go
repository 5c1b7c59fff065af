package main

import (
	"nsntrace/internal/trace"
)

const sampleContext = "demo"

// sampleDefaults is applied before user configuration so that demo prints
// something out of the box; user configuration can undo any of it.
const sampleDefaults = `demo enable
demo target stdout
demo.net=rx,tx
demo.db=query
demo filter peer=alpha`

// sample holds the ids of the traced sample program.
type sample struct {
	ctx                   trace.ContextID
	rx, tx, query, commit trace.ID
}

// installSample declares the sample program's modules in the demo context.
func installSample(reg *trace.Registry) (*sample, error) {
	s := &sample{}
	cid, err := reg.OpenContext(sampleContext)
	if err != nil {
		return nil, err
	}
	s.ctx = cid

	if _, err := reg.AddModule(cid, trace.ModuleDef{
		Name: "net",
		Flags: []trace.FlagDef{
			{Name: "rx", Description: "packets received", Ref: &s.rx},
			{Name: "tx", Description: "packets sent", Ref: &s.tx},
		},
	}); err != nil {
		return nil, err
	}
	if _, err := reg.AddModule(cid, trace.NewModule("db").
		Flag("query", "statements executed", &s.query).
		Flag("commit", "transactions committed", &s.commit).
		Def()); err != nil {
		return nil, err
	}
	return s, nil
}
