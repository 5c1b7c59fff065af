// Package config loads tracing configuration from TOML files and the
// environment and keeps a registry in sync with a file on disk.
//
// A configuration file holds free-form configuration text plus optional
// per-context tables:
//
//	trace = "app.net=rx,tx; app enable"
//
//	[[context]]
//	name           = "app"
//	enabled        = true
//	target         = "/var/log/app.trace"
//	format         = "%u [%c.%m.%f] %M"
//	flags          = ["net=rx,-tx", "db=all"]
//	filters        = ["user=alice"]
//	regexp_filters = ["path=/api/.*"]
//	pass_empty     = true
//	pass_all       = false
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"nsntrace/internal/errors"
	"nsntrace/internal/filter"
	"nsntrace/internal/trace"
)

// Context describes the settings of one trace context. Absent keys leave
// the context's current setting alone.
type Context struct {
	Name          string   `toml:"name"`
	Enabled       *bool    `toml:"enabled"`
	Target        string   `toml:"target"`
	Format        string   `toml:"format"`
	Flags         []string `toml:"flags"`
	Filters       []string `toml:"filters"`
	RegexpFilters []string `toml:"regexp_filters"`
	PassEmpty     *bool    `toml:"pass_empty"`
	PassAll       *bool    `toml:"pass_all"`
}

// declaresFilters reports whether the table owns the context's filter set.
func (c *Context) declaresFilters() bool {
	return c.Filters != nil || c.RegexpFilters != nil || c.PassEmpty != nil || c.PassAll != nil
}

// File is a decoded configuration file.
type File struct {
	Trace    string    `toml:"trace"`
	Contexts []Context `toml:"context"`
}

// Parse decodes configuration from TOML text. Unknown keys are rejected so
// that misspelled settings do not go unnoticed.
func Parse(data string) (*File, error) {
	var f File
	md, err := toml.Decode(data, &f)
	if err != nil {
		return nil, errors.Invalidf("decode configuration: %v", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, errors.Invalidf("unknown configuration keys: %s", strings.Join(keys, ", "))
	}
	for i := range f.Contexts {
		if strings.TrimSpace(f.Contexts[i].Name) == "" {
			return nil, errors.Invalidf("context table %d has no name", i+1)
		}
	}
	return &f, nil
}

// LoadFile reads and decodes a configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFoundf("configuration file %s", path)
		}
		return nil, errors.Invalidf("read configuration file %s: %v", path, err)
	}
	f, err := Parse(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return f, nil
}

// Apply opens every listed context, applies its settings and then the
// top-level configuration text. Like trace.Registry.Apply it is best
// effort: failing settings are skipped and their errors joined.
//
// A table that sets any of filters, regexp_filters, pass_empty or pass_all
// replaces the context's whole filter set, so applying the same file twice
// leaves the same filters installed. pass_empty then defaults to true and
// pass_all to false.
func (f *File) Apply(reg *trace.Registry) error {
	var errs []error
	for i := range f.Contexts {
		if err := f.Contexts[i].apply(reg); err != nil {
			errs = append(errs, err)
		}
	}
	if strings.TrimSpace(f.Trace) != "" {
		if err := reg.Apply(f.Trace); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Context) apply(reg *trace.Registry) error {
	cid, err := reg.OpenContext(c.Name)
	if err != nil {
		return err
	}

	var errs []error
	keep := func(err error) {
		if err != nil {
			errs = append(errs, errors.WithMessagef(err, "context %q", c.Name))
		}
	}

	if c.Target != "" {
		keep(reg.SetTarget(cid, c.Target))
	}
	if c.Format != "" {
		keep(reg.SetFormat(cid, c.Format))
	}
	if c.declaresFilters() {
		keep(reg.ResetFilters(cid))
		if c.PassEmpty == nil || *c.PassEmpty {
			keep(reg.AddFilter(cid, filter.KindSimple, filter.DescrEmpty))
		}
		if c.PassAll != nil && *c.PassAll {
			keep(reg.AddFilter(cid, filter.KindSimple, filter.DescrAll))
		}
		for _, d := range c.Filters {
			keep(reg.AddFilter(cid, filter.KindSimple, d))
		}
		for _, d := range c.RegexpFilters {
			keep(reg.AddFilter(cid, filter.KindRegexp, d))
		}
	}
	for _, assign := range c.Flags {
		if !strings.Contains(assign, "=") {
			keep(errors.Invalidf("flag assignment %q is not module=flags", assign))
			continue
		}
		keep(reg.Apply(fmt.Sprintf("%s.%s", c.Name, assign)))
	}
	if c.Enabled != nil {
		var err error
		if *c.Enabled {
			_, err = reg.Enable(cid)
		} else {
			_, err = reg.Disable(cid)
		}
		keep(err)
	}
	return errors.Join(errs...)
}
