package trace

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"nsntrace/internal/errors"
	"nsntrace/internal/filter"
)

// Snapshot is a point-in-time copy of a registry's state.
type Snapshot struct {
	Contexts []ContextState `json:"contexts" msgpack:"contexts"`
}

// ContextState is the state of one context.
type ContextState struct {
	ID            ContextID     `json:"id" msgpack:"id"`
	Name          string        `json:"name" msgpack:"name"`
	Enabled       bool          `json:"enabled" msgpack:"enabled"`
	Target        string        `json:"target" msgpack:"target"`
	Format        string        `json:"format" msgpack:"format"`
	PassEmpty     bool          `json:"pass_empty" msgpack:"pass_empty"`
	PassAll       bool          `json:"pass_all" msgpack:"pass_all"`
	Filters       []string      `json:"filters,omitempty" msgpack:"filters,omitempty"`
	RegexpFilters []string      `json:"regexp_filters,omitempty" msgpack:"regexp_filters,omitempty"`
	AllocatedBits []int         `json:"allocated_bits,omitempty" msgpack:"allocated_bits,omitempty"`
	EnabledBits   []int         `json:"enabled_bits,omitempty" msgpack:"enabled_bits,omitempty"`
	Modules       []ModuleState `json:"modules,omitempty" msgpack:"modules,omitempty"`
}

// ModuleState is the state of one module.
type ModuleState struct {
	Name  string      `json:"name" msgpack:"name"`
	Slot  int         `json:"slot" msgpack:"slot"`
	Flags []FlagState `json:"flags" msgpack:"flags"`
}

// FlagState is the state of one flag.
type FlagState struct {
	Name        string `json:"name" msgpack:"name"`
	Description string `json:"description,omitempty" msgpack:"description,omitempty"`
	Bit         int    `json:"bit" msgpack:"bit"`
	ID          ID     `json:"id" msgpack:"id"`
	On          bool   `json:"on" msgpack:"on"`
}

// Snapshot copies the registry's state.
func (r *Registry) Snapshot() Snapshot {
	defer r.rlock()()
	r.defaultCtx()

	var snap Snapshot
	for _, c := range r.liveContexts() {
		cs := ContextState{
			ID:            c.id,
			Name:          c.name,
			Enabled:       c.enabled,
			Target:        c.out.target,
			Format:        c.format,
			PassEmpty:     c.filters.PassEmpty(),
			PassAll:       c.filters.PassAll(),
			Filters:       c.filters.Descriptions(filter.KindSimple),
			RegexpFilters: c.filters.Descriptions(filter.KindRegexp),
		}
		c.allocated.Each(func(b int) { cs.AllocatedBits = append(cs.AllocatedBits, b) })
		c.on.Each(func(b int) { cs.EnabledBits = append(cs.EnabledBits, b) })
		for _, m := range c.modules {
			if m == nil {
				continue
			}
			ms := ModuleState{Name: m.name, Slot: m.slot, Flags: make([]FlagState, len(m.flags))}
			for i, f := range m.flags {
				ms.Flags[i] = FlagState{
					Name:        f.name,
					Description: f.descr,
					Bit:         f.bit,
					ID:          c.idOf(m, i),
					On:          c.on.Test(f.bit),
				}
			}
			cs.Modules = append(cs.Modules, ms)
		}
		snap.Contexts = append(snap.Contexts, cs)
	}
	return snap
}

// Config renders the snapshot as configuration text that Apply turns back
// into the same context settings, filters and flag states. Caller-supplied
// writers cannot be expressed and are left out.
func (s Snapshot) Config() (string, error) {
	var sb strings.Builder
	var err error
	for _, c := range s.Contexts {
		name := c.Name
		if c.ID == DefaultContext {
			name = DefaultAlias
		}
		if c.Enabled {
			fmt.Fprintf(&sb, "%s enable\n", name)
		} else {
			fmt.Fprintf(&sb, "%s disable\n", name)
		}
		if c.Target != TargetWriter {
			target := c.Target
			if strings.ContainsAny(target, " \t\n;'\"") {
				if target, err = quote(target); err != nil {
					return "", errors.Wrapf(err, "context %q", c.Name)
				}
			}
			fmt.Fprintf(&sb, "%s target %s\n", name, target)
		}
		format, err := quote(c.Format)
		if err != nil {
			return "", errors.Wrapf(err, "context %q", c.Name)
		}
		fmt.Fprintf(&sb, "%s format %s\n", name, format)

		fmt.Fprintf(&sb, "%s reset-filters\n", name)
		if c.PassEmpty {
			fmt.Fprintf(&sb, "%s filter %s\n", name, filter.DescrEmpty)
		}
		if c.PassAll {
			fmt.Fprintf(&sb, "%s filter %s\n", name, filter.DescrAll)
		}
		for _, d := range c.Filters {
			fmt.Fprintf(&sb, "%s filter %s\n", name, d)
		}
		for _, d := range c.RegexpFilters {
			fmt.Fprintf(&sb, "%s regexp %s\n", name, d)
		}

		for _, m := range c.Modules {
			for _, f := range m.Flags {
				sign := '-'
				if f.On {
					sign = '+'
				}
				fmt.Fprintf(&sb, "%s.%s=%c%s\n", name, m.Name, sign, f.Name)
			}
		}
	}
	return sb.String(), nil
}

// quote wraps s in whichever quote character it does not contain.
func quote(s string) (string, error) {
	switch {
	case !strings.ContainsRune(s, '\''):
		return "'" + s + "'", nil
	case !strings.ContainsRune(s, '"'):
		return `"` + s + `"`, nil
	default:
		return "", errors.Invalidf("%q contains both quote characters", s)
	}
}

// Restore applies a snapshot to the registry. Contexts are opened as
// needed; modules must already be installed for their flags to be set.
func (r *Registry) Restore(s Snapshot) error {
	var errs []error
	for _, c := range s.Contexts {
		if c.ID == DefaultContext {
			continue
		}
		if _, err := r.OpenContext(c.Name); err != nil {
			errs = append(errs, err)
		}
	}
	text, err := s.Config()
	if err != nil {
		errs = append(errs, err)
	} else if err := r.Apply(text); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SnapshotFormat selects a snapshot encoding.
type SnapshotFormat uint8

const (
	SnapshotText    SnapshotFormat = iota // configuration text, see Snapshot.Config
	SnapshotJSON                          // indented JSON
	SnapshotMsgpack                       // MessagePack
)

// String returns the string representation of SnapshotFormat.
func (f SnapshotFormat) String() string {
	switch f {
	case SnapshotText:
		return "text"
	case SnapshotJSON:
		return "json"
	case SnapshotMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ParseSnapshotFormat converts a string to a SnapshotFormat.
func ParseSnapshotFormat(s string) (SnapshotFormat, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return SnapshotText, nil
	case "json":
		return SnapshotJSON, nil
	case "msgpack", "mp":
		return SnapshotMsgpack, nil
	default:
		return SnapshotText, errors.Invalidf("snapshot format %q (expected: text|json|msgpack)", s)
	}
}

// EncodeSnapshot writes s to w in the given format.
func EncodeSnapshot(w io.Writer, s Snapshot, format SnapshotFormat) error {
	switch format {
	case SnapshotText:
		text, err := s.Config()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, text)
		return err
	case SnapshotJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	case SnapshotMsgpack:
		return msgpack.NewEncoder(w).Encode(s)
	default:
		return errors.Invalidf("snapshot format %d", format)
	}
}

// DecodeSnapshot reads a JSON or MessagePack snapshot.
func DecodeSnapshot(rd io.Reader, format SnapshotFormat) (Snapshot, error) {
	var s Snapshot
	var err error
	switch format {
	case SnapshotJSON:
		err = json.NewDecoder(rd).Decode(&s)
	case SnapshotMsgpack:
		err = msgpack.NewDecoder(rd).Decode(&s)
	default:
		return s, errors.Invalidf("cannot decode %s snapshots", format)
	}
	if err != nil {
		return s, errors.Wrapf(errors.ErrInvalid, "decode %s snapshot: %v", format, err)
	}
	return s, nil
}
