package config

import (
	"os"

	"nsntrace/internal/errors"
	"nsntrace/internal/trace"
)

// Environment variables read by FromEnv.
const (
	EnvText = "NSNTRACE"      // configuration text
	EnvFile = "NSNTRACE_FILE" // path of a configuration file
)

// Env is the tracing configuration found in the environment.
type Env struct {
	Text string
	File string
}

// FromEnv reads the environment through lookup; os.LookupEnv when nil.
func FromEnv(lookup func(string) (string, bool)) Env {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var e Env
	e.Text, _ = lookup(EnvText)
	e.File, _ = lookup(EnvFile)
	return e
}

// Empty reports whether the environment configures nothing.
func (e Env) Empty() bool { return e.Text == "" && e.File == "" }

// Apply applies the file first and the text second, so the text can
// override what the file sets. Both are applied even if one fails.
func (e Env) Apply(reg *trace.Registry) error {
	var errs []error
	if e.File != "" {
		f, err := LoadFile(e.File)
		if err == nil {
			err = f.Apply(reg)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if e.Text != "" {
		if err := reg.Apply(e.Text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
