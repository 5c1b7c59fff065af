package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"nsntrace/internal/config"
	"nsntrace/internal/errors"
	"nsntrace/internal/logger"
	"nsntrace/internal/trace"
)

// bindViper layers NSNTRACE_* environment variables under the command's
// flags: an explicitly set flag wins, then the environment, then the flag
// default.
func bindViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("NSNTRACE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, errors.Wrap(err, "bind flags")
	}
	return v, nil
}

// session is the registry a command traces into plus the settings it was
// built from.
type session struct {
	reg *trace.Registry
	log *zap.SugaredLogger
	v   *viper.Viper
	out io.Writer
}

// newSession builds a safe-mode registry whose stdout and stderr targets
// are the command's streams, and attaches it to the command's context.
func newSession(cmd *cobra.Command, opts ...trace.Option) (*session, error) {
	v, err := bindViper(cmd)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Verbosity: v.GetInt("verbose"),
		JSON:      v.GetBool("log-json"),
		Output:    cmd.ErrOrStderr(),
	})

	base := []trace.Option{
		trace.WithLogger(log),
		trace.WithSafeMode(),
		trace.WithStdout(cmd.OutOrStdout()),
		trace.WithStderr(cmd.ErrOrStderr()),
	}
	reg := trace.New(append(base, opts...)...)
	cmd.SetContext(trace.WithRegistry(cmd.Context(), reg))

	return &session{reg: reg, log: log, v: v, out: cmd.OutOrStdout()}, nil
}

// configure applies the environment configuration, then --config-file,
// then --config, so later sources override earlier ones. Every source is
// applied even if an earlier one fails.
func (s *session) configure() error {
	var errs []error
	if err := config.FromEnv(nil).Apply(s.reg); err != nil {
		errs = append(errs, err)
	}
	if path := s.v.GetString("config-file"); path != "" {
		f, err := config.LoadFile(path)
		if err == nil {
			err = f.Apply(s.reg)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	if text := s.v.GetString("config"); text != "" {
		if err := s.reg.Apply(text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *session) close() {
	if err := s.reg.Close(); err != nil {
		s.log.Warnw("close trace registry", "error", err)
	}
	_ = s.log.Sync()
}
