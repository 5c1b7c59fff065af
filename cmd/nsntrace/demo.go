package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"nsntrace/internal/config"
	"nsntrace/internal/errors"
	"nsntrace/internal/filter"
	"nsntrace/internal/trace"
)

var demoPeers = []string{"alpha", "beta"}

func newDemoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a small traced program",
		Long: `demo runs a sample program with two traced modules, net (rx, tx) and
db (query, commit), in the context "demo". By default rx, tx and query are
on and only tx messages tagged peer=alpha pass the filters; use --config to
change that, e.g.

  nsntrace demo -c "demo.db=commit; demo unfilter peer=alpha; demo filter all"`,
		Args: cobra.NoArgs,
		RunE: runDemo,
	}
	cmd.Flags().Int("count", 4, "number of iterations")
	cmd.Flags().Duration("interval", 0, "pause between iterations")
	cmd.Flags().Int("ring", 0, "keep only the last N lines and print them at the end")
	cmd.Flags().Bool("watch", false, "re-apply --config-file whenever it changes")
	return cmd
}

func runDemo(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	smp, err := installSample(s.reg)
	if err != nil {
		return err
	}
	if err := s.reg.Apply(sampleDefaults); err != nil {
		return err
	}
	if err := s.configure(); err != nil {
		s.log.Warnw("trace configuration partly applied", "error", err)
	}

	var ring *trace.RingWriter
	if n := s.v.GetInt("ring"); n > 0 {
		ring = trace.NewRingWriter(n)
		if err := s.reg.SetWriter(smp.ctx, ring); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if s.v.GetBool("watch") {
		path := s.v.GetString("config-file")
		if path == "" {
			return errors.Invalidf("--watch needs --config-file")
		}
		go func() {
			if err := config.Watch(ctx, path, s.reg, s.log); err != nil {
				s.log.Warnw("trace configuration watch stopped", "path", path, "error", err)
			}
		}()
	}

	interval := s.v.GetDuration("interval")
	count := s.v.GetInt("count")
	for i := 0; i < count; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		runSampleIteration(s.reg, smp, i)
	}

	if ring != nil {
		return ring.Dump(s.out)
	}
	return nil
}

// runSampleIteration is the traced sample program's body.
func runSampleIteration(reg *trace.Registry, smp *sample, i int) {
	reg.Tracef(smp.rx, "packet %d received, %d bytes", i, 64*(i+1))
	peer := demoPeers[i%len(demoPeers)]
	reg.TraceTagsf(smp.tx, filter.T("peer", peer), "packet %d sent to %s", i, peer)
	if reg.Active(smp.query) {
		reg.Tracef(smp.query, "SELECT * FROM packets WHERE seq = %d", i)
	}
	reg.Tracef(smp.commit, "transaction %d committed", i)
}
