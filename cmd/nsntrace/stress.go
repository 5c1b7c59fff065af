package main

import (
	"fmt"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"nsntrace/internal/errors"
	"nsntrace/internal/observ"
	"nsntrace/internal/prof"
	"nsntrace/internal/testkit"
	"nsntrace/internal/trace"
	"nsntrace/internal/ui"
)

var stressPhases = []string{"setup", "trace", "trace+churn", "verify"}

func newStressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Hammer a safe-mode registry and verify its invariants",
		Long: `stress runs the sample program from many goroutines while another
goroutine installs and removes modules and a third rewrites flags from
configuration text. Output goes to an in-memory ring. Afterwards the
registry's structural invariants are checked and phase timings printed.`,
		Args: cobra.NoArgs,
		RunE: runStress,
	}
	f := cmd.Flags()
	f.Int("workers", 8, "tracing goroutines")
	f.Int("iterations", 2000, "sample iterations per worker")
	f.Int("churn", 200, "module install/remove cycles")
	f.String("ui", "off", "live progress display (auto|on|off)")
	f.String("cpu-profile", "", "write a CPU profile to file")
	f.String("mem-profile", "", "write a heap profile to file")
	f.String("runtime-trace", "", "write a runtime execution trace to file")
	return cmd
}

// stressRun is one stress invocation. emit reports phase progress and
// must be safe for concurrent use.
type stressRun struct {
	reg        *trace.Registry
	workers    int
	iterations int
	churn      int
	emit       func(ui.Event)
	ring       *trace.RingWriter
	timer      *observ.Timer
}

func runStress(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	run := &stressRun{
		reg:        s.reg,
		workers:    s.v.GetInt("workers"),
		iterations: s.v.GetInt("iterations"),
		churn:      s.v.GetInt("churn"),
		emit:       func(ui.Event) {},
		timer:      observ.NewTimer(),
	}
	if run.workers < 1 || run.iterations < 0 || run.churn < 0 {
		return errors.Invalidf("--workers must be positive, --iterations and --churn not negative")
	}
	useUI, err := readUIMode(s.v.GetString("ui"))
	if err != nil {
		return err
	}

	profiling, err := prof.Start(prof.Options{
		CPU:   s.v.GetString("cpu-profile"),
		Mem:   s.v.GetString("mem-profile"),
		Trace: s.v.GetString("runtime-trace"),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := profiling.Stop(); err != nil {
			s.log.Warnw("stop profiling", "error", err)
		}
	}()

	if useUI {
		err = run.withProgress(s)
	} else {
		err = run.execute(s)
	}
	if err != nil {
		return err
	}

	if err := run.timer.WriteSummary(s.out); err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.out, "invariants ok, %d lines in ring\n", len(run.ring.Lines()))
	return err
}

// withProgress runs the stress phases behind a Bubble Tea progress view.
func (run *stressRun) withProgress(s *session) error {
	events := make(chan ui.Event, 256)
	run.emit = func(ev ui.Event) { events <- ev }

	result := make(chan error, 1)
	go func() {
		result <- run.execute(s)
		close(events)
	}()

	program := tea.NewProgram(ui.NewProgressModel("nsntrace stress", stressPhases, events), tea.WithOutput(s.out))
	_, uiErr := program.Run()
	if uiErr != nil {
		// keep draining so execute never blocks on a dead view
		for range events {
		}
	}
	if err := <-result; err != nil {
		return err
	}
	return uiErr
}

func (run *stressRun) execute(s *session) error {
	var smp *sample
	err := run.phase("setup", 0, func(func()) (int, string, error) {
		var err error
		if smp, err = installSample(run.reg); err != nil {
			return 0, "", err
		}
		run.ring = trace.NewRingWriter(1024)
		if err := run.reg.SetWriter(smp.ctx, run.ring); err != nil {
			return 0, "", err
		}
		if err := run.reg.Apply("demo enable; demo.*=all; demo filter all"); err != nil {
			return 0, "", err
		}
		if err := s.configure(); err != nil {
			s.log.Warnw("trace configuration partly applied", "error", err)
		}
		return 0, "", nil
	})
	if err != nil {
		return err
	}

	err = run.phase("trace", run.workers*run.iterations, func(tick func()) (int, string, error) {
		err := traceWorkers(run.reg, smp, run.workers, run.iterations, tick)
		return run.workers * run.iterations * 4, fmt.Sprintf("%d workers", run.workers), err
	})
	if err != nil {
		return err
	}

	err = run.phase("trace+churn", run.churn, func(tick func()) (int, string, error) {
		err := traceWorkers(run.reg, smp, run.workers, run.iterations, nil,
			func() error { return churnModules(run.reg, smp.ctx, run.churn, tick) },
			func() error { return toggleFlags(run.reg, run.churn) },
		)
		return run.churn, "module cycles", err
	})
	if err != nil {
		return err
	}

	return run.phase("verify", 0, func(func()) (int, string, error) {
		snap := run.reg.Snapshot()
		if err := testkit.CheckInvariants(snap); err != nil {
			return 0, "", errors.Wrap(err, "registry invariants violated")
		}
		return len(snap.Contexts), "contexts checked", nil
	})
}

// phase times fn and reports its progress. fn calls tick once per unit of
// work out of total.
func (run *stressRun) phase(name string, total int, fn func(tick func()) (int, string, error)) error {
	idx := run.timer.Begin(name)
	run.emit(ui.Event{Phase: name, Status: ui.StatusRunning, Total: total})

	var done atomic.Int64
	step := int64(max(total/50, 1))
	tick := func() {
		if d := done.Add(1); d%step == 0 {
			run.emit(ui.Event{Phase: name, Status: ui.StatusRunning, Done: int(d), Total: total})
		}
	}

	ops, note, err := fn(tick)
	run.timer.End(idx, ops, note)
	status := ui.StatusDone
	if err != nil {
		status = ui.StatusFailed
		note = err.Error()
	}
	run.emit(ui.Event{Phase: name, Status: status, Done: int(done.Load()), Total: total, Note: note})
	return err
}

// traceWorkers runs the sample program on workers goroutines, plus any
// extra tasks alongside them. tick, if set, is called per iteration.
func traceWorkers(reg *trace.Registry, smp *sample, workers, iterations int, tick func(), extra ...func() error) error {
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < iterations; i++ {
				runSampleIteration(reg, smp, w*iterations+i)
				if tick != nil {
					tick()
				}
			}
			return nil
		})
	}
	for _, task := range extra {
		g.Go(task)
	}
	return g.Wait()
}

func churnModules(reg *trace.Registry, cid trace.ContextID, cycles int, tick func()) error {
	for i := 0; i < cycles; i++ {
		name := fmt.Sprintf("churn%d", i%4)
		def := trace.NewModule(name).
			Flag("a", "", nil).
			Flag("b", "", nil).
			Flag("c", "", nil).
			Def()
		ids, err := reg.AddModule(cid, def)
		if err != nil {
			return err
		}
		if err := reg.FlagSet(ids[i%len(ids)]); err != nil {
			return err
		}
		reg.Tracef(ids[i%len(ids)], "churn cycle %d", i)
		if err := reg.DelModule(cid, name); err != nil {
			return err
		}
		tick()
	}
	return nil
}

func toggleFlags(reg *trace.Registry, cycles int) error {
	for i := 0; i < cycles; i++ {
		text := "demo.net=-tx"
		if i%2 == 1 {
			text = "demo.net=+tx"
		}
		if err := reg.Apply(text); err != nil {
			return err
		}
	}
	return nil
}

// readUIMode resolves --ui; auto means a progress view only on a terminal.
func readUIMode(value string) (bool, error) {
	switch value {
	case "", "auto":
		return isTerminal(os.Stdout), nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, errors.Invalidf("--ui %q (must be auto, on or off)", value)
	}
}
