// Package observ times the phases of CLI workloads such as the stress run.
package observ

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Phase is one timed step.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Ops   int
	Note  string
}

// Timer records phases in the order they begin. It is not safe for
// concurrent use; time whole fan-outs rather than individual workers.
type Timer struct {
	now    func() time.Time
	phases []Phase
}

// NewTimer returns an empty Timer on the wall clock.
func NewTimer() *Timer { return NewTimerWithClock(time.Now) }

// NewTimerWithClock returns an empty Timer reading now.
func NewTimerWithClock(now func() time.Time) *Timer {
	return &Timer{now: now, phases: make([]Phase, 0, 8)}
}

// Begin starts a phase and returns its index for End.
func (t *Timer) Begin(name string) int {
	t.phases = append(t.phases, Phase{Name: name, Start: t.now()})
	return len(t.phases) - 1
}

// End finishes phase idx, recording how many operations it ran.
// Unknown indexes are ignored.
func (t *Timer) End(idx, ops int, note string) {
	if idx < 0 || idx >= len(t.phases) {
		return
	}
	p := &t.phases[idx]
	p.Dur = t.now().Sub(p.Start)
	p.Ops = ops
	p.Note = note
}

// PhaseReport is the serializable form of a Phase.
type PhaseReport struct {
	Name       string  `json:"name"`
	DurationMS float64 `json:"duration_ms"`
	Ops        int     `json:"ops,omitempty"`
	OpsPerSec  float64 `json:"ops_per_sec,omitempty"`
	Note       string  `json:"note,omitempty"`
}

// Report aggregates all phases.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

// Report summarizes the recorded phases.
func (t *Timer) Report() Report {
	if len(t.phases) == 0 {
		return Report{}
	}
	report := Report{Phases: make([]PhaseReport, len(t.phases))}
	var total time.Duration
	for i, p := range t.phases {
		total += p.Dur
		pr := PhaseReport{
			Name:       p.Name,
			DurationMS: durationToMillis(p.Dur),
			Ops:        p.Ops,
			Note:       p.Note,
		}
		if p.Ops > 0 && p.Dur > 0 {
			pr.OpsPerSec = float64(p.Ops) / p.Dur.Seconds()
		}
		report.Phases[i] = pr
	}
	report.TotalMS = durationToMillis(total)
	return report
}

// WriteSummary prints one aligned line per phase and a total.
func (t *Timer) WriteSummary(w io.Writer) error {
	report := t.Report()
	width := runewidth.StringWidth("total")
	for _, p := range report.Phases {
		width = max(width, runewidth.StringWidth(p.Name))
	}

	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&sb, "  %s %9.2f ms", runewidth.FillRight(p.Name, width), p.DurationMS)
		if p.Ops > 0 {
			fmt.Fprintf(&sb, "  %d ops", p.Ops)
			if p.OpsPerSec > 0 {
				fmt.Fprintf(&sb, " (%.0f/s)", p.OpsPerSec)
			}
		}
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %s %9.2f ms\n", runewidth.FillRight("total", width), report.TotalMS)
	_, err := io.WriteString(w, sb.String())
	return err
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
