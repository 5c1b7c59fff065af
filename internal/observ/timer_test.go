package observ

import (
	"strings"
	"testing"
	"time"
)

type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) now() time.Time {
	t := c.t
	c.t = c.t.Add(c.step)
	return t
}

func TestTimerReport(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0), step: 500 * time.Millisecond}
	tm := NewTimerWithClock(clock.now)

	setup := tm.Begin("setup")
	tm.End(setup, 0, "")
	run := tm.Begin("trace")
	tm.End(run, 1000, "8 workers")
	tm.End(99, 1, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(r.Phases))
	}
	if r.Phases[0].DurationMS != 500 || r.Phases[1].DurationMS != 500 {
		t.Errorf("durations = %v, %v", r.Phases[0].DurationMS, r.Phases[1].DurationMS)
	}
	if r.Phases[1].OpsPerSec != 2000 {
		t.Errorf("ops/s = %v, want 2000", r.Phases[1].OpsPerSec)
	}
	if r.TotalMS != 1000 {
		t.Errorf("total = %v, want 1000", r.TotalMS)
	}
}

func TestTimerSummary(t *testing.T) {
	clock := &stepClock{t: time.Unix(0, 0), step: time.Millisecond}
	tm := NewTimerWithClock(clock.now)
	tm.End(tm.Begin("churn"), 10, "modules")

	var sb strings.Builder
	if err := tm.WriteSummary(&sb); err != nil {
		t.Fatal(err)
	}
	want := "timings:\n" +
		"  churn      1.00 ms  10 ops (10000/s)  // modules\n" +
		"  total      1.00 ms\n"
	if sb.String() != want {
		t.Errorf("summary:\n%q\nwant:\n%q", sb.String(), want)
	}
}

func TestEmptyReport(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || r.Phases != nil {
		t.Errorf("empty report = %+v", r)
	}
}
