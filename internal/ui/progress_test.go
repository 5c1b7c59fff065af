package ui

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestProgressModelTracksPhases(t *testing.T) {
	events := make(chan Event)
	m := NewProgressModel("stress", []string{"setup", "trace"}, events).(*progressModel)

	m.Update(eventMsg(Event{Phase: "setup", Status: StatusDone}))
	m.Update(eventMsg(Event{Phase: "trace", Status: StatusRunning, Done: 25, Total: 100, Note: "8 workers"}))
	m.Update(eventMsg(Event{Phase: "unknown", Status: StatusFailed}))

	if got := m.overall(); got != 0.625 {
		t.Errorf("overall = %v, want 0.625", got)
	}
	view := m.View()
	for _, want := range []string{"stress", "done", "running", "25/100", "8 workers"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "failed") {
		t.Errorf("event for an unknown phase changed the view:\n%s", view)
	}

	m.Update(doneMsg{})
	if !strings.HasPrefix(stripStyle(m.View()), "done: stress") {
		t.Errorf("finished view:\n%s", m.View())
	}
}

func TestPhaseFraction(t *testing.T) {
	tests := []struct {
		item phaseItem
		want float64
	}{
		{phaseItem{status: StatusQueued, done: 5, total: 10}, 0},
		{phaseItem{status: StatusRunning, done: 5, total: 10}, 0.5},
		{phaseItem{status: StatusRunning, done: 15, total: 10}, 1},
		{phaseItem{status: StatusRunning}, 0},
		{phaseItem{status: StatusFailed}, 1},
	}
	for _, tt := range tests {
		if got := tt.item.fraction(); got != tt.want {
			t.Errorf("%+v.fraction() = %v, want %v", tt.item, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("abcdefgh", 6); got != "abc..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 6); got != "abc" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdef", 2); got != "ab" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("网络连接超时", 7); got != "网络..." || runewidth.StringWidth(got) > 7 {
		t.Errorf("truncate wide = %q", got)
	}
}

// stripStyle drops ANSI escape sequences.
func stripStyle(s string) string {
	var b strings.Builder
	esc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			esc = true
		case esc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			esc = false
		case !esc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
