package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"nsntrace/internal/errors"
	"nsntrace/internal/trace"
)

type showStyles struct {
	context lipgloss.Style
	meta    lipgloss.Style
	on      lipgloss.Style
	off     lipgloss.Style
	empty   lipgloss.Style
}

func newShowStyles(plain bool) showStyles {
	if plain {
		s := lipgloss.NewStyle()
		return showStyles{context: s, meta: s, on: s, off: s, empty: s}
	}
	return showStyles{
		context: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		meta:    lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
		on:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("32")),
		off:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		empty:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true),
	}
}

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show contexts, modules and flags after applying configuration",
		Long: `show installs the demo program's modules, applies the configuration and
prints the resulting registry state.

Outputs:
  table    styled overview (default)
  config   configuration text that recreates the state
  list     one line per flag rendered with --list-format
  json     snapshot as JSON
  msgpack  snapshot as MessagePack`,
		Args: cobra.NoArgs,
		RunE: runShow,
	}
	cmd.Flags().StringP("output", "o", "table", "output format (table|config|list|json|msgpack)")
	cmd.Flags().String("list-format", "%-6c %-12F %3s  %d", "flag line format for --output list")
	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.close()

	if _, err := installSample(s.reg); err != nil {
		return err
	}
	if err := s.configure(); err != nil {
		return err
	}

	switch out := s.v.GetString("output"); out {
	case "table":
		return renderTable(s.out, s.reg.Snapshot(), newShowStyles(color.NoColor))
	case "list":
		text, err := s.reg.ListFlags(trace.AllContexts, s.v.GetString("list-format"), "\n", 64*1024)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(s.out, text)
		return err
	default:
		format, err := parseShowOutput(out)
		if err != nil {
			return err
		}
		return trace.EncodeSnapshot(s.out, s.reg.Snapshot(), format)
	}
}

func parseShowOutput(out string) (trace.SnapshotFormat, error) {
	if out == "config" {
		return trace.SnapshotText, nil
	}
	format, err := trace.ParseSnapshotFormat(out)
	if err != nil || format == trace.SnapshotText {
		return trace.SnapshotText, errors.Invalidf("--output %q (must be table, config, list, json or msgpack)", out)
	}
	return format, nil
}

// renderTable prints one block per context with its flags aligned in
// columns.
func renderTable(w io.Writer, snap trace.Snapshot, st showStyles) error {
	var sb strings.Builder
	for i, c := range snap.Contexts {
		if i > 0 {
			sb.WriteByte('\n')
		}
		state := "disabled"
		if c.Enabled {
			state = "enabled"
		}
		sb.WriteString(st.context.Render(c.Name))
		sb.WriteString(" " + st.meta.Render(fmt.Sprintf("(%s, %s, %q)", state, c.Target, c.Format)))
		sb.WriteByte('\n')
		if f := filterSummary(c); f != "" {
			sb.WriteString("  " + st.meta.Render("filters: "+f) + "\n")
		}

		width := 0
		for _, m := range c.Modules {
			for _, f := range m.Flags {
				width = max(width, runewidth.StringWidth(m.Name+"."+f.Name))
			}
		}
		if width == 0 {
			sb.WriteString("  " + st.empty.Render("no modules") + "\n")
			continue
		}
		for _, m := range c.Modules {
			for _, f := range m.Flags {
				mark := st.off.Render("off")
				if f.On {
					mark = st.on.Render(" on")
				}
				name := runewidth.FillRight(m.Name+"."+f.Name, width)
				fmt.Fprintf(&sb, "  %s  %s  %s\n", name, mark, f.Description)
			}
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func filterSummary(c trace.ContextState) string {
	var parts []string
	if c.PassAll {
		parts = append(parts, "all")
	}
	if c.PassEmpty {
		parts = append(parts, "empty")
	}
	parts = append(parts, c.Filters...)
	for _, r := range c.RegexpFilters {
		parts = append(parts, "~"+r)
	}
	return strings.Join(parts, "; ")
}
