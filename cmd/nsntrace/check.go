package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"nsntrace/internal/filter"
	"nsntrace/internal/header"
	"nsntrace/internal/trace"
)

// sampleRecord feeds check-format so every directive has something to show.
var sampleRecord = header.Record{
	Time:     time.Date(2024, time.March, 1, 12, 30, 45, 123_000_000, time.UTC),
	Last:     time.Date(2024, time.March, 1, 12, 30, 44, 0, time.UTC),
	Context:  "demo",
	Module:   "net",
	Flag:     "rx",
	File:     "server.go",
	Line:     42,
	Function: "server.(*conn).read",
	Tags:     filter.T("peer", "alpha"),
	Message:  "packet 7 received",
}

func directiveHelp() string {
	var sb strings.Builder
	for _, d := range header.Directives {
		fmt.Fprintf(&sb, "  %%%c  %s\n", d.Verb, d.Help)
	}
	return sb.String()
}

func newCheckFormatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-format FORMAT",
		Short: "Validate a header format and render a sample line",
		Long: "check-format validates a header format and renders a sample message\n" +
			"through it.\n\nDirectives:\n" + directiveHelp() +
			"\nWith --list the argument is a flag listing format instead:\n" +
			"%[-][min][.max]X with X one of c m f d F s.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if list, _ := cmd.Flags().GetBool("list"); list {
				if err := header.CheckList(args[0]); err != nil {
					return err
				}
				entries := []header.Entry{{
					Context:     sampleRecord.Context,
					Module:      sampleRecord.Module,
					Flag:        sampleRecord.Flag,
					Description: "packets received",
					On:          true,
				}}
				line, err := header.ListString(1024, args[0], "\n", entries)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, line)
				return err
			}

			if err := header.Check(args[0]); err != nil {
				return err
			}
			line, err := header.FormatString(trace.DefaultBufferSize, args[0], &sampleRecord)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(out, line)
			return err
		},
	}
	cmd.Flags().Bool("list", false, "check a flag listing format")
	return cmd
}

func newCheckFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-filter DESCRIPTION [TAGS...]",
		Short: "Validate a filter description and match it against tag sets",
		Long: `check-filter parses a filter description such as "user=alice id=7" and
prints its predicates. Each further argument is a tag set in the same
key=value syntax and is reported as matching or not.

  nsntrace check-filter --regexp 'path=/api/.*' 'path=/api/users' 'path=/static'`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := filter.KindSimple
			if re, _ := cmd.Flags().GetBool("regexp"); re {
				kind = filter.KindRegexp
			}
			f, err := filter.New(kind, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s filter %s\n", f.Kind(), filter.Tags(f.Predicates()))
			for _, arg := range args[1:] {
				tags, err := filter.Parse(arg)
				if err != nil {
					return err
				}
				verdict := "no match"
				if f.Match(tags) {
					verdict = "match"
				}
				fmt.Fprintf(out, "%-8s %s\n", verdict, filter.Tags(tags))
			}
			return nil
		},
	}
	cmd.Flags().Bool("regexp", false, "treat predicate values as regular expressions")
	return cmd
}
