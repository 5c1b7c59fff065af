package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"nsntrace/internal/errors"
	"nsntrace/internal/version"
)

// newRootCmd builds the command tree. Tests build a fresh tree per run so
// flag state never leaks between them.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nsntrace",
		Short: "Flag-gated in-process tracing toolkit",
		Long: `nsntrace exercises the nsntrace tracing library: it runs a sample
program with traced modules, shows registry state, validates header formats
and filter descriptions, and stress-tests the registry.

Trace configuration is read, in order, from NSNTRACE_FILE, NSNTRACE,
--config-file and --config. Every flag can also be set from the environment
as NSNTRACE_<FLAG>, e.g. NSNTRACE_COLOR=off.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := bindViper(cmd)
			if err != nil {
				return err
			}
			return applyColorMode(v.GetString("color"))
		},
	}
	root.Version = version.Version()

	pf := root.PersistentFlags()
	pf.String("color", "auto", "colorize output (auto|on|off)")
	pf.CountP("verbose", "v", "diagnostic verbosity (-v info, -vv debug)")
	pf.Bool("log-json", false, "write diagnostics as JSON")
	pf.StringP("config", "c", "", "trace configuration text, e.g. \"demo enable; demo.net=rx\"")
	pf.String("config-file", "", "TOML trace configuration file")

	root.AddCommand(
		newDemoCmd(),
		newShowCmd(),
		newCheckFormatCmd(),
		newCheckFilterCmd(),
		newStressCmd(),
		newVersionCmd(),
	)
	return root
}

// main executes the root command and exits with status 1 on error.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func applyColorMode(mode string) error {
	switch mode {
	case "auto":
		color.NoColor = !isTerminal(os.Stdout)
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	default:
		return errors.Invalidf("--color %q (must be auto, on or off)", mode)
	}
	return nil
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
