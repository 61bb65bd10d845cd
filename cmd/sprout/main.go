package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"sprout/internal/prof"
	"sprout/internal/version"
)

// newRootCmd assembles the command tree. Building it per call keeps flag
// state out of package globals, which the tests rely on.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sprout",
		Short:         "Syntax tree toolkit",
		Long:          `sprout builds, compares, prints and persists incremental-parser syntax trees`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	var session *prof.Session
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cpu, _ := cmd.Root().PersistentFlags().GetString("cpu-profile")
		mem, _ := cmd.Root().PersistentFlags().GetString("mem-profile")
		var err error
		session, err = prof.Start(cpu, mem)
		return err
	}
	root.PersistentPostRunE = func(*cobra.Command, []string) error {
		return session.Stop()
	}

	root.AddCommand(newPrintCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newEqualCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newLoadCmd())
	root.AddCommand(newInternCmd())
	root.AddCommand(newVersionCmd())

	// Глобальные флаги
	root.PersistentFlags().String("color", "", "colorize output (auto|on|off)")
	root.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	root.PersistentFlags().String("grammar", "", "TOML grammar file with the symbol table")
	root.PersistentFlags().Bool("strict", false, "reject node names missing from the grammar")
	root.PersistentFlags().Int("jobs", 0, "max parallel workers (0=auto)")
	root.PersistentFlags().Bool("timings", false, "print phase timings to stderr")
	root.PersistentFlags().String("cpu-profile", "", "write a CPU profile to file")
	root.PersistentFlags().String("mem-profile", "", "write a heap profile to file")

	return root
}

// main runs the CLI and exits with status 1 on error.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
