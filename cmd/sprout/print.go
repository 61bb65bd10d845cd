package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"sprout/internal/logging"
	"sprout/internal/sexp"
	"sprout/internal/symbols"
	"sprout/internal/tree"
	"sprout/internal/treefmt"
)

func newPrintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print [flags] <file.tree|directory>...",
		Short: "Print trees from description files",
		Long:  `Print reads tree descriptions and writes their visible trees (sexp), an indented listing with byte ranges (pretty), or the full derivation (describe)`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  runPrint,
	}
	cmd.Flags().String("format", "", "output format (sexp|pretty|describe)")
	return cmd
}

func runPrint(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer s.reportTimings(cmd)
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format == "" {
		format = s.cfg.Output.Format
	}

	res, err := s.load(cmd, args, false)
	if err != nil {
		return err
	}
	defer res.Release()

	out := cmd.OutOrStdout()
	table := res.Table.Snapshot()
	stop := s.timer.Start("render")
	defer func() { stop(format) }()
	for _, f := range res.Files {
		if f.Err != nil {
			s.log.Error("load failed", logging.FieldPath, f.Path, logging.FieldError, f.Err)
			continue
		}
		for _, n := range f.Trees {
			if err := writeTree(out, n, table, format, s.color); err != nil {
				return err
			}
		}
	}
	if failed := res.Failed(); failed > 0 {
		return fmt.Errorf("%d file(s) failed to load", failed)
	}
	return nil
}

// writeTree renders n in one of the print formats.
func writeTree(w io.Writer, n *tree.Node, table sexp.Flags, format string, color bool) error {
	switch format {
	case "sexp":
		_, err := fmt.Fprintln(w, tree.ToString(n, table))
		return err
	case "pretty":
		return treefmt.Pretty(w, n, table, treefmt.PrettyOpts{Color: color})
	case "describe":
		_, err := fmt.Fprintln(w, sexp.Describe(n, table))
		return err
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// nameFlags adapts a plain name list to sexp.Flags using the hidden-rule
// naming convention.
type nameFlags struct{ symbols.NameList }

func (f nameFlags) Hidden(sym symbols.Symbol) bool {
	return symbols.HiddenByName(f.Name(sym))
}
