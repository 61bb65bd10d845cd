package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"sprout/internal/tree"
)

var errTreesDiffer = errors.New("trees differ")

func newEqualCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "equal <a.tree> <b.tree>",
		Short: "Compare two trees structurally",
		Long:  `Equal compares the full derivations of the first tree in each file. Byte extents are ignored, so the same derivation over different text is equal`,
		Args:  cobra.ExactArgs(2),
		RunE:  runEqual,
	}
}

func runEqual(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer s.reportTimings(cmd)
	res, err := s.load(cmd, args, false)
	if err != nil {
		return err
	}
	defer res.Release()

	if len(res.Files) != 2 {
		return fmt.Errorf("equal needs exactly two description files, got %d", len(res.Files))
	}
	for _, f := range res.Files {
		if f.Err != nil {
			return f.Err
		}
		if len(f.Trees) == 0 {
			return fmt.Errorf("%s: no trees", f.Path)
		}
	}
	a, b := res.Files[0].Trees[0], res.Files[1].Trees[0]
	out := cmd.OutOrStdout()
	if !tree.Equal(a, b) {
		fmt.Fprintln(out, "different")
		return errTreesDiffer
	}
	if a.Size() != b.Size() || a.Padding() != b.Padding() {
		fmt.Fprintf(out, "equal (extents differ: %d+%d vs %d+%d)\n", a.Padding(), a.Size(), b.Padding(), b.Size())
		return nil
	}
	fmt.Fprintln(out, "equal")
	return nil
}
