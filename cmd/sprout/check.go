package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file.tree|directory>...",
		Short: "Verify tree invariants",
		Long:  `Check loads tree descriptions and verifies extents, visible-children caches and wrapper collapse of every node`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer s.reportTimings(cmd)
	res, err := s.load(cmd, args, true)
	if err != nil {
		return err
	}
	defer res.Release()

	out := cmd.OutOrStdout()
	for _, f := range res.Files {
		if f.Err != nil {
			fmt.Fprintf(out, "FAIL %s: %v\n", f.Path, f.Err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (%d trees)\n", f.Path, len(f.Trees))
	}
	if failed := res.Failed(); failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", failed, len(res.Files))
	}
	return nil
}
