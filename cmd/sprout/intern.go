package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sprout/internal/reuse"
	"sprout/internal/tree"
)

func newInternCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "intern <file.tree|directory>...",
		Short: "Report how many subtrees are shared across trees",
		Long:  `Intern feeds every subtree of the loaded trees into a reuse store and reports how many are identical copies of an earlier one, and how many more could be reused if byte extents were ignored`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  runIntern,
	}
}

type internStats struct {
	subtrees  int
	distinct  int
	sameShape int
}

func runIntern(cmd *cobra.Command, args []string) error {
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
	if failed := res.Failed(); failed > 0 {
		for _, f := range res.Files {
			if f.Err != nil {
				return f.Err
			}
		}
	}

	store := reuse.NewStore(256)
	defer store.Close()
	stats := internSubtrees(store, res.Trees())

	fmt.Fprintf(cmd.OutOrStdout(), "subtrees: %d\ndistinct: %d\nreusable ignoring extents: %d\n",
		stats.subtrees, stats.distinct, stats.sameShape)
	return nil
}

// internSubtrees visits every node once per occurrence, children first.
func internSubtrees(store *reuse.Store, roots []*tree.Node) internStats {
	var stats internStats
	var stack []*tree.Node
	for _, root := range roots {
		stack = append(stack[:0], root)
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			stack = append(stack, n.Children()...)

			stats.subtrees++
			if _, match, ok := store.FindEqual(n); ok {
				tree.Release(match)
				stats.sameShape++
			}
			before := store.Len()
			_, canonical := store.Intern(n)
			tree.Release(canonical)
			if store.Len() > before {
				stats.distinct++
			}
		}
	}
	stats.sameShape -= stats.subtrees - stats.distinct
	return stats
}
