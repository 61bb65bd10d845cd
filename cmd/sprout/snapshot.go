package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sprout/internal/logging"
	"sprout/internal/snapshot"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [flags] <file.tree>",
		Short: "Write the first tree of a description file as a msgpack snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}
	cmd.Flags().StringP("output", "o", "", "snapshot path (required)")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runDump(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	defer s.reportTimings(cmd)
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	res, err := s.load(cmd, args, false)
	if err != nil {
		return err
	}
	defer res.Release()

	if len(res.Files) != 1 {
		return fmt.Errorf("dump needs exactly one description file, got %d", len(res.Files))
	}
	f := res.Files[0]
	if f.Err != nil {
		return f.Err
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("%s: no trees", f.Path)
	}
	if err := snapshot.WriteFile(output, f.Trees[0], res.Table.Snapshot().NameList()); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	s.log.Info("snapshot written", logging.FieldPath, output)
	return nil
}

func newLoadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load [flags] <snapshot>",
		Short: "Print a tree stored in a msgpack snapshot",
		Args:  cobra.ExactArgs(1),
		RunE:  runLoad,
	}
	cmd.Flags().String("format", "", "output format (sexp|pretty|describe)")
	return cmd
}

func runLoad(cmd *cobra.Command, args []string) error {
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

	snap, err := snapshot.ReadFile(args[0])
	if err != nil {
		return err
	}
	defer snap.Release()
	s.log.Debug("snapshot loaded", logging.FieldPath, args[0], logging.FieldNodes, snap.Nodes)

	return writeTree(cmd.OutOrStdout(), snap.Root, nameFlags{snap.Names}, format, s.color)
}
