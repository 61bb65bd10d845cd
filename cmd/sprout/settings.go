package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sprout/internal/config"
	"sprout/internal/driver"
	"sprout/internal/logging"
	"sprout/internal/observ"
	"sprout/internal/symbols"
)

// settings is the merged view of sprout.toml and command-line flags.
type settings struct {
	cfg    config.Config
	color  bool
	table  *symbols.Table
	strict bool
	jobs   int
	log    *log.Logger
	timer  *observ.Timer // nil без --timings
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	flags := cmd.Root().PersistentFlags()
	var timer *observ.Timer
	if on, _ := flags.GetBool("timings"); on {
		timer = observ.NewTimer()
	}
	stop := timer.Start("config")

	cfg, err := config.Discover(".")
	if err != nil {
		return nil, err
	}

	if v, _ := flags.GetString("color"); v != "" {
		cfg.Output.Color = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := flags.GetString("grammar"); v != "" {
		cfg.Grammar.Path = v
	}
	if flags.Changed("strict") {
		cfg.Grammar.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("jobs") {
		cfg.Driver.Jobs, _ = flags.GetInt("jobs")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &settings{
		cfg:    cfg,
		strict: cfg.Grammar.Strict,
		jobs:   cfg.Driver.Jobs,
		log:    logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Log.Level),
		timer:  timer,
	}
	// логгер без контекста тоже должен учитывать --log-level
	logging.SetDefault(s.log)
	s.color = useColor(cfg.Output.Color, cmd.OutOrStdout())
	color.NoColor = !s.color

	if cfg.Path != "" {
		s.log.Debug("using config", logging.FieldConfig, cfg.Path)
	}
	if cfg.Grammar.Path != "" {
		g, err := symbols.LoadGrammar(cfg.Grammar.Path)
		if err != nil {
			return nil, err
		}
		s.table = g.Table
		s.log.Debug("grammar loaded",
			logging.FieldGrammar, g.Name,
			logging.FieldSymbols, g.Table.Len())
	} else if s.strict {
		return nil, fmt.Errorf("--strict needs a grammar")
	}
	stop(cfg.Path)
	return s, nil
}

// reportTimings writes the phase summary to stderr when --timings is set.
func (s *settings) reportTimings(cmd *cobra.Command) {
	if s.timer == nil {
		return
	}
	fmt.Fprint(cmd.ErrOrStderr(), s.timer.Summary())
}

func useColor(mode string, out io.Writer) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	}
	f, ok := out.(*os.File)
	return ok && isTerminal(f)
}

func (s *settings) context(parent context.Context) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return logging.WithLogger(parent, s.log)
}

// load parses the description files named by args, directories expanded.
func (s *settings) load(cmd *cobra.Command, args []string, check bool) (*driver.Result, error) {
	paths, err := driver.ExpandPaths(args)
	if err != nil {
		return nil, err
	}
	var table *symbols.SyncTable
	if s.table != nil {
		table = symbols.NewSyncTable(s.table.Clone())
	}
	stop := s.timer.Start("load")
	res, err := driver.LoadFiles(s.context(cmd.Context()), paths, driver.Options{
		Table:  table,
		Strict: s.strict,
		Check:  check,
		Jobs:   s.jobs,
	})
	if err == nil {
		stop(fmt.Sprintf("%d files", len(res.Files)))
	}
	return res, err
}
