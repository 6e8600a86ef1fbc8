// Package cli implements the boulder command tree.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Faultbox/boulderkit/internal/config"
	"github.com/Faultbox/boulderkit/internal/logger"
)

// app carries state shared by all commands.
type app struct {
	configPath string
	overrides  config.Overrides
	cfg        *config.Config
}

// NewRootCommand builds the boulder command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "boulder",
		Short:         "Lay out mesh fragments as a boulder and attach them to a container",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to config file")
	root.PersistentFlags().BoolVar(&a.overrides.Debug, "debug", false, "enable debug logging")

	root.AddCommand(newAssembleCmd(a))
	root.AddCommand(newPlanCmd(a))
	root.AddCommand(newPackCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// load reads the configuration and starts the global logger.
func (a *app) load(cmd *cobra.Command) error {
	a.bindRangeFlags(cmd)

	cfg, err := config.Load(a.configPath, a.overrides)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return err
	}
	logger.Sugar.Debugf("config: %+v", *cfg)
	return nil
}

// rangeFlags are the per-run layout overrides shared by assemble and plan.
type rangeFlags struct {
	start, end, workers int
	seed                uint64
}

func addRangeFlags(cmd *cobra.Command, f *rangeFlags) {
	cmd.Flags().IntVar(&f.start, "start", 0, "first fragment index")
	cmd.Flags().IntVar(&f.end, "end", 0, "last fragment index (inclusive)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed for jitter")
	cmd.Flags().IntVarP(&f.workers, "workers", "j", 0, "layout workers (>1 plans in parallel)")
}

// bindRangeFlags copies explicitly set range flags into the overrides.
func (a *app) bindRangeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("start") {
		v, _ := flags.GetInt("start")
		a.overrides.StartIndex = &v
	}
	if flags.Changed("end") {
		v, _ := flags.GetInt("end")
		a.overrides.EndIndex = &v
	}
	if flags.Changed("seed") {
		v, _ := flags.GetUint64("seed")
		a.overrides.Seed = &v
	}
	if flags.Changed("workers") {
		v, _ := flags.GetInt("workers")
		a.overrides.Workers = &v
	}
}
