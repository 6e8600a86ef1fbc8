package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/boulderkit/internal/assembly"
	"github.com/Faultbox/boulderkit/internal/assets"
	"github.com/Faultbox/boulderkit/internal/config"
	"github.com/Faultbox/boulderkit/internal/logger"
	"github.com/Faultbox/boulderkit/internal/scene"
)

func newAssembleCmd(a *app) *cobra.Command {
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "assemble",
		Short: "Place every fragment and save the container",
		Long: `Assemble looks up the mesh of every fragment in the range, places it on the
boulder surface and attaches it to the container. Missing meshes and failed
attaches are skipped; the container is saved once at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			defer logger.Sync()
			return runAssemble(cmd, a.cfg)
		},
	}

	addRangeFlags(cmd, &rf)
	cmd.Flags().StringVarP(&a.overrides.Output, "output", "o", "", "container document to write")
	cmd.Flags().StringSliceVar(&a.overrides.AssetRoots, "assets", nil, "asset root directories or .grf archives (later roots win)")
	cmd.Flags().BoolVar(&a.overrides.DryRun, "dry-run", false, "lay out and attach without writing the container")

	return cmd
}

func runAssemble(cmd *cobra.Command, cfg *config.Config) error {
	catalog := assets.NewCatalog(cfg.Assets.NamePattern, cfg.Assets.Extensions)
	defer catalog.Close()
	for _, root := range cfg.Assets.Roots {
		if err := catalog.AddRoot(root); err != nil {
			return err
		}
	}

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}

	report, runErr := assembly.Run(cmd.Context(), cfg.Layout.Request(), assembly.Options{
		Assets:     catalog,
		Backend:    backend,
		Seed:       cfg.Layout.Seed,
		Workers:    cfg.Layout.Workers,
		NamePrefix: cfg.Container.ComponentPrefix,
		Parent:     cfg.Container.Parent,
		Logger:     logger.Named("assembly"),
	})

	hits, misses := catalog.Stats()
	logger.Debug("asset lookups", zap.Int("cache_hits", hits), zap.Int("cache_misses", misses))

	printReport(cmd.OutOrStdout(), report)
	if runErr != nil {
		logger.Error("assembly failed", zap.Error(runErr))
		return runErr
	}
	if skipped := report.SkippedOther(); skipped > 0 {
		logger.Warn("fragments skipped after a mesh was found", zap.Int("skipped", skipped))
	}
	if report.Processed == 0 {
		return fmt.Errorf("no components were attached")
	}
	return nil
}

// newBackend selects the component backend named in the config.
func newBackend(cfg *config.Config) (assembly.Backend, error) {
	switch cfg.Container.Backend {
	case config.BackendDryRun:
		return scene.NewDryRun(logger.Named("dry-run")), nil
	default:
		return scene.Open(cfg.Container.Path,
			scene.WithMaterial(cfg.Material.Settings()),
			scene.WithReplace(cfg.Container.Replace),
			scene.WithLogger(logger.Named("scene")))
	}
}

func printReport(w io.Writer, r assembly.Report) {
	fmt.Fprintf(w, "Fragments:       %d\n", r.Total)
	fmt.Fprintf(w, "Attached:        %d\n", r.Processed)
	fmt.Fprintf(w, "Skipped missing: %d\n", r.SkippedMissing)
	fmt.Fprintf(w, "Skipped other:   %d\n", r.SkippedOther())
	fmt.Fprintf(w, "Saved:           %t\n", r.Persisted)
	for _, f := range r.Failures {
		if f.Kind != assembly.MissingAsset {
			fmt.Fprintf(w, "  %v\n", f)
		}
	}
}
