package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/boulderkit/internal/logger"
	"github.com/Faultbox/boulderkit/pkg/layout"
)

// planEntry is one line of plan output.
type planEntry struct {
	layout.Placement `yaml:",inline"`
	Error            string `yaml:"error,omitempty"`
}

func newPlanCmd(a *app) *cobra.Command {
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print fragment placements as YAML without touching assets or the container",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				return err
			}
			defer logger.Sync()

			req := a.cfg.Layout.Request()
			var (
				results []layout.Result
				err     error
			)
			if a.cfg.Layout.Workers > 1 {
				results, err = layout.PlanParallel(cmd.Context(), req, a.cfg.Layout.Seed, a.cfg.Layout.Workers)
			} else {
				results, err = layout.Plan(req, layout.NewSource(a.cfg.Layout.Seed))
			}
			if err != nil {
				return err
			}

			entries := make([]planEntry, len(results))
			failed := 0
			for i, r := range results {
				entries[i] = planEntry{Placement: r.Placement}
				if r.Err != nil {
					entries[i].Error = r.Err.Error()
					failed++
				}
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(entries); err != nil {
				return fmt.Errorf("encoding plan: %w", err)
			}
			if err := enc.Close(); err != nil {
				return err
			}

			logger.Info("plan complete", zap.Int("fragments", len(entries)), zap.Int("failed", failed))
			return nil
		},
	}

	addRangeFlags(cmd, &rf)
	return cmd
}
