package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/stamped/pkg/types"
)

func newStatsCmd(a *app) *cobra.Command {
	var r types.DateRange

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Aggregate statistics over visits",
		Long: `Statistics are computed from the journal on every call. --from and --to
bound the visit date inclusively for every subcommand.`,
	}
	cmd.PersistentFlags().StringVar(&r.From, "from", "", "earliest date YYYY-MM-DD")
	cmd.PersistentFlags().StringVar(&r.To, "to", "", "latest date YYYY-MM-DD")

	run := func(fn func(ctx context.Context, stats types.StatsTable) (any, error)) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			return a.withJournal(cmd, func(ctx context.Context, s session) error {
				out, err := fn(ctx, s.journal.Stats())
				if err != nil {
					return err
				}
				return writeJSON(cmd, out)
			})
		}
	}

	overall := &cobra.Command{
		Use:   "overall",
		Short: "Visit count, average rating and total spent",
		Args:  noArgs,
		RunE: run(func(ctx context.Context, stats types.StatsTable) (any, error) {
			return stats.Overall(ctx, r)
		}),
	}

	category := &cobra.Command{
		Use:   "category",
		Short: "Visits and spending per category",
		Args:  noArgs,
		RunE: run(func(ctx context.Context, stats types.StatsTable) (any, error) {
			out, err := stats.ByCategory(ctx, r)
			return orEmpty(out), err
		}),
	}

	var granularity string
	period := &cobra.Command{
		Use:   "period",
		Short: "Visits and spending per day, week, month or year",
		Args:  noArgs,
		RunE: run(func(ctx context.Context, stats types.StatsTable) (any, error) {
			out, err := stats.ByTimePeriod(ctx, types.Granularity(granularity), r)
			return orEmpty(out), err
		}),
	}
	period.Flags().StringVar(&granularity, "by", string(types.GranularityMonth), "day, week, month or year")

	var limit int
	top := &cobra.Command{
		Use:   "top",
		Short: "Most visited places",
		Args:  noArgs,
		RunE: run(func(ctx context.Context, stats types.StatsTable) (any, error) {
			out, err := stats.TopPlaces(ctx, limit, r)
			return orEmpty(out), err
		}),
	}
	top.Flags().IntVar(&limit, "limit", 10, "number of places")

	cmd.AddCommand(overall, category, period, top)
	return cmd
}
