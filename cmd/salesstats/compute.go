package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"salesstats/internal/analytics"
)

func newComputeCmd() *cobra.Command {
	var amount, sortOrder, dateMode, start, end, chart string
	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Fetch once, compute one view and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			opts, kind, err := analytics.ParseQuery(amount, sortOrder, dateMode, start, end, chart)
			if err != nil {
				return err
			}
			if err := a.stats.Load(cmd.Context()); err != nil {
				return err
			}
			view, err := a.stats.Compute(opts, kind)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "all", "Amount threshold: all, 100, 500, 1000")
	cmd.Flags().StringVar(&sortOrder, "sort", "none", "Sort by total: none, asc, desc")
	cmd.Flags().StringVar(&dateMode, "date", "all", "Date window: all, day, week, month, range")
	cmd.Flags().StringVar(&start, "start", "", "Range start (RFC3339 or 2006-01-02)")
	cmd.Flags().StringVar(&end, "end", "", "Range end (RFC3339 or 2006-01-02, whole day)")
	cmd.Flags().StringVar(&chart, "chart", "bar", "Chart kind: bar, pie, line")
	return cmd
}
