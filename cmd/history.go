// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tonecoach/internal/history"
	"tonecoach/internal/tui"
)

func (a *app) newHistoryCommand() *cobra.Command {
	var (
		target  string
		limit   int
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past attempts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := history.Open(a.cfg.History.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := cmd.Context()
			var out string
			if summary {
				summaries, err := store.Summaries(ctx)
				if err != nil {
					return err
				}
				out = tui.RenderSummaries(summaries)
			} else {
				entries, err := store.Recent(ctx, target, limit)
				if err != nil {
					return err
				}
				out = tui.RenderHistory(entries)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVarP(&target, "target", "t", "", "Only show attempts at this target")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of attempts to show")
	cmd.Flags().BoolVarP(&summary, "summary", "s", false, "Show per-target totals instead of attempts")
	return cmd
}
