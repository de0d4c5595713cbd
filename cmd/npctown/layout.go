package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/der-cain/npc-town/internal/config"
	"github.com/der-cain/npc-town/internal/world"
)

func newLayoutCommand() *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "List the map's areas, points, roads and vineyard plots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Seed
			}
			m := world.DefaultLayout(slog.Default())
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, m)
			fmt.Fprintln(out, "Areas:")
			for _, key := range m.Areas() {
				fmt.Fprintf(out, "  %-20s %v\n", key, m.Area(key))
			}
			fmt.Fprintln(out, "Points:")
			for _, n := range m.Nodes() {
				road := ""
				if n.OnGraph {
					road = "-> " + strings.Join(m.Neighbors(n.Key), ", ")
				}
				fmt.Fprintf(out, "  %-20s %-14s %s\n", n.Key, n.Point, road)
			}
			fmt.Fprintf(out, "Plots (seed %d):\n", seed)
			for i, p := range world.PlacePlots(m.Area(world.AreaVineyard), cfg.PlotLayout(seed)) {
				fmt.Fprintf(out, "  %2d  %s\n", i+1, p)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "Plot placement seed")
	return cmd
}
