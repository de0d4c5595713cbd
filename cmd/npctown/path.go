package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/der-cain/npc-town/internal/config"
	"github.com/der-cain/npc-town/internal/geom"
	"github.com/der-cain/npc-town/internal/world"
)

func newPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path <from> <to>",
		Short: "Show the road route between two named points",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to := args[0], args[1]
			m := world.DefaultLayout(slog.Default())

			start, ok := m.LookupPoint(from)
			if !ok {
				return fmt.Errorf("unknown point %q", from)
			}
			end, ok := m.LookupPoint(to)
			if !ok {
				return fmt.Errorf("unknown point %q", to)
			}

			out := cmd.OutOrStdout()
			if keys := m.PathKeys(from, to); keys != nil {
				fmt.Fprintf(out, "Route: %s\n", strings.Join(keys, " -> "))
			} else {
				fmt.Fprintln(out, "Route: direct")
			}

			pts := m.FindPath(start, end, from, to)
			length := 0.0
			for i, p := range pts {
				if i > 0 {
					length += geom.Distance(pts[i-1], p)
				}
				fmt.Fprintf(out, "  %2d  %s\n", i, p)
			}
			speed := config.Default().Agents.Speed
			fmt.Fprintf(out, "Length %.0f, %.1fs on foot\n", length, length/speed)
			return nil
		},
	}
}
