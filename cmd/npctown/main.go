// Command npctown runs the vineyard economy simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "npctown",
		Short: "Day/night vineyard economy simulation",
		Long: `npctown simulates a harvester, a winemaker, a shopkeeper and passing
customers moving grapes to wine to sale over a day/night cycle.

Examples:
  npctown run --days 3
  npctown run --config tuning.yaml --db data/journal.db
  npctown path farmerHomeDoor shopDoor
  npctown layout --seed 7`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A missing .env is fine.
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newRunCommand())
	root.AddCommand(newPathCommand())
	root.AddCommand(newLayoutCommand())
	return root
}
