package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/der-cain/npc-town/internal/config"
	"github.com/der-cain/npc-town/internal/engine"
	"github.com/der-cain/npc-town/internal/persistence"
)

type runOptions struct {
	configPath string
	dbPath     string
	seed       int64
	days       int
	speed      float64
	asJSON     bool
}

func newRunCommand() *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the simulation",
		Long: `Run the simulation. With --days the run is headless and stops after that
many completed days; without it the world runs in real time until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath == "" {
				opts.configPath = os.Getenv("NPCTOWN_CONFIG")
			}
			if opts.dbPath == "" {
				opts.dbPath = os.Getenv("NPCTOWN_DB")
			}
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			if opts.dbPath == "" {
				opts.dbPath = cfg.Journal.Path
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = opts.seed
			}
			return runSimulation(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "Tuning YAML file (default $NPCTOWN_CONFIG)")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "Run journal SQLite file (default $NPCTOWN_DB, then journal.path)")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "World seed, 0 for random")
	cmd.Flags().IntVar(&opts.days, "days", 0, "Stop after this many days, running headless")
	cmd.Flags().Float64Var(&opts.speed, "speed", 1.0, "Real-time speed multiplier")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the final world snapshot as JSON")
	return cmd
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "path", path)
	return cfg, nil
}

func runSimulation(ctx context.Context, out io.Writer, cfg config.Config, opts *runOptions) error {
	sim, err := engine.NewSimulation(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer sim.Close()

	if opts.dbPath != "" {
		db, runID, err := openJournal(opts.dbPath, sim.Seed(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		sim.OnDay = func(stats engine.DayStats, events []engine.Event) {
			if err := db.RecordDay(runID, stats, events); err != nil {
				slog.Warn("journal write failed", "day", stats.Day, "error", err)
			}
		}
		defer func() {
			if err := db.FinishRun(runID, sim.CompletedDays()); err != nil {
				slog.Warn("journal finish failed", "run", runID, "error", err)
			}
		}()
	}

	eng := engine.NewEngine(sim.Step, slog.Default())
	eng.Step = cfg.Tick
	eng.Interval = cfg.Tick
	eng.Speed = opts.speed

	if opts.days > 0 {
		maxSteps := (opts.days + 1) * int(cfg.Clock.DayLength/cfg.Tick) * stepHeadroom(cfg)
		if !eng.RunUntil(maxSteps, func() bool { return sim.CompletedDays() >= opts.days }) {
			return fmt.Errorf("stopped after %d steps with %d of %d days complete", maxSteps, sim.CompletedDays(), opts.days)
		}
	} else {
		if ctx == nil {
			ctx = context.Background()
		}
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := eng.Run(ctx); err != nil {
			return err
		}
	}

	return printSummary(out, sim, opts.asJSON)
}

// stepHeadroom covers slow clock rates, which stretch a day over more steps.
func stepHeadroom(cfg config.Config) int {
	slowest := min(cfg.Clock.DayRate, cfg.Clock.NightRate)
	if slowest <= 0 || slowest >= 1 {
		return 1
	}
	return int(1/slowest) + 1
}

func openJournal(path string, seed int64, cfg config.Config) (*persistence.DB, string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, "", fmt.Errorf("journal dir: %w", err)
		}
	}
	db, err := persistence.Open(path)
	if err != nil {
		return nil, "", err
	}
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		db.Close()
		return nil, "", fmt.Errorf("encode config: %w", err)
	}
	runID, err := db.StartRun(seed, string(raw))
	if err != nil {
		db.Close()
		return nil, "", err
	}
	slog.Info("journal opened", "path", path, "run", runID)
	return db, runID, nil
}

func printSummary(out io.Writer, sim *engine.Simulation, asJSON bool) error {
	snap := sim.Snapshot()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmt.Fprintf(out, "Day %d %s after %s simulated\n", snap.Day, snap.Time, sim.Elapsed().Round(time.Second))
	fmt.Fprintf(out, "  Winery:  %d grapes in, %d wine ready, %d pressed\n", snap.Winery.Input, snap.Winery.Output, snap.Winery.Produced)
	fmt.Fprintf(out, "  Shop:    %d on shelf, %d sold for %d\n", snap.Shop.Output, snap.Shop.Sold, snap.Shop.Revenue)
	fmt.Fprintf(out, "  Plots:   %d of %d ripe\n", snap.RipePlots, snap.Plots)
	for _, d := range sim.History {
		fmt.Fprintf(out, "  Day %-3d  harvested %-3d pressed %-3d sold %-3d customers %d\n",
			d.Day, d.Harvested, d.Pressed, d.Sold, d.Customers)
	}
	for _, a := range snap.Agents {
		fmt.Fprintf(out, "  %-10s %-20s %s\n", a.Role, a.Name, a.State)
	}
	return nil
}
