// Package cmd wires the command line interface: generate (root),
// validate and grid.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/acadterm/timetabler/config"
	"github.com/acadterm/timetabler/core/engine"
	"github.com/acadterm/timetabler/core/events"
	"github.com/acadterm/timetabler/core/metrics"
	"github.com/acadterm/timetabler/core/model"
	"github.com/acadterm/timetabler/infra/logger"
	_ "github.com/acadterm/timetabler/infra/metrics" // registers the built-in sinks
	"github.com/acadterm/timetabler/pkg/export"
)

var (
	cfgPath string
	outPath string
	grids   bool
)

var rootCmd = &cobra.Command{
	Use:   "timetabler",
	Short: "Academic timetable generation engine",
	RunE:  runGenerate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "write the schedule document to this file instead of stdout")
	rootCmd.Flags().BoolVar(&grids, "grids", false, "print per-division text grids after generating")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	snap, err := config.LoadSnapshot(cfg.Dataset)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	log := logger.New("engine")
	sink, err := metrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sinks: %w", err)
	}

	bus := events.NewBus()
	defer bus.Close()
	go logEvents(bus.Subscribe(), logger.New("events"))

	sched, genErr := engine.New(cfg.Engine, log, bus, sink).Generate(ctx, snap, cfg.WorkingHours, cfg.Rules)
	if sched == nil {
		return genErr
	}
	if genErr != nil && !errors.Is(genErr, model.ErrInfeasible) {
		return genErr
	}

	entries, err := export.Build(sched.Assignment, sched.Problem.Requirements, sched.Grid)
	if err != nil {
		return err
	}
	doc := export.Document{
		GeneratedAt: time.Now().UTC(),
		Status:      sched.Report.Status.String(),
		SoftScore:   sched.Report.SoftScore,
		Entries:     entries,
		Report:      sched.Report,
	}
	if err := writeDocument(doc); err != nil {
		return err
	}
	if grids {
		if err := export.WriteGrids(os.Stdout, entries, sched.Grid, export.ByDivision); err != nil {
			return err
		}
	}
	// A partial schedule is exported, but the exit status still reports it.
	return genErr
}

func writeDocument(doc export.Document) error {
	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return export.WriteJSON(w, doc)
}

// logEvents drains run progress events at debug level until the bus closes.
func logEvents(sub <-chan events.Event, log logger.Logger) {
	for ev := range sub {
		switch e := ev.(type) {
		case events.RunEvent:
			log.Debugw("run "+e.Action, map[string]any{"run_id": e.RunID, "placed": e.Placed, "total": e.Total})
		case events.PlacementEvent:
			log.Debugw("placement "+e.Action, map[string]any{"run_id": e.RunID, "occurrence": e.Occ.String(), "depth": e.Depth})
		case events.RefineEvent:
			log.Debugw("refine move", map[string]any{"run_id": e.RunID, "occurrence": e.Occ.String(), "old": e.OldScore, "new": e.NewScore})
		}
	}
}
