package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/acadterm/timetabler/config"
	"github.com/acadterm/timetabler/core/calendar"
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Print the weekly slot grid derived from the working-hours policy",
	RunE:  runGrid,
}

func init() {
	rootCmd.AddCommand(gridCmd)
}

func runGrid(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	grid, err := calendar.Build(cfg.WorkingHours)
	if err != nil {
		return err
	}

	fmt.Printf("%d days x %d slots (%d min periods, labs span %d slots)\n",
		len(grid.Days), grid.SlotsPerDay, grid.PeriodMinutes, grid.LabSlotSpan)
	for _, day := range grid.Days {
		fmt.Printf("%s:", day)
		for _, ts := range grid.DaySlots(day) {
			fmt.Printf("  %s-%s", ts.Start, ts.End)
		}
		fmt.Println()
	}
	return nil
}
