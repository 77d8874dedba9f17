package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/acadterm/timetabler/config"
	"github.com/acadterm/timetabler/core/calendar"
	"github.com/acadterm/timetabler/core/constraint"
	"github.com/acadterm/timetabler/core/model"
	"github.com/acadterm/timetabler/core/normalize"
	"github.com/acadterm/timetabler/core/validate"
	"github.com/acadterm/timetabler/infra/logger"
	"github.com/acadterm/timetabler/pkg/export"
)

var validateCmd = &cobra.Command{
	Use:   "validate <schedule.json>",
	Short: "Re-validate an exported schedule against the current dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	snap, err := config.LoadSnapshot(cfg.Dataset)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	log := logger.New("validate")

	problem, dataErrs := normalize.Normalize(snap)
	for _, err := range dataErrs {
		log.Warnf("normalize: %v", err)
	}
	grid, err := calendar.Build(cfg.WorkingHours)
	if err != nil {
		return fmt.Errorf("build slot grid: %w", err)
	}
	cm, err := constraint.New(grid, cfg.Rules, problem.Teachers, problem.Rooms, problem.Requirements)
	if err != nil {
		return fmt.Errorf("build constraint model: %w", err)
	}

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	doc, err := export.ReadJSON(f)
	if err != nil {
		return err
	}
	placements, err := export.Placements(doc.Entries)
	if err != nil {
		return err
	}

	// Rebuild the assignment placement by placement. Conflicts the
	// indexes reject are reported instead of silently dropped.
	asn := model.NewAssignment()
	conflicts := 0
	for occ, p := range placements {
		req, ok := problem.RequirementByID(occ.RequirementID)
		if !ok {
			log.Warnf("document references unknown requirement %s", occ.RequirementID)
			conflicts++
			continue
		}
		if err := asn.Place(req, occ, p); err != nil {
			log.Warnf("conflicting placement: %v", err)
			conflicts++
		}
	}

	validator := validate.New(grid, cfg.Rules, problem.Teachers, problem.Rooms, problem.Requirements, cm)
	report := validator.Check(asn)

	fmt.Printf("status: %s\n", report.Status)
	fmt.Printf("soft score: %0.2f\n", report.SoftScore)
	fmt.Printf("violations: %d (%d during rebuild)\n", len(report.Violations), conflicts)
	for _, v := range report.Violations {
		fmt.Printf("  [%s/%s] %s\n", v.Severity, v.Kind, v.Detail)
	}
	if conflicts > 0 || len(report.HardViolations()) > 0 {
		return fmt.Errorf("schedule failed validation")
	}
	return nil
}
