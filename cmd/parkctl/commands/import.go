package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"park-ops/internal/models"
	"park-ops/internal/spreadsheet"
	"park-ops/internal/staffimport"

	"github.com/spf13/cobra"
)

func newImportCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import assignments or staff lists from CSV, XLSX or XLS",
	}
	cmd.AddCommand(newImportAssignmentsCommand(opts))
	cmd.AddCommand(newImportStaffCommand(opts))
	return cmd
}

func readSheet(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return spreadsheet.ReadRows(f, filepath.Base(path))
}

func newImportAssignmentsCommand(opts *globalOptions) *cobra.Command {
	var kindFlag, date string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "assignments <file>",
		Short: "Merge an assignment sheet into one day's assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseAssignmentKind(kindFlag)
			if err != nil {
				return err
			}
			day, err := resolveDate(date)
			if err != nil {
				return err
			}
			rows, err := readSheet(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			s, err := opts.open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()

			staff, err := s.Collections.Staff(ctx, kind.StaffKind())
			if err != nil {
				return err
			}
			entities, err := s.Collections.Entities(ctx, kind)
			if err != nil {
				return err
			}

			var result spreadsheet.ImportResult
			out := cmd.OutOrStdout()
			if dryRun {
				working, err := s.Collections.Assignments(ctx, kind, day)
				if err != nil {
					return err
				}
				result = spreadsheet.ImportAssignments(kind, rows, working, entities, staff)
				for _, e := range result.Errors {
					fmt.Fprintln(out, e)
				}
				fmt.Fprintf(out, "%d rows would be imported for %s\n", result.SuccessCount, day)
				return nil
			}

			err = s.Collections.UpdateAssignments(ctx, kind, day, func(current models.Assignments) (models.Assignments, error) {
				result = spreadsheet.ImportAssignments(kind, rows, current, entities, staff)
				if result.SuccessCount == 0 {
					return current, nil
				}
				return result.Assignments, nil
			})
			if err != nil {
				return err
			}
			for _, e := range result.Errors {
				fmt.Fprintln(out, e)
			}
			if result.SuccessCount == 0 {
				fmt.Fprintln(out, "No rows imported")
				return nil
			}

			details := fmt.Sprintf("Imported %d %s assignment rows for %s (%d errors)", result.SuccessCount, kind.StaffKind(), day, len(result.Errors))
			if _, err := s.History.Append(ctx, cliUser(), "Assignments Imported", details); err != nil {
				s.Logger.Warn("IMPORT", fmt.Sprintf("History append failed: %v", err))
			}
			if err := s.save(ctx); err != nil {
				return err
			}
			fmt.Fprintf(out, "Imported %d rows for %s\n", result.SuccessCount, day)
			return nil
		},
	}
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", string(models.RideAssignments), "rides or counters")
	cmd.Flags().StringVarP(&date, "date", "d", "", "day as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be imported without saving")
	return cmd
}

func newImportStaffCommand(opts *globalOptions) *cobra.Command {
	var kindFlag, mode string
	var yes bool
	cmd := &cobra.Command{
		Use:   "staff <file>",
		Short: "Merge into or replace a staff list",
		Long: `Reads one name per row from the first column (comma separated cells are
split). merge adds the names not already listed. replace wipes the list and
every assignment of that kind, so it needs --yes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseStaffKind(kindFlag)
			if err != nil {
				return err
			}
			mode = strings.ToLower(mode)
			if mode != "merge" && mode != "replace" {
				return fmt.Errorf("--mode must be merge or replace")
			}
			rows, err := readSheet(args[0])
			if err != nil {
				return err
			}
			names := spreadsheet.ParseStaffNames(rows)
			if len(names) == 0 {
				return fmt.Errorf("no names found in %s", args[0])
			}

			ctx := cmd.Context()
			s, err := opts.open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()

			m := staffimport.NewMachine(staffimport.NewStoreApplier(s.Collections, s.History, s.Logger))
			if err := m.Load(kind, names); err != nil {
				return err
			}

			var outcome staffimport.Outcome
			if mode == "merge" {
				outcome, err = m.Merge(ctx, cliUser())
			} else {
				if err := m.RequestReplace(); err != nil {
					return err
				}
				if !yes {
					m.Cancel()
					return fmt.Errorf("replace deletes all %s staff and their assignments; rerun with --yes to confirm", kind)
				}
				outcome, err = m.ConfirmReplace(ctx, cliUser())
			}
			if err != nil {
				return err
			}
			if err := s.save(ctx); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d added, %d skipped, %d total\n", m.State(), len(outcome.Added), len(outcome.Skipped), outcome.Total)
			for _, name := range outcome.Skipped {
				fmt.Fprintf(out, "  skipped %s\n", name)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", string(models.StaffOperator), "operator or ticketSales")
	cmd.Flags().StringVarP(&mode, "mode", "m", "merge", "merge or replace")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm a replace")
	return cmd
}
