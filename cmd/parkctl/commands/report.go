package commands

import (
	"fmt"

	"park-ops/internal/config"
	"park-ops/internal/models"
	"park-ops/internal/reports"
	"park-ops/internal/sales"
	"park-ops/internal/utils"

	"github.com/spf13/cobra"
)

type reportOptions struct {
	format string
	out    string
}

func newReportCommand(opts *globalOptions) *cobra.Command {
	ro := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print or export reports",
	}
	cmd.PersistentFlags().StringVarP(&ro.format, "format", "f", formatTable, "output format: table, csv or xlsx")
	cmd.PersistentFlags().StringVarP(&ro.out, "out", "o", "", "output file (required for xlsx)")

	cmd.AddCommand(newAttendanceReportCommand(opts, ro))
	cmd.AddCommand(newExpertiseReportCommand(opts, ro))
	cmd.AddCommand(newGuestReportCommand(opts, ro))
	cmd.AddCommand(newSalesReportCommand(opts, ro))
	cmd.AddCommand(newStaffReportCommand(opts, ro))
	return cmd
}

// runReport opens a session, builds one table and writes it out.
func runReport(cmd *cobra.Command, opts *globalOptions, ro *reportOptions, build func(*reports.Service) (reports.Table, error)) error {
	ctx := cmd.Context()
	s, err := opts.open(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	svc := reports.NewService(s.Collections, sales.NewService(s.Collections, s.History, s.Logger))
	t, err := build(svc)
	if err != nil {
		return err
	}
	return writeReport(cmd.OutOrStdout(), t, ro.format, ro.out)
}

// resolveDate defaults an empty date to today in the park's time zone.
func resolveDate(date string) (string, error) {
	if date == "" {
		return utils.Today(config.Load().Location()), nil
	}
	return utils.ParseDate(date)
}

func newAttendanceReportCommand(opts *globalOptions, ro *reportOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "attendance <operator|ticketSales>",
		Short: "Attendance for one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseStaffKind(args[0])
			if err != nil {
				return err
			}
			day, err := resolveDate(date)
			if err != nil {
				return err
			}
			return runReport(cmd, opts, ro, func(svc *reports.Service) (reports.Table, error) {
				return svc.AttendanceTable(cmd.Context(), day, kind)
			})
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "day as YYYY-MM-DD (default today)")
	return cmd
}

func newExpertiseReportCommand(opts *globalOptions, ro *reportOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "expertise <operator|ticketSales>",
		Short: "Distinct rides per operator or counters per sales person",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseStaffKind(args[0])
			if err != nil {
				return err
			}
			return runReport(cmd, opts, ro, func(svc *reports.Service) (reports.Table, error) {
				if kind == models.StaffTicketSales {
					return svc.CounterFrequencyTable(cmd.Context())
				}
				return svc.RideExpertiseTable(cmd.Context())
			})
		},
	}
}

func newGuestReportCommand(opts *globalOptions, ro *reportOptions) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "guests",
		Short: "Guest counts per ride for one day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day, err := resolveDate(date)
			if err != nil {
				return err
			}
			return runReport(cmd, opts, ro, func(svc *reports.Service) (reports.Table, error) {
				return svc.GuestCountTable(cmd.Context(), day)
			})
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "day as YYYY-MM-DD (default today)")
	return cmd
}

func newSalesReportCommand(opts *globalOptions, ro *reportOptions) *cobra.Command {
	var from, to, table string
	cmd := &cobra.Command{
		Use:   "sales",
		Short: "Counter and package sales over a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := resolveDate(from)
			if err != nil {
				return err
			}
			end, err := resolveDate(to)
			if err != nil {
				return err
			}
			if table != "counters" && table != "personnel" {
				return fmt.Errorf("--table must be counters or personnel")
			}
			return runReport(cmd, opts, ro, func(svc *reports.Service) (reports.Table, error) {
				counters, personnel, err := svc.SalesTables(cmd.Context(), start, end)
				if table == "personnel" {
					return personnel, err
				}
				return counters, err
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first day (default today)")
	cmd.Flags().StringVar(&to, "to", "", "last day (default today)")
	cmd.Flags().StringVar(&table, "table", "counters", "counters or personnel")
	return cmd
}

func newStaffReportCommand(opts *globalOptions, ro *reportOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "staff <operator|ticketSales>",
		Short: "Export a staff list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := models.ParseStaffKind(args[0])
			if err != nil {
				return err
			}
			return runReport(cmd, opts, ro, func(svc *reports.Service) (reports.Table, error) {
				return svc.StaffTable(cmd.Context(), kind)
			})
		},
	}
}
