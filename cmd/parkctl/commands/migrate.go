package commands

import (
	"fmt"
	"strconv"

	"park-ops/internal/app"
	"park-ops/internal/config"
	"park-ops/internal/database/migrations"

	"github.com/spf13/cobra"
)

func newMigrateCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the Postgres snapshot schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRunner(cmd, opts, func(r *migrations.Runner) error {
				version, dirty, err := r.Status()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRunner(cmd, opts, thenStatus(cmd, (*migrations.Runner).RunMigrations))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRunner(cmd, opts, thenStatus(cmd, (*migrations.Runner).MigrateDown))
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "to <version>",
		Short: "Migrate up or down to a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			return withRunner(cmd, opts, thenStatus(cmd, func(r *migrations.Runner) error {
				return r.MigrateTo(uint(version))
			}))
		},
	})
	return cmd
}

func withRunner(cmd *cobra.Command, opts *globalOptions, fn func(*migrations.Runner) error) error {
	if opts.backupFile != "" {
		return fmt.Errorf("migrate works on the live database, not a backup file")
	}
	cfg := config.Load()
	log := opts.logger(cmd.ErrOrStderr())

	bunDB, err := app.ConnectPostgres(cmd.Context(), cfg.Database, log)
	if err != nil {
		return err
	}
	defer bunDB.Close()

	runner := migrations.NewRunner(bunDB, log)
	defer runner.Close()
	return fn(runner)
}

// thenStatus runs fn and prints the version it left the schema at.
func thenStatus(cmd *cobra.Command, fn func(*migrations.Runner) error) func(*migrations.Runner) error {
	return func(r *migrations.Runner) error {
		if err := fn(r); err != nil {
			return err
		}
		version, _, err := r.Status()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", version)
		return nil
	}
}
