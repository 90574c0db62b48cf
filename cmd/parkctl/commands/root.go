// Package commands holds the parkctl subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"park-ops/internal/app"
	"park-ops/internal/backup"
	"park-ops/internal/config"
	"park-ops/internal/history"
	"park-ops/internal/logger"
	"park-ops/internal/store"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	backupFile string
	verbose    bool
}

// NewRootCommand builds the parkctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "parkctl",
		Short: "Park operations admin tool",
		Long: `parkctl works on the park operations records.

With --backup it loads a backup file into memory and works offline; commands
that change data write the result back to that file. Without it, it connects
to the store configured by STORE_DRIVER.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.backupFile, "backup", "b", "", "work on a backup file instead of the live store")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(newBackupCommand(opts))
	root.AddCommand(newReportCommand(opts))
	root.AddCommand(newImportCommand(opts))
	root.AddCommand(newMigrateCommand(opts))
	root.AddCommand(newAuditCommand(opts))
	return root
}

func (o *globalOptions) logger(w io.Writer) *logger.Logger {
	if o.verbose {
		return logger.NewConsole(w, logger.DEBUG)
	}
	return logger.NewConsole(w, logger.WARN)
}

// session is an opened store, either a backup file held in memory or the
// configured backend.
type session struct {
	Store       store.SnapshotStore
	Collections *store.Collections
	History     *history.Log
	Logger      *logger.Logger

	backupFile string
	backend    *app.Backend
}

func (o *globalOptions) open(ctx context.Context, stderr io.Writer) (*session, error) {
	log := o.logger(stderr)
	s := &session{Logger: log, backupFile: o.backupFile}

	if o.backupFile != "" {
		mem := store.NewMemoryStore()
		data, err := os.ReadFile(o.backupFile)
		if err != nil {
			return nil, err
		}
		if _, err := backup.Import(ctx, mem, data); err != nil {
			return nil, fmt.Errorf("load %s: %w", o.backupFile, err)
		}
		s.Store = mem
	} else {
		cfg := config.Load()
		backend, err := app.Connect(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		s.Store = backend.Store
		s.backend = backend
	}

	s.Collections = store.NewCollections(s.Store, log, 0)
	s.History = history.NewLog(s.Collections, nil, log)
	return s, nil
}

// save writes an offline session back to its backup file. Live sessions
// are already saved.
func (s *session) save(ctx context.Context) error {
	if s.backupFile == "" {
		return nil
	}
	f, err := backup.Export(ctx, s.Store)
	if err != nil {
		return err
	}
	data, err := backup.Marshal(f)
	if err != nil {
		return err
	}
	return writeFileAtomic(s.backupFile, data)
}

func (s *session) close() {
	if s.backend != nil {
		s.backend.Close()
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// cliUser is the name recorded in history for changes made from the CLI.
func cliUser() string {
	if u := os.Getenv("USER"); u != "" {
		return "parkctl:" + u
	}
	return "parkctl"
}
