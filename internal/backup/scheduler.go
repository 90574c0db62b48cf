package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"park-ops/internal/logger"
	"park-ops/internal/store"

	"github.com/robfig/cron/v3"
)

const filePrefix = "parkops-backup-"

// Scheduler writes a timestamped backup into Dir on a cron schedule and keeps
// the newest Keep files.
type Scheduler struct {
	Store  store.SnapshotStore
	Dir    string
	Keep   int
	Logger *logger.Logger

	cron *cron.Cron
	now  func() time.Time
}

func NewScheduler(s store.SnapshotStore, dir string, keep int, log *logger.Logger) *Scheduler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Scheduler{
		Store:  s,
		Dir:    dir,
		Keep:   keep,
		Logger: log,
		cron:   cron.New(),
		now:    time.Now,
	}
}

// Start schedules backups with a standard five-field cron spec.
func (s *Scheduler) Start(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.Logger.Error("BACKUP", fmt.Sprintf("Scheduled backup failed: %v", err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.Logger.Info("BACKUP", fmt.Sprintf("Backups scheduled (%s) into %s", spec, s.Dir))
	return nil
}

// Stop waits for a running backup to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce writes one backup file and prunes old ones. It returns the path written.
func (s *Scheduler) RunOnce(ctx context.Context) (string, error) {
	f, err := Export(ctx, s.Store)
	if err != nil {
		return "", err
	}
	data, err := Marshal(f)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", err
	}
	name := filepath.Join(s.Dir, filePrefix+s.now().UTC().Format("20060102-150405")+".json")
	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, name); err != nil {
		return "", err
	}
	s.Logger.Info("BACKUP", fmt.Sprintf("Backup written to %s", name))

	if err := s.prune(); err != nil {
		s.Logger.Warn("BACKUP", fmt.Sprintf("Failed to prune old backups: %v", err))
	}
	return name, nil
}

func (s *Scheduler) prune() error {
	if s.Keep <= 0 {
		return nil
	}
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), filePrefix) && strings.HasSuffix(e.Name(), ".json") {
			files = append(files, e.Name())
		}
	}
	if len(files) <= s.Keep {
		return nil
	}
	sort.Strings(files)
	for _, name := range files[:len(files)-s.Keep] {
		if err := os.Remove(filepath.Join(s.Dir, name)); err != nil {
			return err
		}
	}
	return nil
}

// SetClock replaces the clock used to name backup files.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}
