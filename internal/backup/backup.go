// Package backup exports periodic copies of the store's state to disk.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Its-donkey/buildfront/internal/store"
	"github.com/Its-donkey/buildfront/logging"
)

const filePrefix = "buildfront-"

// SnapshotSource is the part of the store a backup needs.
type SnapshotSource interface {
	Snapshot() store.Snapshot
}

// Options configures a Scheduler.
type Options struct {
	Dir    string
	Retain int
	Logger *logging.Logger
	Now    func() time.Time
}

// Scheduler writes snapshot exports on a cron schedule.
type Scheduler struct {
	source SnapshotSource
	dir    string
	retain int
	logger *logging.Logger
	now    func() time.Time
	cron   *cron.Cron
}

// New returns a scheduler exporting source into opts.Dir.
func New(source SnapshotSource, opts Options) (*Scheduler, error) {
	dir := strings.TrimSpace(opts.Dir)
	if dir == "" {
		return nil, errors.New("backup: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: create %s: %w", dir, err)
	}
	s := &Scheduler{
		source: source,
		dir:    dir,
		retain: opts.Retain,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if s.logger == nil {
		s.logger = logging.New("backup", logging.FATAL+1)
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Start runs exports on spec, a six-field cron expression with seconds or a
// descriptor such as "@daily".
func (s *Scheduler) Start(spec string) error {
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, func() {
		if _, err := s.RunOnce(); err != nil {
			s.logger.Error("backup", "scheduled backup failed", err, nil)
		}
	}); err != nil {
		return fmt.Errorf("backup: schedule %q: %w", spec, err)
	}
	s.cron = c
	c.Start()
	s.logger.Info("backup", "backup scheduler started", map[string]any{"schedule": spec, "dir": s.dir})
	return nil
}

// Stop halts the schedule and waits for a running export to finish.
func (s *Scheduler) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// RunOnce writes one export and prunes old ones, returning the file written.
func (s *Scheduler) RunOnce() (string, error) {
	data, err := store.EncodeSnapshot(s.source.Snapshot())
	if err != nil {
		return "", err
	}

	name := filePrefix + s.now().UTC().Format("20060102-150405.000") + ".json"
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("backup: write %s: %w", name, err)
	}

	removed, err := s.prune()
	if err != nil {
		return path, err
	}
	s.logger.Info("backup", "wrote backup", map[string]any{"file": name, "bytes": len(data), "pruned": removed})
	return path, nil
}

// prune keeps the newest retain exports. Names sort chronologically.
func (s *Scheduler) prune() (int, error) {
	if s.retain <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("backup: list %s: %w", s.dir, err)
	}
	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	if len(names) <= s.retain {
		return 0, nil
	}
	sort.Strings(names)
	stale := names[:len(names)-s.retain]
	for _, name := range stale {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return 0, fmt.Errorf("backup: remove %s: %w", name, err)
		}
	}
	return len(stale), nil
}
