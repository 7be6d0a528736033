// Package daemon keeps the schema in sync on a schedule and reloads its
// configuration when the file changes.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/schemasync/internal/config"
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
	"git.home.luguber.info/inful/schemasync/internal/logfields"
)

// SyncFunc performs one sync with the given configuration.
type SyncFunc func(ctx context.Context, cfg *config.Config) error

const jobName = "schema-sync"

// Status is a snapshot of the daemon's activity.
type Status struct {
	Runs      int
	Failures  int
	Skipped   int
	LastRun   time.Time
	LastError string
	NextRun   time.Time
	Running   bool
}

// Daemon runs SyncFunc periodically. At most one sync runs at a time.
type Daemon struct {
	configPath string
	syncFn     SyncFunc
	debounce   time.Duration
	overrides  func(*config.Config)

	mu        sync.RWMutex
	cfg       *config.Config
	scheduler *Scheduler
	jobID     string
	ctx       context.Context
	status    Status

	// running serializes syncs started by the scheduler and by Trigger.
	running sync.Mutex
}

// New creates a daemon. configPath may be empty, which disables watching.
func New(configPath string, cfg *config.Config, fn SyncFunc) (*Daemon, error) {
	if cfg == nil {
		return nil, ferrors.ConfigError("config required").Build()
	}
	if fn == nil {
		return nil, ferrors.InternalError("sync function required").Build()
	}
	return &Daemon{
		configPath: configPath,
		cfg:        cfg,
		syncFn:     fn,
		debounce:   DefaultDebounce,
		ctx:        context.Background(),
	}, nil
}

// WithDebounce sets how long config file changes settle before reloading.
func (d *Daemon) WithDebounce(debounce time.Duration) *Daemon {
	d.debounce = debounce
	return d
}

// WithOverrides sets a function applied to every reloaded configuration,
// so command line settings survive a reload.
func (d *Daemon) WithOverrides(fn func(*config.Config)) *Daemon {
	d.overrides = fn
	return d
}

// GetConfig returns the active configuration.
func (d *Daemon) GetConfig() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Status returns a snapshot of the daemon state.
func (d *Daemon) Status() Status {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st := d.status
	if d.scheduler != nil && d.jobID != "" {
		if next, err := d.scheduler.NextRun(d.jobID); err == nil {
			st.NextRun = next
		}
	}
	return st
}

// Run schedules syncs and blocks until ctx is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	scheduler, err := NewScheduler()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "create scheduler").Build()
	}

	d.mu.Lock()
	d.ctx = ctx
	d.scheduler = scheduler
	cfg := d.cfg
	d.mu.Unlock()

	if err := d.schedule(cfg, cfg.Daemon.RunOnStart); err != nil {
		_ = scheduler.Stop(ctx)
		return err
	}
	scheduler.Start(ctx)

	var watcher *ConfigWatcher
	if cfg.Daemon.WatchConfig && d.configPath != "" {
		watcher, err = NewConfigWatcher(d.configPath, d.ReloadConfig, d.debounce)
		if err == nil {
			err = watcher.Start(ctx)
		}
		if err != nil {
			_ = scheduler.Stop(ctx)
			return ferrors.WrapError(err, ferrors.CategoryRuntime, "start config watcher").Build()
		}
	}

	<-ctx.Done()
	slog.Info("Daemon shutting down")

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			slog.Warn("Error closing config watcher", logfields.Error(err))
		}
	}
	// Shutdown waits for an in-flight sync, which sees the canceled context.
	if err := scheduler.Stop(context.WithoutCancel(ctx)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "stop scheduler").Build()
	}
	return nil
}

// schedule replaces the sync job according to cfg.
func (d *Daemon) schedule(cfg *config.Config, immediately bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.jobID != "" {
		if err := d.scheduler.Remove(d.jobID); err != nil {
			slog.Warn("Failed to remove previous sync job", logfields.Error(err))
		}
		d.jobID = ""
	}

	var (
		id  string
		err error
	)
	if cfg.Daemon.Cron != "" {
		id, err = d.scheduler.ScheduleCron(jobName, cfg.Daemon.Cron, d.tick, immediately)
	} else {
		id, err = d.scheduler.ScheduleEvery(jobName, cfg.Daemon.IntervalDuration(), d.tick, immediately)
	}
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "schedule sync").
			WithContext("interval", cfg.Daemon.Interval).
			WithContext("cron", cfg.Daemon.Cron).
			Build()
	}
	d.jobID = id
	slog.Info("Scheduled schema sync",
		slog.String("interval", cfg.Daemon.Interval),
		slog.String("cron", cfg.Daemon.Cron))
	return nil
}

// tick is the scheduled task.
func (d *Daemon) tick() {
	d.mu.RLock()
	ctx := d.ctx
	d.mu.RUnlock()
	_ = d.Trigger(ctx)
}

// ErrSyncInProgress is returned by Trigger while another sync runs.
var ErrSyncInProgress = errors.New("sync already in progress")

// Trigger runs one sync now with the active configuration unless one is
// already running.
func (d *Daemon) Trigger(ctx context.Context) error {
	if !d.running.TryLock() {
		d.mu.Lock()
		d.status.Skipped++
		d.mu.Unlock()
		slog.Info("Skipping sync, previous run still in progress")
		return ErrSyncInProgress
	}
	defer d.running.Unlock()

	d.mu.Lock()
	d.status.Running = true
	cfg := d.cfg
	d.mu.Unlock()

	start := time.Now()
	err := d.syncFn(ctx, cfg)

	d.mu.Lock()
	d.status.Running = false
	d.status.Runs++
	d.status.LastRun = start
	d.status.LastError = ""
	if err != nil {
		d.status.Failures++
		d.status.LastError = err.Error()
	}
	d.mu.Unlock()

	if err != nil {
		slog.Error("Scheduled sync failed", logfields.Error(err))
	}
	return err
}

// ReloadConfig swaps in cfg and reschedules when the schedule changed.
func (d *Daemon) ReloadConfig(_ context.Context, cfg *config.Config) error {
	if cfg == nil {
		return ferrors.ConfigError("config required").Build()
	}
	if d.overrides != nil {
		d.overrides(cfg)
	}

	d.mu.Lock()
	current := d.cfg
	if cfg.Version != current.Version {
		d.mu.Unlock()
		return ferrors.ConfigError(fmt.Sprintf("configuration version change %q -> %q requires a restart", current.Version, cfg.Version)).Build()
	}
	d.cfg = cfg
	hasScheduler := d.scheduler != nil
	d.mu.Unlock()

	if cfg.Metrics != current.Metrics || cfg.History != current.History {
		slog.Warn("Metrics and history settings take effect after a restart")
	}

	if hasScheduler && (cfg.Daemon.Interval != current.Daemon.Interval || cfg.Daemon.Cron != current.Daemon.Cron) {
		return d.schedule(cfg, false)
	}
	return nil
}
