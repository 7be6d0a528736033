package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/schemasync/internal/config"
	"git.home.luguber.info/inful/schemasync/internal/daemon"
	"git.home.luguber.info/inful/schemasync/internal/logfields"
	"git.home.luguber.info/inful/schemasync/internal/pipeline"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Interval string `short:"i" help:"Sync interval, overriding daemon.interval (e.g. 6h)"`
	Cron     string `help:"Crontab schedule, overriding daemon.cron"`
	NoWatch  bool   `name:"no-watch" help:"Do not reload the configuration file when it changes"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	d.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	svc, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dmn, err := daemon.New(root.Config, cfg, func(ctx context.Context, active *config.Config) error {
		res, err := svc.syncer(active).Run(ctx, pipeline.Options{})
		svc.flushMetrics(active)
		if err != nil {
			return err
		}
		slog.Info("Scheduled sync completed",
			logfields.Outcome(string(res.Outcome())),
			logfields.SHA256(res.SHA256))
		return nil
	})
	if err != nil {
		return err
	}

	dmn.WithOverrides(d.apply)

	slog.Info("Daemon started, waiting for shutdown signal...")
	return dmn.Run(ctx)
}

// apply overlays the command line flags on cfg, including reloaded ones.
func (d *DaemonCmd) apply(cfg *config.Config) {
	if d.Interval != "" {
		cfg.Daemon.Interval = d.Interval
	}
	if d.Cron != "" {
		cfg.Daemon.Cron = d.Cron
	}
	if d.NoWatch {
		cfg.Daemon.WatchConfig = false
	}
}
