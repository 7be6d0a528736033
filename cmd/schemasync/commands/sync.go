package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/schemasync/internal/pipeline"
)

// SyncCmd implements the 'sync' command.
type SyncCmd struct {
	Output string `short:"o" help:"Write the schema here instead of the configured output path" type:"path"`
	DryRun bool   `name:"dry-run" help:"Build and verify the schema without writing it"`
}

func (s *SyncCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfigOrDefault(root)
	if err != nil {
		return err
	}
	svc, err := openServices(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := svc.syncer(cfg).Run(ctx, pipeline.Options{DryRun: s.DryRun, OutputPath: s.Output})
	svc.flushMetrics(cfg)
	if err != nil {
		return err
	}
	printResult(g, res)
	return nil
}

func printResult(g *Global, res *pipeline.Result) {
	w := g.out()
	_, _ = fmt.Fprintf(w, "Properties: %d, plugins: %d, bases: %d, extensions: %d (modern %d, legacy %d), interfaces: %d\n",
		res.Properties, res.Plugins, res.Bases,
		len(res.Extensions.Names), res.Extensions.Modern, res.Extensions.Legacy,
		res.Interfaces)
	_, _ = fmt.Fprintf(w, "Definitions: %v\n", res.Definitions)
	switch {
	case res.DryRun && res.Changed:
		_, _ = fmt.Fprintf(w, "Dry run: %s would change (sha256 %s)\n", res.OutputPath, res.SHA256)
	case res.Changed:
		_, _ = fmt.Fprintf(w, "Wrote %s (sha256 %s)\n", res.OutputPath, res.SHA256)
	default:
		_, _ = fmt.Fprintf(w, "%s is up to date\n", res.OutputPath)
	}
}
