package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/schemasync/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit  int    `short:"n" help:"Number of runs to show (0 for all)" default:"20"`
	Format string `short:"f" help:"Output format" enum:"table,json" default:"table"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfigOrDefault(root)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.List(context.Background(), h.Limit)
	if err != nil {
		return err
	}

	w := g.out()
	if h.Format == "json" {
		data, err := json.MarshalIndent(runs, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	if len(runs) == 0 {
		_, err = fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tOUTCOME\tDURATION\tPROPS\tPLUGINS\tBASES\tEXT\tIFACES\tSHA256\tERROR")
	for _, r := range runs {
		sum := r.SHA256
		if len(sum) > 12 {
			sum = sum[:12]
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.Outcome,
			r.Duration().Round(time.Millisecond),
			r.Properties, r.Plugins, r.Bases, r.Extensions, r.Interfaces,
			sum, r.Error)
	}
	return tw.Flush()
}
