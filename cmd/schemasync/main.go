package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/schemasync/cmd/schemasync/commands"
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
	"git.home.luguber.info/inful/schemasync/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Must(cli,
		kong.Name("schemasync"),
		kong.Description("Generate the snapcraft.yaml JSON Schema from the published Snapcraft documentation."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	global := &commands.Global{Logger: slog.Default()}
	if err := kctx.Run(global, cli); err != nil {
		ferrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	}
}
