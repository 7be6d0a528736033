package commands

import (
	"fmt"

	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
	"git.home.luguber.info/inful/schemasync/internal/pipeline"
)

// ValidateCmd implements the 'validate' command.
type ValidateCmd struct {
	Schema string   `short:"s" help:"Schema file. Defaults to the configured output path." type:"path"`
	Files  []string `arg:"" help:"snapcraft.yaml files to validate" type:"existingfile"`
}

func (v *ValidateCmd) Run(g *Global, root *CLI) error {
	schemaPath := v.Schema
	if schemaPath == "" {
		cfg, err := loadConfigOrDefault(root)
		if err != nil {
			return err
		}
		schemaPath = cfg.Output.Path
	}

	data, err := readFile(schemaPath, "schema")
	if err != nil {
		return err
	}
	resolved, err := pipeline.Compile(data)
	if err != nil {
		return err
	}

	w := g.out()
	failed := 0
	for _, file := range v.Files {
		doc, err := readFile(file, "document")
		if err == nil {
			err = pipeline.ValidateDocument(resolved, doc)
		}
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(w, "FAIL %s: %v\n", file, err)
			continue
		}
		_, _ = fmt.Fprintf(w, "ok   %s\n", file)
	}

	if failed > 0 {
		return ferrors.ValidationError(fmt.Sprintf("%d of %d documents failed validation", failed, len(v.Files))).
			WithContext("schema", schemaPath).
			Build()
	}
	return nil
}
