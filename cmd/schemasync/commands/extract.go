package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/schemasync/internal/config"
	"git.home.luguber.info/inful/schemasync/internal/doctree"
	"git.home.luguber.info/inful/schemasync/internal/extract"
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
	"git.home.luguber.info/inful/schemasync/internal/schema"
	"git.home.luguber.info/inful/schemasync/internal/sources"
	"git.home.luguber.info/inful/schemasync/internal/synth"
)

// ExtractCmd implements the 'extract' command.
type ExtractCmd struct {
	Source string `arg:"" optional:"" help:"Reference document URL or file (HTML or Markdown). Defaults to the configured reference page."`
	Format string `short:"f" help:"Output format" enum:"json,yaml" default:"json"`
}

// extractedRecord is one property as printed by 'extract'.
type extractedRecord struct {
	Path     string         `json:"path"`
	Category string         `json:"category"`
	Name     string         `json:"name,omitempty"`
	Schema   *schema.Schema `json:"schema"`
}

func (e *ExtractCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfigOrDefault(root)
	if err != nil {
		return err
	}
	source := e.Source
	if source == "" {
		source = cfg.Sources.Reference
	}

	data, err := sources.NewFetcher(cfg.HTTP).Fetch(context.Background(), source)
	if err != nil {
		return err
	}
	records, err := extractRecords(cfg, source, data)
	if err != nil {
		return err
	}
	return writeRecords(g.out(), records, e.Format)
}

func extractRecords(cfg *config.Config, source string, data []byte) ([]extractedRecord, error) {
	doc, err := doctree.Parse(source, data)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryExtraction, "parse document").
			WithContext("source", source).
			Build()
	}

	props := extract.Extract(doc, cfg.Extraction.Options())
	records := make([]extractedRecord, 0, len(props))
	for _, path := range props.Paths() {
		rec := extractedRecord{Path: path, Schema: props[path].Schema()}
		category, name, ok := synth.Place(path, cfg.Extraction.Rules)
		if ok {
			rec.Category, rec.Name = string(category), name
		} else {
			rec.Category = string(synth.Skip)
		}
		records = append(records, rec)
	}
	return records, nil
}

// writeRecords prints records as indented JSON, or as YAML converted from
// that JSON so both formats carry the same field names.
func writeRecords(w io.Writer, records []extractedRecord, format string) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "encode records").Build()
	}
	if format != "yaml" {
		_, err := w.Write(buf.Bytes())
		return err
	}

	var generic any
	if err := yaml.Unmarshal(buf.Bytes(), &generic); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "convert records to YAML").Build()
	}
	ye := yaml.NewEncoder(w)
	ye.SetIndent(2)
	if err := ye.Encode(generic); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "encode YAML").Build()
	}
	return ye.Close()
}
