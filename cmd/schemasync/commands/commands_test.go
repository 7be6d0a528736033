package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/schemasync/internal/config"
	ferrors "git.home.luguber.info/inful/schemasync/internal/foundation/errors"
)

const fixtures = "../../../internal/pipeline/testdata"

func fixture(t *testing.T, name string) string {
	t.Helper()
	p, err := filepath.Abs(filepath.Join(fixtures, name))
	require.NoError(t, err)
	return p
}

// writeConfig writes a configuration reading every source from the fixtures.
func writeConfig(t *testing.T) (string, *config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Sources = config.SourcesConfig{
		Reference:             fixture(t, "reference.html"),
		Plugins:               fixture(t, "plugins.html"),
		Bases:                 fixture(t, "bases.html"),
		Interfaces:            fixture(t, "interfaces.html"),
		ExtensionRegistry:     fixture(t, "registry.py"),
		ExtensionLegacySchema: fixture(t, "legacy.json"),
	}
	cfg.Thresholds = config.ThresholdsConfig{Properties: 10, Plugins: 4, Bases: 4, Extensions: 3, Interfaces: 5}
	cfg.Output.Path = filepath.Join(dir, "snapcraft.json")
	cfg.History = config.HistoryConfig{Enabled: true, Path: filepath.Join(dir, "history.db")}
	cfg.Metrics = config.MetricsConfig{Enabled: true, Namespace: "schemasync", TextfilePath: filepath.Join(dir, "metrics.prom")}

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "schemasync.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path, cfg
}

// run parses args and executes the selected command, returning its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("schemasync"), kong.Exit(func(int) {}))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = kctx.Run(&Global{Stdout: &out}, &cli)
	return out.String(), err
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemasync.yaml")

	out, err := run(t, "--config", path, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "initialized successfully")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.History.Enabled)

	_, err = run(t, "--config", path, "init")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	_, err = run(t, "--config", path, "init", "--force")
	require.NoError(t, err)
}

func TestSyncValidateAndHistory(t *testing.T) {
	cfgPath, cfg := writeConfig(t)

	out, err := run(t, "-c", cfgPath, "sync", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run")
	assert.NoFileExists(t, cfg.Output.Path)

	out, err = run(t, "-c", cfgPath, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+cfg.Output.Path)
	assert.Contains(t, out, "Definitions: [App Part]")
	assert.FileExists(t, cfg.Output.Path)
	assert.FileExists(t, cfg.Metrics.TextfilePath)

	out, err = run(t, "-c", cfgPath, "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "is up to date")

	out, err = run(t, "-c", cfgPath, "validate", fixture(t, "snapcraft.yaml"))
	require.NoError(t, err)
	assert.Contains(t, out, "ok ")

	out, err = run(t, "-c", cfgPath, "validate", "--schema", cfg.Output.Path,
		fixture(t, "snapcraft.yaml"), fixture(t, "snapcraft_unknown_plugin.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))
	assert.Contains(t, err.Error(), "1 of 2 documents failed validation")
	assert.Contains(t, out, "FAIL "+fixture(t, "snapcraft_unknown_plugin.yaml"))

	out, err = run(t, "-c", cfgPath, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "OUTCOME")
	assert.Contains(t, out, "dry_run")
	assert.Contains(t, out, "written")
	assert.Contains(t, out, "unchanged")

	out, err = run(t, "-c", cfgPath, "history", "-n", "1", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"outcome": "unchanged"`)
	assert.NotContains(t, out, `"outcome": "written"`)
}

func TestSyncFailureIsClassified(t *testing.T) {
	cfgPath, cfg := writeConfig(t)
	cfg.Thresholds.Plugins = 15
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cfgPath, data, 0o600))

	_, err = run(t, "-c", cfgPath, "sync")
	require.Error(t, err)
	assert.Equal(t, 2, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.NoFileExists(t, cfg.Output.Path)
}

func TestExtractCommand(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	out, err := run(t, "-c", cfgPath, "extract")
	require.NoError(t, err)
	assert.Contains(t, out, `"path": "apps.<app-name>.daemon"`)
	assert.Contains(t, out, `"category": "apps"`)

	out, err = run(t, "-c", cfgPath, "extract", fixture(t, "reference.html"), "--format", "yaml")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &records))
	require.Len(t, records, 13)
	byPath := map[string]map[string]any{}
	for _, r := range records {
		byPath[r["path"].(string)] = r
	}
	grade := byPath["grade"]
	require.NotNil(t, grade)
	assert.Equal(t, "top-level", grade["category"])
	assert.Equal(t, []any{"stable", "devel"}, grade["schema"].(map[string]any)["enum"])

	plugin := byPath["parts.<part-name>.plugin"]
	require.NotNil(t, plugin)
	assert.Equal(t, "plugin", plugin["name"])
}

func TestExtractMarkdownSource(t *testing.T) {
	cfgPath, _ := writeConfig(t)
	md := filepath.Join(t.TempDir(), "reference.md")
	require.NoError(t, os.WriteFile(md, []byte("## summary\n\n**Type**\n\n`str`\n\n**Description**\n\nShort summary.\n"), 0o600))

	out, err := run(t, "-c", cfgPath, "extract", md)
	require.NoError(t, err)
	assert.Contains(t, out, `"path": "summary"`)
	assert.Contains(t, out, `"description": "Short summary."`)
}

func TestDaemonFlagsOverlayConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Daemon.WatchConfig = true

	(&DaemonCmd{}).apply(cfg)
	assert.Equal(t, "24h", cfg.Daemon.Interval)
	assert.True(t, cfg.Daemon.WatchConfig)

	(&DaemonCmd{Interval: "6h", Cron: "0 3 * * *", NoWatch: true}).apply(cfg)
	assert.Equal(t, "6h", cfg.Daemon.Interval)
	assert.Equal(t, "0 3 * * *", cfg.Daemon.Cron)
	assert.False(t, cfg.Daemon.WatchConfig)
}

func TestDaemonRejectsInvalidInterval(t *testing.T) {
	cfgPath, _ := writeConfig(t)

	_, err := run(t, "-c", cfgPath, "daemon", "--interval", "soon")
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
	assert.Contains(t, err.Error(), "daemon.interval")
}
