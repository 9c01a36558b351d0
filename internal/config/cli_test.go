package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/cborgen/internal/cmd"
)

func parse(t *testing.T, args []string, opts ...kong.Option) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	opts = append(opts, kong.Vars{"version": "test"})
	p, err := kong.New(&cli, opts...)
	require.NoError(t, err)
	ctx, err := p.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func header(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "a.h")
	require.NoError(t, os.WriteFile(p, []byte("struct A { int v; };"), 0o644))
	return p
}

func TestParseGenerateDefaults(t *testing.T) {
	h := header(t)
	cli, ctx := parse(t, []string{"generate", h})

	assert.Equal(t, "generate <header>", ctx.Command())
	assert.Equal(t, h, cli.Generate.Input.Header)
	assert.True(t, cli.Generate.Input.Prelude)
	assert.Equal(t, "c", cli.Generate.Lang)
	assert.Equal(t, "cbor_generated", cli.Generate.LibraryName)
	assert.Equal(t, "auto", cli.Log.Format)
	assert.Equal(t, "info", cli.Log.Level)
}

func TestParseFlags(t *testing.T) {
	h := header(t)
	cli, _ := parse(t, []string{"--log.level=debug", "generate", h, "--no-prelude", "--cmake", "--strict", "--check"})
	assert.Equal(t, "debug", cli.Log.Level)
	assert.False(t, cli.Generate.Input.Prelude)
	assert.True(t, cli.Generate.CMake)
	assert.True(t, cli.Generate.Input.Strict)
	assert.True(t, cli.Generate.Check)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CBORGEN_OUTPUT_DIR", "/tmp/from-env")
	cli, _ := parse(t, []string{"generate", header(t)})
	assert.Equal(t, "/tmp/from-env", cli.Generate.OutputDir)
}

func TestConfigurationFile(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "cborgen.json")
	require.NoError(t, os.WriteFile(cfg, []byte(`{"log": {"level": "warn"}, "library_name": "from_json", "format": "toml"}`), 0o644))

	cli, _ := parse(t, []string{"generate", header(t)}, kong.Configuration(kong.JSON, cfg))
	assert.Equal(t, "warn", cli.Log.Level)
	assert.Equal(t, "from_json", cli.Generate.LibraryName)

	cli, _ = parse(t, []string{"inspect", header(t)}, kong.Configuration(kong.JSON, cfg))
	assert.Equal(t, "toml", cli.Inspect.Format)

	cli, _ = parse(t, []string{"--log.level=error", "generate", header(t), "--library-name=flag"},
		kong.Configuration(kong.JSON, cfg))
	assert.Equal(t, "error", cli.Log.Level)
	assert.Equal(t, "flag", cli.Generate.LibraryName)
}

func TestConfigInitTemplateLoads(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "generate.json")
	require.NoError(t, (&cmd.ConfigInit{Command: "generate", Format: "json", Output: dest}).Run())

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	var values map[string]any
	require.NoError(t, json.Unmarshal(data, &values))
	values["library_name"] = "from_template"
	values["output_dir"] = "/tmp/out"
	values["prelude"] = false
	data, err = json.Marshal(values)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dest, data, 0o644))

	cli, _ := parse(t, []string{"generate", header(t)}, kong.Configuration(kong.JSON, dest))
	assert.Equal(t, "from_template", cli.Generate.LibraryName)
	assert.Equal(t, "/tmp/out", cli.Generate.OutputDir)
	assert.False(t, cli.Generate.Input.Prelude)
}

func TestInvalidEnum(t *testing.T) {
	var cli CLI
	p, err := kong.New(&cli, kong.Vars{"version": "test"})
	require.NoError(t, err)
	_, err = p.Parse([]string{"inspect", header(t), "--format=xml"})
	assert.Error(t, err)
}
