package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	toml "github.com/pelletier/go-toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"

	"github.com/Alia5/cborgen/internal/codegen/interp"
	"github.com/Alia5/cborgen/internal/log"
)

const header = `
#include <stdint.h>
typedef struct { int32_t x; float y; } Point;
struct Shape {
    char name[16];
    char *label;
    Point corners[4];
    struct Shape *next;
    uint64_t id;
    double area;
    bool filled;
    int (*fn)(void);
};
`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeHeader(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "shape.h")
	require.NoError(t, os.WriteFile(p, []byte(header), 0o644))
	return p
}

func TestVerifyRun(t *testing.T) {
	var raw bytes.Buffer
	v := &Verify{Input: Source{Header: writeHeader(t), Prelude: true}}
	require.NoError(t, v.Run(discard(), log.NewRaw(&raw)))
	assert.Contains(t, raw.String(), "encode Point:")
	assert.Contains(t, raw.String(), "encode Shape:")

	v.Struct = []string{"Missing"}
	assert.ErrorIs(t, v.Run(discard(), log.NewRaw(nil)), interp.ErrUnknownStruct)
}

func TestRoundTripSize(t *testing.T) {
	res, err := Source{Header: writeHeader(t), Prelude: true}.compile(context.Background(), discard())
	require.NoError(t, err)
	m, err := interp.New(res.Programs)
	require.NoError(t, err)

	n, err := RoundTrip(m, "Point", log.NewRaw(nil))
	require.NoError(t, err)
	// a2, 61 78 1a <4 bytes>, 61 79 fa <4 bytes>
	assert.Equal(t, 1+2+5+2+5, n)
}

func TestGenerateRun(t *testing.T) {
	out := filepath.Join(t.TempDir(), "gen")
	g := &Generate{
		Input:       Source{Header: writeHeader(t), Prelude: true},
		OutputDir:   out,
		Lang:        "c",
		CMake:       true,
		LibraryName: "shapes",
	}
	require.NoError(t, g.Run(discard()))
	assert.FileExists(t, filepath.Join(out, "cbor_generated.c"))
	assert.FileExists(t, filepath.Join(out, "CMakeLists.txt"))

	g.Check = true
	assert.NoError(t, g.Run(discard()))
}

func TestRenderReport(t *testing.T) {
	res, err := Source{Header: writeHeader(t), Prelude: true}.compile(context.Background(), discard())
	require.NoError(t, err)
	doc := report{Metadata: res.Metadata}

	t.Run("json", func(t *testing.T) {
		data, err := renderReport("json", report{Metadata: res.Metadata, Programs: res.Programs})
		require.NoError(t, err)
		var got struct {
			Model struct {
				Structs []struct {
					Name string `json:"name"`
				} `json:"structs"`
				Diagnostics []struct {
					Member string `json:"member"`
				} `json:"diagnostics"`
			} `json:"model"`
			Programs []struct {
				Encode []struct {
					Op string `json:"op"`
				} `json:"encode"`
			} `json:"programs"`
		}
		require.NoError(t, json.Unmarshal(data, &got))
		require.Len(t, got.Model.Structs, 2)
		assert.Equal(t, "Shape", got.Model.Structs[1].Name)
		require.Len(t, got.Model.Diagnostics, 1)
		assert.Equal(t, "fn", got.Model.Diagnostics[0].Member)
		assert.Equal(t, "null-guard", got.Programs[0].Encode[0].Op)
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := renderReport("yaml", doc)
		require.NoError(t, err)
		var got map[string]any
		require.NoError(t, yaml.Unmarshal(data, &got))
		assert.Contains(t, string(data), "category: string-fixed")
		assert.Contains(t, got, "model")
	})

	t.Run("toml", func(t *testing.T) {
		data, err := renderReport("toml", doc)
		require.NoError(t, err)
		tree, err := toml.LoadBytes(data)
		require.NoError(t, err)
		assert.True(t, tree.Has("model.digest"))
	})

	_, err = renderReport("xml", doc)
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	res, err := Source{Header: writeHeader(t), Prelude: true}.compile(context.Background(), discard())
	require.NoError(t, err)

	var buf bytes.Buffer
	printSummary(&buf, res.Metadata)
	assert.Contains(t, buf.String(), "2 struct(s), 9 member(s) encoded")
	assert.Contains(t, buf.String(), "skipped: Shape.fn")
}

func TestConfigInit(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			dest := filepath.Join(dir, "generate."+format)
			ci := &ConfigInit{Command: "generate", Format: format, Output: dest}
			require.NoError(t, ci.Run())
			assert.Error(t, ci.Run(), "refuses to overwrite")
			ci.Force = true
			assert.NoError(t, ci.Run())

			data, err := os.ReadFile(dest)
			require.NoError(t, err)
			assert.Contains(t, string(data), "output_dir")
			assert.Contains(t, string(data), "generated_cbor")
			assert.NotContains(t, string(data), "header")
		})
	}
}

func TestFlagDefaults(t *testing.T) {
	m := flagDefaults(reflect.TypeOf(Generate{}))
	assert.Equal(t, "./generated_cbor", m["output_dir"])
	assert.Equal(t, true, m["prelude"])
	assert.Equal(t, false, m["cmake"])
	assert.Equal(t, 0, m["jobs"])
	assert.Equal(t, "cbor_generated", m["library_name"])
	assert.NotContains(t, m, "header")

	m = flagDefaults(reflect.TypeOf(Inspect{}))
	assert.Equal(t, "yaml", m["format"])
	assert.Equal(t, false, m["no_color"])
	assert.NotContains(t, flagDefaults(reflect.TypeOf(Verify{})), "struct")
}

func TestConfigInitUnknownCommand(t *testing.T) {
	ci := &ConfigInit{Command: "serve", Format: "json", Output: filepath.Join(t.TempDir(), "x.json")}
	assert.Error(t, ci.Run())
}
