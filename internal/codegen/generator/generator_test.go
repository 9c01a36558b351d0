package generator

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/blake2b"

	"github.com/Alia5/cborgen/internal/codegen/meta"
)

const header = `
#include <stdint.h>
typedef struct { int32_t x; float y; } Point;
struct Line { Point a; Point b; bool dashed; void *opaque; };
`

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeHeader(t *testing.T, dir, src string) string {
	t.Helper()
	p := filepath.Join(dir, "shapes.h")
	require.NoError(t, os.WriteFile(p, []byte(src), 0o644))
	return p
}

func TestCompile(t *testing.T) {
	path := writeHeader(t, t.TempDir(), header)
	g := New(Options{Prelude: true}, discard())

	res, err := g.Compile(context.Background(), path)
	require.NoError(t, err)

	sum := blake2b.Sum256([]byte(header))
	assert.Equal(t, hex.EncodeToString(sum[:]), res.Metadata.Digest)
	assert.Equal(t, path, res.Metadata.Source)
	require.Len(t, res.Programs, 2)
	assert.Equal(t, "Point", res.Programs[0].Struct)
	assert.Equal(t, "Line", res.Programs[1].Struct)
	require.Len(t, res.Metadata.Diagnostics, 1)
	assert.Equal(t, "opaque", res.Metadata.Diagnostics[0].Member)
}

func TestCompileWithoutPrelude(t *testing.T) {
	path := writeHeader(t, t.TempDir(), header)
	res, err := New(Options{}, discard()).Compile(context.Background(), path)
	require.NoError(t, err)
	// int32_t is unknown without the prelude
	point := res.Metadata.Struct("Point")
	require.NotNil(t, point)
	assert.Nil(t, point.Member("x"))
}

func TestGenerateWritesFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeHeader(t, dir, header)
	out := filepath.Join(dir, "out")

	g := New(Options{OutputDir: out, Prelude: true, CMake: true, LibraryName: "shapes"}, discard())
	res, err := g.Generate(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, res.Files, 4)

	for _, name := range []string{"cbor_generated.h", "cbor_generated.c", "CMakeLists.txt", "README.md"} {
		assert.FileExists(t, filepath.Join(out, name))
	}
	h, err := os.ReadFile(filepath.Join(out, "cbor_generated.h"))
	require.NoError(t, err)
	assert.Contains(t, string(h), `#include "../shapes.h"`)
}

func TestGenerateCheckMode(t *testing.T) {
	dir := t.TempDir()
	path := writeHeader(t, dir, header)
	out := filepath.Join(dir, "out")

	check := New(Options{OutputDir: out, Prelude: true, Check: true}, discard())
	_, err := check.Generate(context.Background(), path)
	assert.ErrorIs(t, err, ErrDrift, "missing files are drift")
	assert.NoDirExists(t, out, "check mode never writes")

	_, err = New(Options{OutputDir: out, Prelude: true}, discard()).Generate(context.Background(), path)
	require.NoError(t, err)
	_, err = check.Generate(context.Background(), path)
	assert.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(header+"\nstruct Extra { int v; };\n"), 0o644))
	_, err = check.Generate(context.Background(), path)
	assert.ErrorIs(t, err, ErrDrift)
}

func TestConfigErrorWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := writeHeader(t, dir, "struct Bad { int a; float a; };")
	out := filepath.Join(dir, "out")

	_, err := New(Options{OutputDir: out}, discard()).Generate(context.Background(), path)
	var cerr *meta.ConfigError
	require.True(t, errors.As(err, &cerr), "want ConfigError, got %v", err)
	assert.Equal(t, meta.DuplicateMember, cerr.Kind)
	assert.NoDirExists(t, out)
}

func TestStrictNameCollision(t *testing.T) {
	src := "struct A { int v; };\ntypedef struct { float w; } A;\n"
	path := writeHeader(t, t.TempDir(), src)

	res, err := New(Options{}, discard()).Compile(context.Background(), path)
	require.NoError(t, err)
	require.NotEmpty(t, res.Metadata.Diagnostics)
	assert.Equal(t, meta.SeverityAmbiguity, res.Metadata.Diagnostics[0].Severity)

	_, err = New(Options{Strict: true}, discard()).Compile(context.Background(), path)
	var cerr *meta.ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, meta.NameCollision, cerr.Kind)
}

func TestUnsupportedLanguage(t *testing.T) {
	_, err := New(Options{Lang: "cobol"}, discard()).Generate(context.Background(), "missing.h")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language 'cobol'")
	assert.Equal(t, []string{"c"}, Languages())
}

func TestParseErrorCarriesPosition(t *testing.T) {
	path := writeHeader(t, t.TempDir(), "struct A {\n  int x\n};")
	_, err := New(Options{}, discard()).Compile(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
}

func TestCompileMissingHeader(t *testing.T) {
	_, err := New(Options{}, discard()).Compile(context.Background(), filepath.Join(t.TempDir(), "missing.h"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "read header")
}
