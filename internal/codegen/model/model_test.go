package model

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/cborgen/internal/codegen/meta"
	"github.com/Alia5/cborgen/internal/codegen/registry"
	"github.com/Alia5/cborgen/internal/codegen/scanner"
)

func buildModel(t *testing.T, src string, opts Options) (*meta.Metadata, error) {
	t.Helper()
	f, err := scanner.ScanHeader(src)
	require.NoError(t, err)
	f, err = scanner.WithPrelude(f)
	require.NoError(t, err)
	reg, _, err := registry.Build(f, registry.Options{})
	require.NoError(t, err)
	return Build(context.Background(), reg, opts)
}

func TestBuildPointLine(t *testing.T) {
	md, err := buildModel(t, `
typedef struct { int x; float y; } Point;
struct Line { Point a; Point b; bool dashed; };
`, Options{})
	require.NoError(t, err)
	assert.Empty(t, md.Diagnostics)

	want := []meta.StructDescriptor{
		{
			Name:  "Point",
			CName: "Point",
			Members: []meta.MemberDescriptor{
				{Name: "x", Type: meta.Primitive(meta.KindSignedInt, "int", 32)},
				{Name: "y", Type: meta.Primitive(meta.KindFloat32, "float", 32)},
			},
		},
		{
			Name:  "Line",
			CName: "struct Line",
			Members: []meta.MemberDescriptor{
				{Name: "a", Type: meta.StructInline("Point")},
				{Name: "b", Type: meta.StructInline("Point")},
				{Name: "dashed", Type: meta.Primitive(meta.KindBool, "bool", 8)},
			},
		},
	}
	if diff := cmp.Diff(want, md.Structs); diff != "" {
		t.Errorf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildSkipsUnsupportedMembers(t *testing.T) {
	md, err := buildModel(t, `
struct Callback {
    int before;
    void (*fn)(int);
    unsigned flags : 4;
    union { int i; float f; };
    int after;
};
`, Options{})
	require.NoError(t, err)

	sd := md.Struct("Callback")
	require.NotNil(t, sd)
	require.Len(t, sd.Members, 2)
	assert.Equal(t, "before", sd.Members[0].Name)
	assert.Equal(t, "after", sd.Members[1].Name)

	want := []meta.Diagnostic{
		{Severity: meta.SeveritySkipped, Struct: "Callback", Member: "fn", Reason: "function pointer"},
		{Severity: meta.SeveritySkipped, Struct: "Callback", Member: "flags", Reason: "bit-field"},
		{Severity: meta.SeveritySkipped, Struct: "Callback", Reason: "unnamed member"},
	}
	assert.Equal(t, want, md.Diagnostics)
}

func TestBuildDuplicateMember(t *testing.T) {
	_, err := buildModel(t, "struct D {\n int a;\n float a;\n};", Options{})
	var cfg *meta.ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, meta.DuplicateMember, cfg.Kind)
	assert.Equal(t, "D", cfg.Struct)
	assert.Equal(t, "a", cfg.Member)
}

func TestBuildUndefinedStructCarriesMember(t *testing.T) {
	_, err := buildModel(t, "struct Ok { int a; };\nstruct Bad { struct Nowhere *n; };", Options{})
	var cfg *meta.ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, meta.UndefinedStruct, cfg.Kind)
	assert.Equal(t, "Bad", cfg.Struct)
	assert.Equal(t, "n", cfg.Member)
}

func TestBuildOrderIsStableUnderConcurrency(t *testing.T) {
	src := `
struct A { int a; void *skip_a; };
struct B { struct A a; void *skip_b; };
struct C { struct B b; void *skip_c; };
struct D { struct C c; void *skip_d; };
`
	serial, err := buildModel(t, src, Options{Concurrency: 1})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		parallel, err := buildModel(t, src, Options{Concurrency: 4})
		require.NoError(t, err)
		if diff := cmp.Diff(serial, parallel); diff != "" {
			t.Fatalf("parallel build differs (-serial +parallel):\n%s", diff)
		}
	}

	var members []string
	for _, d := range serial.Diagnostics {
		members = append(members, d.Member)
	}
	assert.Equal(t, []string{"skip_a", "skip_b", "skip_c", "skip_d"}, members)
}

func TestBuildHonoursCancellation(t *testing.T) {
	f, err := scanner.ScanHeader("struct A { int a; };")
	require.NoError(t, err)
	reg, _, err := registry.Build(f, registry.Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Build(ctx, reg, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
