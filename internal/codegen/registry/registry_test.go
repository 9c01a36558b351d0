package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/cborgen/internal/codegen/ctype"
	"github.com/Alia5/cborgen/internal/codegen/meta"
	"github.com/Alia5/cborgen/internal/codegen/scanner"
)

func build(t *testing.T, src string, opts Options) (*Registry, []meta.Diagnostic, error) {
	t.Helper()
	f, err := scanner.ScanHeader(src)
	require.NoError(t, err)
	return Build(f, opts)
}

func TestBuildRegistersStructs(t *testing.T) {
	reg, diags, err := build(t, `
struct Point { int x; int y; };
typedef struct { struct Point origin; } Frame;
typedef struct { int id; } *Handle;
struct Outer {
    struct Inner { int v; } inner;
    union { struct InUnion { int w; } s; int i; } u;
};
typedef struct Point Point;
typedef unsigned int u32;
typedef u32 *u32p;
struct Later;
`, Options{})
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, []string{"Point", "Frame", "Handle", "Outer", "Inner", "InUnion"}, reg.StructNames())
	assert.Equal(t, []string{"Frame", "Handle", "Point", "u32", "u32p"}, reg.TypedefNames())

	frame, ok := reg.Struct("Frame")
	require.True(t, ok)
	assert.True(t, frame.Typedef)
	require.Len(t, frame.Members(), 1)
	assert.Equal(t, "origin", frame.Members()[0].Name)

	handle, ok := reg.Struct("Handle")
	require.True(t, ok)
	assert.True(t, handle.ViaPointer)
	assert.False(t, frame.ViaPointer)

	name, ok := reg.CanonicalName(frame.Node)
	require.True(t, ok)
	assert.Equal(t, "Frame", name)

	point, ok := reg.Struct("Point")
	require.True(t, ok)
	assert.False(t, point.Typedef)

	_, ok = reg.Struct("Later")
	assert.False(t, ok, "forward declarations are not definitions")

	target, ok := reg.Typedef("u32p")
	require.True(t, ok)
	assert.Equal(t, "u32 *", ctype.Format(target))
}

func TestBuildSharedAnonymousTypedef(t *testing.T) {
	reg, _, err := build(t, "typedef struct { int a; } Foo, *FooPtr;", Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo"}, reg.StructNames())

	target, ok := reg.Typedef("FooPtr")
	require.True(t, ok)
	name, ok := reg.CanonicalName(target.(*ctype.Ptr).Elem.(*ctype.Struct))
	require.True(t, ok)
	assert.Equal(t, "Foo", name)
}

func TestBuildTypedefRedeclaration(t *testing.T) {
	_, _, err := build(t, "typedef unsigned int u32;\ntypedef unsigned int u32;", Options{})
	require.NoError(t, err)

	_, _, err = build(t, "typedef unsigned int u32;\ntypedef int u32;", Options{})
	var cfg *meta.ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, meta.TypedefRedefined, cfg.Kind)
	assert.Equal(t, "u32", cfg.Struct)
}

func TestBuildStructRedefinition(t *testing.T) {
	_, _, err := build(t, "struct S;\nstruct S { int a; };\nstruct S { int b; };", Options{})
	var cfg *meta.ConfigError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, meta.StructRedefined, cfg.Kind)
	assert.Equal(t, "S", cfg.Struct)
	assert.Contains(t, cfg.Error(), "line 2")
}

func TestBuildNameCollision(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		member string
	}{
		{
			name:   "typedef aliases another tag",
			src:    "struct A { int a; };\nstruct B { int b; };\ntypedef struct B A;",
			member: "a",
		},
		{
			name:   "anonymous typedef shadowed by tag",
			src:    "typedef struct { int t; } A;\nstruct A { int a; };",
			member: "a",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, diags, err := build(t, tt.src, Options{})
			require.NoError(t, err)
			require.Len(t, diags, 1)
			assert.Equal(t, meta.SeverityAmbiguity, diags[0].Severity)
			assert.Equal(t, "A", diags[0].Struct)

			e, ok := reg.Struct("A")
			require.True(t, ok)
			assert.Equal(t, tt.member, e.Members()[0].Name, "struct tag must take priority")

			_, _, err = build(t, tt.src, Options{Strict: true})
			var cfg *meta.ConfigError
			require.ErrorAs(t, err, &cfg)
			assert.Equal(t, meta.NameCollision, cfg.Kind)
		})
	}
}

func TestBuildTypedefOfSameTagIsNotACollision(t *testing.T) {
	_, diags, err := build(t, "typedef struct Node Node;\nstruct Node { int v; Node *next; };", Options{Strict: true})
	require.NoError(t, err)
	assert.Empty(t, diags)
}
