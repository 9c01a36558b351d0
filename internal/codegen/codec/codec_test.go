package codec

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/Alia5/cborgen/internal/codegen/meta"
)

var line = meta.StructDescriptor{
	Name:  "Line",
	CName: "struct Line",
	Members: []meta.MemberDescriptor{
		{Name: "a", Type: meta.StructInline("Point")},
		{Name: "next", Type: meta.StructPointer("Line")},
		{Name: "label", Type: meta.StringPointer()},
		{Name: "samples", Type: meta.PrimitiveArray(meta.KindFloat32, "float", 32, 3)},
		{Name: "marks", Type: meta.StructArray("Point", 2)},
	},
}

func TestGenerateEncode(t *testing.T) {
	p := Generate(&line)
	assert.Equal(t, "Line", p.Struct)
	assert.Equal(t, "struct Line", p.CName)

	f32 := meta.Primitive(meta.KindFloat32, "float", 32)
	want := []Op{
		{Code: OpNullGuard},
		{Code: OpMapOpen, Count: 5},
		{Code: OpKey, Member: "a", Type: meta.StructInline("Point")},
		{Code: OpNestedCall, Member: "a", Type: meta.StructInline("Point")},
		{Code: OpKey, Member: "next", Type: meta.StructPointer("Line")},
		{Code: OpNullCheck, Member: "next", Type: meta.StructPointer("Line")},
		{Code: OpNestedCall, Member: "next", Type: meta.StructPointer("Line")},
		{Code: OpKey, Member: "label", Type: meta.StringPointer()},
		{Code: OpNullCheck, Member: "label", Type: meta.StringPointer()},
		{Code: OpString, Member: "label", Type: meta.StringPointer()},
		{Code: OpKey, Member: "samples", Type: line.Members[3].Type},
		{Code: OpArrayOpen, Member: "samples", Type: line.Members[3].Type, Count: 3},
		{Code: OpPrimitive, Member: "samples", Type: f32},
		{Code: OpArrayClose, Member: "samples", Type: line.Members[3].Type},
		{Code: OpKey, Member: "marks", Type: line.Members[4].Type},
		{Code: OpArrayOpen, Member: "marks", Type: line.Members[4].Type, Count: 2},
		{Code: OpNestedCall, Member: "marks", Type: meta.StructInline("Point")},
		{Code: OpArrayClose, Member: "marks", Type: line.Members[4].Type},
		{Code: OpMapClose},
	}
	if diff := cmp.Diff(want, p.Encode); diff != "" {
		t.Errorf("encode ops mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateDecodeCases(t *testing.T) {
	p := Generate(&line)

	assert.Equal(t, OpNullGuard, p.Decode[0].Code)
	assert.Equal(t, Op{Code: OpMapOpen, Count: 5}, p.Decode[1])
	assert.Equal(t, OpSkipUnknown, p.Decode[len(p.Decode)-2].Code)
	assert.Equal(t, OpMapClose, p.Decode[len(p.Decode)-1].Code)

	names, cases := Cases(p.Decode)
	assert.Equal(t, []string{"a", "next", "label", "samples", "marks"}, names)

	codes := func(ops []Op) []OpCode {
		out := make([]OpCode, len(ops))
		for i, op := range ops {
			out[i] = op.Code
		}
		return out
	}
	assert.Equal(t, []OpCode{OpNestedCall}, codes(cases["a"]))
	assert.Equal(t, []OpCode{OpNullCheck, OpNestedCall}, codes(cases["next"]))
	assert.Equal(t, []OpCode{OpNullCheck, OpString}, codes(cases["label"]))
	assert.Equal(t, []OpCode{OpArrayOpen, OpPrimitive, OpArrayClose}, codes(cases["samples"]))
	assert.Equal(t, []OpCode{OpArrayOpen, OpNestedCall, OpArrayClose}, codes(cases["marks"]))
}

func TestEmptyStruct(t *testing.T) {
	p := Generate(&meta.StructDescriptor{Name: "Empty", CName: "struct Empty"})
	assert.Equal(t, []Op{{Code: OpNullGuard}, {Code: OpMapOpen}, {Code: OpMapClose}}, p.Encode)
	assert.Empty(t, p.Deps())
}

func TestDeps(t *testing.T) {
	assert.Equal(t, []string{"Point", "Line"}, Generate(&line).Deps())
}

func TestGenerateAll(t *testing.T) {
	md := &meta.Metadata{Structs: []meta.StructDescriptor{line, {Name: "Point", CName: "Point"}}}
	progs := GenerateAll(md)
	if assert.Len(t, progs, 2) {
		assert.Equal(t, "Line", progs[0].Struct)
		assert.Equal(t, "Point", progs[1].Struct)
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{Op{Code: OpMapOpen, Count: 2}, "map-open 2"},
		{Op{Code: OpKey, Member: "x"}, `key "x"`},
		{Op{Code: OpPrimitive, Member: "x", Type: meta.Primitive(meta.KindSignedInt, "int", 32)}, `primitive "x" Primitive(signed-int int)`},
		{Op{Code: OpSkipUnknown}, "skip-unknown"},
		{Op{Code: OpCode(99)}, "op(99)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.op.String())
	}
}
