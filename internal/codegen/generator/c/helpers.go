package cgen

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Alia5/cborgen/internal/codegen/codec"
	"github.com/Alia5/cborgen/internal/codegen/common"
	"github.com/Alia5/cborgen/internal/codegen/meta"
)

func tplFuncs() template.FuncMap {
	return template.FuncMap{
		"guard":      common.GuardMacro,
		"cstring":    common.CString,
		"comment":    comment,
		"encodeBody": encodeBody,
		"decodeBody": decodeBody,
		"encodeFunc": encodeFunc,
		"decodeFunc": decodeFunc,
	}
}

func encodeFunc(p *codec.Program) string {
	return fmt.Sprintf("bool encode_%s(const %s *data, CborEncoder *encoder)", p.Struct, p.CName)
}

func decodeFunc(p *codec.Program) string {
	return fmt.Sprintf("bool decode_%s(%s *data, CborValue *it)", p.Struct, p.CName)
}

// comment makes s safe inside a block comment.
func comment(s string) string {
	return strings.ReplaceAll(s, "*/", "* /")
}

// emitter accumulates indented C statements.
type emitter struct {
	b      strings.Builder
	indent int
	depth  int
}

func (e *emitter) line(format string, args ...any) {
	e.b.WriteString(strings.Repeat("    ", e.indent))
	fmt.Fprintf(&e.b, format, args...)
	e.b.WriteByte('\n')
}

func (e *emitter) open(format string, args ...any) {
	e.line(format, args...)
	e.indent++
}

func (e *emitter) close() {
	e.indent--
	e.line("}")
}

// check emits a tinycbor call that aborts the function on any error.
func (e *emitter) check(format string, args ...any) {
	e.line("if (%s != CborNoError) return false;", fmt.Sprintf(format, args...))
}

func encodeBody(p *codec.Program) (string, error) {
	e := &emitter{indent: 1}
	e.line("CborEncoder map;")
	e.line("")
	ops := p.Encode
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		switch op.Code {
		case codec.OpNullGuard:
			e.open("if (data == NULL) {")
			e.line("return cbor_encode_null(encoder) == CborNoError;")
			e.close()
		case codec.OpMapOpen:
			e.check("cbor_encoder_create_map(encoder, &map, %d)", op.Count)
		case codec.OpKey:
			j := i + 1
			for j < len(ops) && ops[j].Code != codec.OpKey && ops[j].Code != codec.OpMapClose {
				j++
			}
			e.line("")
			e.check("cbor_encode_text_stringz(&map, %s)", common.CString(op.Member))
			if err := e.encodeValue(ops[i+1:j], "&map", "data->"+op.Member); err != nil {
				return "", fmt.Errorf("%s.%s: %w", p.Struct, op.Member, err)
			}
			i = j - 1
		case codec.OpMapClose:
			e.line("")
			e.line("return cbor_encoder_close_container(encoder, &map) == CborNoError;")
		default:
			return "", fmt.Errorf("%s: unexpected %s in encode program", p.Struct, op.Code)
		}
	}
	return e.b.String(), nil
}

func (e *emitter) encodeValue(ops []codec.Op, enc, expr string) error {
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		switch op.Code {
		case codec.OpNullCheck:
			if i+1 >= len(ops) {
				return fmt.Errorf("null check without guarded op")
			}
			e.open("if (%s == NULL) {", expr)
			e.check("cbor_encode_null(%s)", enc)
			e.indent--
			e.open("} else {")
			if err := e.encodeValue(ops[i+1:i+2], enc, expr); err != nil {
				return err
			}
			e.close()
			i++
		case codec.OpPrimitive:
			call, err := encodePrimitive(op.Type, enc, expr)
			if err != nil {
				return err
			}
			e.check("%s", call)
		case codec.OpString:
			if op.Type.Category == meta.CategoryStringPointer {
				e.check("cbor_encode_text_stringz(%s, %s)", enc, expr)
				continue
			}
			e.open("{")
			e.line("const char *end = memchr(%s, '\\0', %d);", expr, op.Type.Length)
			e.line("if (end == NULL) return false;")
			e.check("cbor_encode_text_string(%s, %s, (size_t)(end - %s))", enc, expr, expr)
			e.close()
		case codec.OpNestedCall:
			if op.Type.Category == meta.CategoryStructPointer {
				e.line("if (!encode_%s(%s, %s)) return false;", op.Type.Struct, expr, enc)
			} else {
				e.line("if (!encode_%s(&%s, %s)) return false;", op.Type.Struct, expr, enc)
			}
		case codec.OpArrayOpen:
			j, err := arrayClose(ops, i)
			if err != nil {
				return err
			}
			arr, idx := fmt.Sprintf("arr%d", e.depth), fmt.Sprintf("i%d", e.depth)
			e.open("{")
			e.line("CborEncoder %s;", arr)
			e.check("cbor_encoder_create_array(%s, &%s, %d)", enc, arr, op.Count)
			e.open("for (size_t %s = 0; %s < %d; %s++) {", idx, idx, op.Count, idx)
			e.depth++
			err = e.encodeValue(ops[i+1:j], "&"+arr, expr+"["+idx+"]")
			e.depth--
			if err != nil {
				return err
			}
			e.close()
			e.check("cbor_encoder_close_container(%s, &%s)", enc, arr)
			e.close()
			i = j
		default:
			return fmt.Errorf("unexpected %s in member ops", op.Code)
		}
	}
	return nil
}

func encodePrimitive(t meta.TypeDescriptor, enc, expr string) (string, error) {
	switch t.Kind {
	case meta.KindSignedInt:
		return fmt.Sprintf("cbor_encode_int(%s, (int64_t)%s)", enc, expr), nil
	case meta.KindUnsignedInt:
		return fmt.Sprintf("cbor_encode_uint(%s, (uint64_t)%s)", enc, expr), nil
	case meta.KindFloat32:
		return fmt.Sprintf("cbor_encode_float(%s, (float)%s)", enc, expr), nil
	case meta.KindFloat64:
		return fmt.Sprintf("cbor_encode_double(%s, (double)%s)", enc, expr), nil
	case meta.KindBool:
		return fmt.Sprintf("cbor_encode_boolean(%s, %s)", enc, expr), nil
	}
	return "", fmt.Errorf("primitive of kind %q", t.Kind)
}

func decodeBody(p *codec.Program) (string, error) {
	names, cases := codec.Cases(p.Decode)

	e := &emitter{indent: 1}
	e.line("CborValue map;")
	if len(names) > 0 {
		e.line("bool match;")
	}
	e.line("")
	e.open("if (cbor_value_is_null(it)) {")
	e.line("return cbor_value_advance(it) == CborNoError;")
	e.close()
	e.line("if (data == NULL || !cbor_value_is_map(it)) return false;")
	e.check("cbor_value_enter_container(it, &map)")
	e.line("")
	e.open("while (!cbor_value_at_end(&map)) {")
	e.line("if (!cbor_value_is_text_string(&map)) return false;")
	for _, name := range names {
		e.line("")
		e.check("cbor_value_text_string_equals(&map, %s, &match)", common.CString(name))
		e.open("if (match) {")
		e.check("cbor_value_advance(&map)")
		if err := e.decodeValue(cases[name], "&map", "data->"+name); err != nil {
			return "", fmt.Errorf("%s.%s: %w", p.Struct, name, err)
		}
		e.line("continue;")
		e.close()
	}
	e.line("")
	e.line("/* unknown key: skip key and value */")
	e.check("cbor_value_advance(&map)")
	e.check("cbor_value_advance(&map)")
	e.close()
	e.line("")
	e.line("return cbor_value_leave_container(it, &map) == CborNoError;")
	return e.b.String(), nil
}

func (e *emitter) decodeValue(ops []codec.Op, it, expr string) error {
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		switch op.Code {
		case codec.OpNullCheck:
			if i+1 >= len(ops) {
				return fmt.Errorf("null check without guarded op")
			}
			e.open("if (cbor_value_is_null(%s)) {", it)
			e.check("cbor_value_advance(%s)", it)
			e.indent--
			e.open("} else {")
			if err := e.decodeValue(ops[i+1:i+2], it, expr); err != nil {
				return err
			}
			e.close()
			i++
		case codec.OpPrimitive:
			if err := e.decodePrimitive(op.Type, it, expr); err != nil {
				return err
			}
		case codec.OpString:
			e.open("{")
			e.line("size_t n;")
			if op.Type.Category == meta.CategoryStringPointer {
				e.line("if (%s == NULL || !cbor_value_is_text_string(%s)) return false;", expr, it)
				e.check("cbor_value_calculate_string_length(%s, &n)", it)
				e.line("n += 1;")
				e.check("cbor_value_copy_text_string(%s, (char *)%s, &n, %s)", it, expr, it)
			} else {
				e.line("if (!cbor_value_is_text_string(%s)) return false;", it)
				e.check("cbor_value_calculate_string_length(%s, &n)", it)
				e.line("if (n + 1 > %d) return false;", op.Type.Length)
				e.line("n = %d;", op.Type.Length)
				e.check("cbor_value_copy_text_string(%s, %s, &n, %s)", it, expr, it)
			}
			e.close()
		case codec.OpNestedCall:
			if op.Type.Category == meta.CategoryStructPointer {
				e.line("if (%s == NULL || !decode_%s(%s, %s)) return false;", expr, op.Type.Struct, expr, it)
			} else {
				e.line("if (!decode_%s(&%s, %s)) return false;", op.Type.Struct, expr, it)
			}
		case codec.OpArrayOpen:
			j, err := arrayClose(ops, i)
			if err != nil {
				return err
			}
			arr, n, idx := fmt.Sprintf("arr%d", e.depth), fmt.Sprintf("n%d", e.depth), fmt.Sprintf("i%d", e.depth)
			e.open("{")
			e.line("CborValue %s;", arr)
			e.line("size_t %s;", n)
			e.line("if (!cbor_value_is_array(%s)) return false;", it)
			e.check("cbor_value_get_array_length(%s, &%s)", it, n)
			e.line("if (%s > %d) return false;", n, op.Count)
			e.check("cbor_value_enter_container(%s, &%s)", it, arr)
			e.open("for (size_t %s = 0; %s < %s; %s++) {", idx, idx, n, idx)
			e.depth++
			err = e.decodeValue(ops[i+1:j], "&"+arr, expr+"["+idx+"]")
			e.depth--
			if err != nil {
				return err
			}
			e.close()
			e.check("cbor_value_leave_container(%s, &%s)", it, arr)
			e.close()
			i = j
		default:
			return fmt.Errorf("unexpected %s in member ops", op.Code)
		}
	}
	return nil
}

// decodePrimitive reads into a temporary of the wire width, range checks it
// against the destination width and assigns with a cast to the declared type.
func (e *emitter) decodePrimitive(t meta.TypeDescriptor, it, expr string) error {
	e.open("{")
	switch t.Kind {
	case meta.KindSignedInt:
		e.line("int64_t v;")
		e.line("if (!cbor_value_is_integer(%s)) return false;", it)
		e.check("cbor_value_get_int64_checked(%s, &v)", it)
		if t.Bits < 64 {
			e.line("if (v < INT%d_MIN || v > INT%d_MAX) return false;", t.Bits, t.Bits)
		}
	case meta.KindUnsignedInt:
		e.line("uint64_t v;")
		e.line("if (!cbor_value_is_unsigned_integer(%s)) return false;", it)
		e.check("cbor_value_get_uint64(%s, &v)", it)
		if t.Bits < 64 {
			e.line("if (v > UINT%d_MAX) return false;", t.Bits)
		}
	case meta.KindFloat32:
		e.line("float v;")
		e.line("if (!cbor_value_is_float(%s)) return false;", it)
		e.check("cbor_value_get_float(%s, &v)", it)
	case meta.KindFloat64:
		e.line("double v;")
		e.line("if (!cbor_value_is_double(%s)) return false;", it)
		e.check("cbor_value_get_double(%s, &v)", it)
	case meta.KindBool:
		e.line("bool v;")
		e.line("if (!cbor_value_is_boolean(%s)) return false;", it)
		e.check("cbor_value_get_boolean(%s, &v)", it)
	default:
		return fmt.Errorf("primitive of kind %q", t.Kind)
	}
	e.line("%s = (%s)v;", expr, t.CType)
	e.check("cbor_value_advance_fixed(%s)", it)
	e.close()
	return nil
}

func arrayClose(ops []codec.Op, open int) (int, error) {
	depth := 0
	for j := open; j < len(ops); j++ {
		switch ops[j].Code {
		case codec.OpArrayOpen:
			depth++
		case codec.OpArrayClose:
			depth--
			if depth == 0 {
				return j, nil
			}
		}
	}
	return 0, fmt.Errorf("unterminated array")
}
