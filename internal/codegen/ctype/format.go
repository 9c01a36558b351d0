package ctype

import (
	"fmt"
	"strings"
)

// Format renders n as an abstract C type name, e.g. "const char *",
// "int[5]" or "struct Point".
func Format(n Node) string {
	return strings.TrimSpace(format(n, ""))
}

// format renders n around an inner declarator string, following C's
// inside-out declarator syntax.
func format(n Node, inner string) string {
	switch t := n.(type) {
	case nil:
		return "void" + pad(inner)
	case *Ident:
		return spec(t.Quals, strings.Join(t.Names, " ")) + pad(inner)
	case *Struct:
		return spec(t.Quals, tagged("struct", t.Name, t.Members)) + pad(inner)
	case *Union:
		return spec(t.Quals, tagged("union", t.Name, t.Members)) + pad(inner)
	case *Enum:
		return spec(t.Quals, "enum "+t.Name) + pad(inner)
	case *Ptr:
		s := "*"
		if len(t.Quals) > 0 {
			s += " " + strings.Join(t.Quals, " ")
			if inner != "" {
				s += " "
			}
		}
		s += inner
		if _, ok := t.Elem.(*Array); ok {
			s = "(" + s + ")"
		}
		if _, ok := t.Elem.(*Func); ok {
			s = "(" + s + ")"
		}
		return format(t.Elem, s)
	case *Array:
		return format(t.Elem, inner+"["+t.Dim+"]")
	case *Func:
		params := make([]string, 0, len(t.Params))
		for _, p := range t.Params {
			params = append(params, Format(p.Type))
		}
		if len(params) == 0 {
			params = append(params, "void")
		}
		return format(t.Result, inner+"("+strings.Join(params, ", ")+")")
	default:
		return fmt.Sprintf("<%T>", n) + pad(inner)
	}
}

func spec(quals []string, base string) string {
	if len(quals) == 0 {
		return base
	}
	return strings.Join(quals, " ") + " " + base
}

func tagged(kw, name string, members []*Decl) string {
	if name != "" {
		return kw + " " + name
	}
	var b strings.Builder
	b.WriteString(kw)
	b.WriteString(" {")
	for _, m := range members {
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(format(m.Type, m.Name)))
		b.WriteString(";")
	}
	b.WriteString(" }")
	return b.String()
}

func pad(inner string) string {
	if inner == "" {
		return ""
	}
	if strings.HasPrefix(inner, "[") || strings.HasPrefix(inner, "(") && !strings.HasPrefix(inner, "(*") {
		return inner
	}
	return " " + inner
}

// SameShape reports whether a and b spell the same C type.
func SameShape(a, b Node) bool {
	return Format(a) == Format(b)
}
