package common

import (
	"path/filepath"
	"strings"
)

// ToSnakeCase converts camelCase and PascalCase names to snake_case.
func ToSnakeCase(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		isUpper := r >= 'A' && r <= 'Z'

		if i > 0 && isUpper {
			// "someWord" -> "some_word"
			prevIsLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			// "XMLParser" -> "xml_parser", not "x_m_l_parser"
			nextIsLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevIsLower || nextIsLower {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// CIdent maps s onto a valid C identifier: every byte outside [A-Za-z0-9_]
// becomes '_' and a leading digit gets a '_' prefix.
func CIdent(s string) string {
	if s == "" {
		return "_"
	}
	b := []byte(s)
	for i, c := range b {
		if !isIdentByte(c) {
			b[i] = '_'
		}
	}
	if b[0] >= '0' && b[0] <= '9' {
		return "_" + string(b)
	}
	return string(b)
}

// GuardMacro returns the include guard for a generated file name,
// e.g. "cbor_generated.h" -> "CBOR_GENERATED_H".
func GuardMacro(file string) string {
	return strings.ToUpper(CIdent(ToSnakeCase(filepath.Base(file))))
}

// CString quotes s as a C string literal. Bytes outside printable ASCII are
// written as octal escapes so that UTF-8 keys survive byte-exact.
func CString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		case c < 0x20 || c >= 0x7f:
			b.WriteByte('\\')
			b.WriteByte('0' + c>>6)
			b.WriteByte('0' + c>>3&7)
			b.WriteByte('0' + c&7)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
