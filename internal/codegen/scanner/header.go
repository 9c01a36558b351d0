package scanner

import (
	"fmt"
	"sync"

	"github.com/Alia5/cborgen/internal/codegen/ctype"
)

// preludeSource stands in for the system headers a real preprocessor would
// pull in. Widths follow LP64.
const preludeSource = `
typedef unsigned long size_t;
typedef long ssize_t;
typedef long ptrdiff_t;
typedef long intptr_t;
typedef unsigned long uintptr_t;
typedef signed char int8_t;
typedef short int16_t;
typedef int int32_t;
typedef long long int64_t;
typedef unsigned char uint8_t;
typedef unsigned short uint16_t;
typedef unsigned int uint32_t;
typedef unsigned long long uint64_t;
typedef signed char int_least8_t;
typedef short int_least16_t;
typedef int int_least32_t;
typedef long long int_least64_t;
typedef unsigned char uint_least8_t;
typedef unsigned short uint_least16_t;
typedef unsigned int uint_least32_t;
typedef unsigned long long uint_least64_t;
typedef signed char int_fast8_t;
typedef long int_fast16_t;
typedef long int_fast32_t;
typedef long long int_fast64_t;
typedef unsigned char uint_fast8_t;
typedef unsigned long uint_fast16_t;
typedef unsigned long uint_fast32_t;
typedef unsigned long long uint_fast64_t;
typedef long long intmax_t;
typedef unsigned long long uintmax_t;
typedef float float_t;
typedef double double_t;
`

var prelude = sync.OnceValues(func() (*ctype.File, error) {
	return ScanHeader(preludeSource)
})

// ScanHeader parses C header text into a type graph.
func ScanHeader(src string) (*ctype.File, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks, file: &ctype.File{}}
	if err := p.parseFile(); err != nil {
		return nil, err
	}
	return p.file, nil
}

// WithPrelude returns a copy of f preceded by the built-in fixed-width
// typedefs. Typedefs declared by f itself take precedence over the prelude.
func WithPrelude(f *ctype.File) (*ctype.File, error) {
	pre, err := prelude()
	if err != nil {
		return nil, fmt.Errorf("prelude: %w", err)
	}
	own := make(map[string]bool)
	for _, td := range f.Typedefs() {
		own[td.Name] = true
	}
	out := &ctype.File{Path: f.Path}
	for _, td := range pre.Typedefs() {
		if !own[td.Name] {
			out.Items = append(out.Items, td)
		}
	}
	out.Items = append(out.Items, f.Items...)
	return out, nil
}
