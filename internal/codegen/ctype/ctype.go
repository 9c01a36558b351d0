// Package ctype defines the raw C type graph produced by the header scanner
// and consumed by the registry and resolver.
//
// The graph mirrors C declarator structure: the outermost node is the one
// nearest to the declared name. For `int *a[5]` the member type is
// Array{Elem: Ptr{Elem: Ident{int}}}, for `int (*a)[5]` it is
// Ptr{Elem: Array{Elem: Ident{int}}}.
//
// Nodes are never mutated after the scanner builds them.
package ctype

// Node is a type node. The set of implementations is closed.
type Node interface {
	node()
}

// Ident is a base type spelled with identifiers, e.g. `unsigned long long`,
// `uint8_t` or a typedef name.
type Ident struct {
	Names []string
	Quals []string
}

// Ptr is one level of pointer indirection. Quals apply to the pointer itself
// (`char * const p`).
type Ptr struct {
	Quals []string
	Elem  Node
}

// Array is one array dimension. Dim is the raw dimension text as written
// ("" for `a[]`).
type Array struct {
	Dim  string
	Elem Node
}

// Func is a function type. It only ever appears behind a Ptr in a member.
type Func struct {
	Result Node
	Params []*Decl
}

// Struct is a struct specifier. Members is nil for a forward declaration or
// a bare tag reference, and non-nil (possibly empty) for a definition.
type Struct struct {
	Name    string
	Members []*Decl
	Quals   []string
}

// Union is a union specifier.
type Union struct {
	Name    string
	Members []*Decl
	Quals   []string
}

// Enum is an enum specifier. Enumerator values are not retained.
type Enum struct {
	Name  string
	Quals []string
}

func (*Ident) node()  {}
func (*Ptr) node()    {}
func (*Array) node()  {}
func (*Func) node()   {}
func (*Struct) node() {}
func (*Union) node()  {}
func (*Enum) node()   {}

// Decl is a named declaration: a struct member, a function parameter or a
// top-level object/tag declaration. BitWidth is the raw bit-field width text,
// empty when the member is not a bit-field.
type Decl struct {
	Name     string
	Type     Node
	BitWidth string
	Line     int
}

// Typedef binds Name to Type.
type Typedef struct {
	Name string
	Type Node
	Line int
}

// File is one parsed translation unit. Items holds *Decl and *Typedef values
// in source order.
type File struct {
	Path  string
	Items []any
}

// Typedefs returns the typedef items of f in source order.
func (f *File) Typedefs() []*Typedef {
	var out []*Typedef
	for _, it := range f.Items {
		if td, ok := it.(*Typedef); ok {
			out = append(out, td)
		}
	}
	return out
}

// Decls returns the declaration items of f in source order.
func (f *File) Decls() []*Decl {
	var out []*Decl
	for _, it := range f.Items {
		if d, ok := it.(*Decl); ok {
			out = append(out, d)
		}
	}
	return out
}

// HasQual reports whether q is among quals.
func HasQual(quals []string, q string) bool {
	for _, s := range quals {
		if s == q {
			return true
		}
	}
	return false
}
