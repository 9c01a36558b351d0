package common

import (
	"github.com/Alia5/cborgen/internal/codegen/codec"
	"github.com/Alia5/cborgen/internal/codegen/meta"
)

// Unit is everything a language backend needs to emit code for one header.
type Unit struct {
	Metadata *meta.Metadata
	Programs []*codec.Program
	// Include is the path the generated code uses to include the input header.
	Include string
	Version string
	// CMake requests a build file next to the generated sources.
	CMake       bool
	LibraryName string
}

// DefaultLibraryName names the output when Unit.LibraryName is empty.
const DefaultLibraryName = "cbor_generated"

// Name returns the library name, falling back to DefaultLibraryName.
func (u *Unit) Name() string {
	if u.LibraryName == "" {
		return DefaultLibraryName
	}
	return u.LibraryName
}

// File is one generated output, Path relative to the output directory.
type File struct {
	Path string
	Data []byte
}
