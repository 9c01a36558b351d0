// Package cgen emits tinycbor C codecs from codec programs.
package cgen

import (
	"log/slog"

	"github.com/Alia5/cborgen/internal/codegen/common"
)

const (
	HeaderFile = "cbor_generated.h"
	SourceFile = "cbor_generated.c"
	CMakeFile  = "CMakeLists.txt"
)

// Generate renders the C output of u:
// - cbor_generated.h (prototypes)
// - cbor_generated.c (one encode/decode pair per struct)
// - CMakeLists.txt (when u.CMake is set)
// - README.md
func Generate(logger *slog.Logger, u *common.Unit) ([]common.File, error) {
	header, err := generateHeader(u)
	if err != nil {
		return nil, err
	}
	logger.Debug("Rendered C header", "file", HeaderFile, "structs", len(u.Programs))

	source, err := generateSource(u)
	if err != nil {
		return nil, err
	}
	logger.Debug("Rendered C source", "file", SourceFile, "structs", len(u.Programs))

	files := []common.File{header, source}
	if u.CMake {
		cmake, err := generateCMake(u)
		if err != nil {
			return nil, err
		}
		files = append(files, cmake)
	}

	readme, err := common.Readme(u)
	if err != nil {
		return nil, err
	}
	files = append(files, readme)

	logger.Info("Generated C codecs", "structs", len(u.Programs), "files", len(files))
	return files, nil
}
