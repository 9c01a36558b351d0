package cgen

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Alia5/cborgen/internal/codegen/common"
)

var cmakeTmpl = template.Must(template.New("cmake").Parse(`cmake_minimum_required(VERSION 3.18)
project({{.Target}} VERSION {{.Major}}.{{.Minor}}.{{.Patch}} LANGUAGES C)

set(CMAKE_C_STANDARD 99)

add_library({{.Target}} STATIC
    cbor_generated.c
)

target_include_directories({{.Target}} PUBLIC
    ${CMAKE_CURRENT_SOURCE_DIR}
)

# tinycbor: prefer an imported CMake package, fall back to a system library
find_package(tinycbor QUIET)
if(TARGET tinycbor::tinycbor)
    target_link_libraries({{.Target}} PUBLIC tinycbor::tinycbor)
else()
    find_library(TINYCBOR_LIBRARY NAMES tinycbor REQUIRED)
    target_link_libraries({{.Target}} PUBLIC ${TINYCBOR_LIBRARY})
endif()

install(TARGETS {{.Target}}
    ARCHIVE DESTINATION lib
)

install(FILES cbor_generated.h
    DESTINATION include
)
`))

func generateCMake(u *common.Unit) (common.File, error) {
	major, minor, patch := common.ParseVersion(u.Version)
	data := struct {
		Target              string
		Major, Minor, Patch int
	}{
		Target: common.CIdent(u.Name()),
		Major:  major,
		Minor:  minor,
		Patch:  patch,
	}

	var buf bytes.Buffer
	if err := cmakeTmpl.Execute(&buf, data); err != nil {
		return common.File{}, fmt.Errorf("execute CMake template: %w", err)
	}
	return common.File{Path: CMakeFile, Data: buf.Bytes()}, nil
}
