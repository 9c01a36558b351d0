package cgen

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Alia5/cborgen/internal/codegen/common"
)

const bannerTmpl = `{{define "banner"}}/*
 * Generated by cborgen {{.Version}}. DO NOT EDIT.
 * source: {{comment .Metadata.Source}}
 * blake2b-256: {{.Metadata.Digest}}
 */
{{end}}`

const headerTmpl = `{{template "banner" .}}
#ifndef {{guard "cbor_generated.h"}}
#define {{guard "cbor_generated.h"}}

#include <stdbool.h>
#include <stddef.h>
#include <stdint.h>

#include <tinycbor/cbor.h>

#include {{cstring .Include}}

#ifdef __cplusplus
extern "C" {
#endif
{{range .Programs}}
/* {{comment .CName}} */
{{encodeFunc .}};
{{decodeFunc .}};
{{end}}
#ifdef __cplusplus
}
#endif

#endif /* {{guard "cbor_generated.h"}} */
`

var headerTemplate = template.Must(template.New("header").Funcs(tplFuncs()).Parse(bannerTmpl + headerTmpl))

func generateHeader(u *common.Unit) (common.File, error) {
	var buf bytes.Buffer
	if err := headerTemplate.Execute(&buf, u); err != nil {
		return common.File{}, fmt.Errorf("execute header template: %w", err)
	}
	return common.File{Path: HeaderFile, Data: buf.Bytes()}, nil
}
