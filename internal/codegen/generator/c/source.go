package cgen

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/Alia5/cborgen/internal/codegen/common"
)

const sourceTmpl = `{{template "banner" .}}
#include "cbor_generated.h"

#include <string.h>
{{range .Programs}}
{{encodeFunc .}}
{
{{encodeBody .}}}

{{decodeFunc .}}
{
{{decodeBody .}}}
{{end}}`

var sourceTemplate = template.Must(template.New("source").Funcs(tplFuncs()).Parse(bannerTmpl + sourceTmpl))

func generateSource(u *common.Unit) (common.File, error) {
	var buf bytes.Buffer
	if err := sourceTemplate.Execute(&buf, u); err != nil {
		return common.File{}, fmt.Errorf("execute source template: %w", err)
	}
	return common.File{Path: SourceFile, Data: buf.Bytes()}, nil
}
