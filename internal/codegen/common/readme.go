package common

import (
	"bytes"
	"fmt"
	"text/template"
)

var readmeTmpl = template.Must(template.New("readme").Parse(`# {{.Name}}

Generated by cborgen {{.Version}} from ` + "`{{.Metadata.Source}}`" + `.
Do not edit: rerun ` + "`cborgen generate`" + ` after changing the header.

Input digest (BLAKE2b-256): ` + "`{{.Metadata.Digest}}`" + `

## Codecs
{{range .Metadata.Structs}}
- ` + "`{{.CName}}`" + `: {{len .Members}} member(s), ` + "`encode_{{.Name}}` / `decode_{{.Name}}`" + `
{{- end}}
{{- if .Metadata.Diagnostics}}

## Skipped members
{{range .Metadata.Diagnostics}}
- {{.}}
{{- end}}
{{- end}}

## Runtime contract

Decode never allocates. Pointer members must point at caller-owned storage
before decoding; a wire null leaves the destination untouched. String
pointers need room for the decoded text plus its terminator.
`))

// Readme renders README.md for the generated output of u.
func Readme(u *Unit) (File, error) {
	var buf bytes.Buffer
	if err := readmeTmpl.Execute(&buf, u); err != nil {
		return File{}, fmt.Errorf("execute README template: %w", err)
	}
	return File{Path: "README.md", Data: buf.Bytes()}, nil
}
