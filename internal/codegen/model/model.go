// Package model builds the ordered per-struct member model from a registry.
package model

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/Alia5/cborgen/internal/codegen/meta"
	"github.com/Alia5/cborgen/internal/codegen/registry"
	"github.com/Alia5/cborgen/internal/codegen/resolve"
)

type Options struct {
	// Concurrency limits the number of structs resolved in parallel.
	// Zero means GOMAXPROCS.
	Concurrency int
}

type built struct {
	desc  meta.StructDescriptor
	diags []meta.Diagnostic
	err   error
}

// Build resolves every registered struct. Structs keep registry declaration
// order and diagnostics are grouped per struct in the same order, whatever
// the degree of parallelism.
func Build(ctx context.Context, reg *registry.Registry, opts Options) (*meta.Metadata, error) {
	names := reg.StructNames()
	res := resolve.New(reg)
	out := make([]built, len(names))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e, _ := reg.Struct(name)
			desc, diags, err := Struct(e, res)
			out[i] = built{desc: desc, diags: diags, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	md := &meta.Metadata{Structs: make([]meta.StructDescriptor, 0, len(names))}
	for _, b := range out {
		if b.err != nil {
			return nil, b.err
		}
		md.Structs = append(md.Structs, b.desc)
		md.Diagnostics = append(md.Diagnostics, b.diags...)
	}
	return md, nil
}

// Struct builds the descriptor of one registered struct. Members that cannot
// be encoded are left out and reported as diagnostics.
func Struct(e *registry.Entry, res *resolve.Resolver) (meta.StructDescriptor, []meta.Diagnostic, error) {
	sd := meta.StructDescriptor{
		Name:    e.Name,
		CName:   CName(e),
		Members: []meta.MemberDescriptor{},
	}
	var diags []meta.Diagnostic
	skip := func(member, reason string) {
		diags = append(diags, meta.Diagnostic{
			Severity: meta.SeveritySkipped,
			Struct:   e.Name,
			Member:   member,
			Reason:   reason,
		})
	}

	seen := make(map[string]int)
	for _, m := range e.Members() {
		if m.Name == "" {
			if m.BitWidth != "" {
				skip("", "unnamed bit-field")
			} else {
				skip("", "unnamed member")
			}
			continue
		}
		if line, dup := seen[m.Name]; dup {
			return meta.StructDescriptor{}, nil, &meta.ConfigError{
				Kind:   meta.DuplicateMember,
				Struct: e.Name,
				Member: m.Name,
				Detail: fmt.Sprintf("declared on line %d and line %d", line, m.Line),
			}
		}
		seen[m.Name] = m.Line

		if m.BitWidth != "" {
			skip(m.Name, "bit-field")
			continue
		}
		td, err := res.Resolve(m.Type)
		if err != nil {
			var cfg *meta.ConfigError
			if errors.As(err, &cfg) {
				withCtx := *cfg
				withCtx.Struct, withCtx.Member = e.Name, m.Name
				return meta.StructDescriptor{}, nil, &withCtx
			}
			return meta.StructDescriptor{}, nil, fmt.Errorf("%s.%s: %w", e.Name, m.Name, err)
		}
		if td.IsUnsupported() {
			skip(m.Name, td.Reason)
			continue
		}
		sd.Members = append(sd.Members, meta.MemberDescriptor{Name: m.Name, Type: td})
	}
	return sd, diags, nil
}

// CName is the C spelling of the struct type: the bare typedef name for
// typedef-only structs, `struct <tag>` otherwise.
func CName(e *registry.Entry) string {
	if e.Typedef && e.ViaPointer {
		return "__typeof__(*(" + e.Name + ")0)"
	}
	if e.Typedef {
		return e.Name
	}
	return "struct " + e.Name
}
