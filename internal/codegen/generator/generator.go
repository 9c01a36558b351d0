// Package generator drives a header through the compilation pipeline and
// hands the result to a language backend.
package generator

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	cgen "github.com/Alia5/cborgen/internal/codegen/generator/c"

	"github.com/Alia5/cborgen/internal/codegen/codec"
	"github.com/Alia5/cborgen/internal/codegen/common"
	"github.com/Alia5/cborgen/internal/codegen/meta"
	"github.com/Alia5/cborgen/internal/codegen/model"
	"github.com/Alia5/cborgen/internal/codegen/registry"
	"github.com/Alia5/cborgen/internal/codegen/scanner"
)

// ErrDrift is returned in check mode when generated files are stale.
var ErrDrift = errors.New("generated files are out of date")

type LanguageGenerator func(logger *slog.Logger, u *common.Unit) ([]common.File, error)

var generators = map[string]LanguageGenerator{
	"c": cgen.Generate,
}

// Languages returns the supported backend names, sorted.
func Languages() []string {
	langs := make([]string, 0, len(generators))
	for k := range generators {
		langs = append(langs, k)
	}
	sort.Strings(langs)
	return langs
}

type Options struct {
	Lang        string
	OutputDir   string
	Prelude     bool
	Strict      bool
	Check       bool
	CMake       bool
	LibraryName string
	Concurrency int
}

// Result is the compiled form of one header.
type Result struct {
	Metadata *meta.Metadata
	Programs []*codec.Program
	Files    []common.File
}

type Generator struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Generator {
	if opts.Lang == "" {
		opts.Lang = "c"
	}
	return &Generator{
		opts:   opts,
		logger: logger,
	}
}

// Compile runs scan, registry, model and codec generation over the header at
// path. Configuration errors are returned as *meta.ConfigError.
func (g *Generator) Compile(ctx context.Context, path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	return g.CompileSource(ctx, path, src)
}

// CompileSource is Compile over in-memory header text; name is recorded as
// the source of the resulting metadata.
func (g *Generator) CompileSource(ctx context.Context, name string, src []byte) (*Result, error) {
	g.logger.Info("Scanning header", "file", name)
	f, err := scanner.ScanHeader(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	f.Path = name
	if g.opts.Prelude {
		if f, err = scanner.WithPrelude(f); err != nil {
			return nil, fmt.Errorf("apply prelude: %w", err)
		}
	}

	reg, diags, err := registry.Build(f, registry.Options{Strict: g.opts.Strict})
	if err != nil {
		return nil, fmt.Errorf("build registry: %w", err)
	}
	g.logger.Debug("Registered declarations",
		"structs", len(reg.StructNames()),
		"typedefs", len(reg.TypedefNames()))

	md, err := model.Build(ctx, reg, model.Options{Concurrency: g.opts.Concurrency})
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	sum := blake2b.Sum256(src)
	md.Source = name
	md.Digest = hex.EncodeToString(sum[:])
	md.Diagnostics = append(diags, md.Diagnostics...)

	for _, d := range md.Diagnostics {
		g.logger.Warn("Diagnostic",
			"severity", string(d.Severity),
			"struct", d.Struct,
			"member", d.Member,
			"reason", d.Reason)
	}

	progs := codec.GenerateAll(md)
	g.logger.Info("Compiled header",
		"structs", len(md.Structs),
		"diagnostics", len(md.Diagnostics))
	return &Result{Metadata: md, Programs: progs}, nil
}

// Generate compiles the header at path and writes the backend output to the
// output directory. In check mode nothing is written; stale or missing
// files yield ErrDrift.
func (g *Generator) Generate(ctx context.Context, path string) (*Result, error) {
	gen, ok := generators[g.opts.Lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language '%s' (supported: %v)", g.opts.Lang, Languages())
	}

	res, err := g.Compile(ctx, path)
	if err != nil {
		return nil, err
	}

	version, err := common.GetVersion()
	if err != nil {
		return nil, fmt.Errorf("get version: %w", err)
	}
	u := &common.Unit{
		Metadata:    res.Metadata,
		Programs:    res.Programs,
		Include:     includePath(g.opts.OutputDir, path),
		Version:     version,
		CMake:       g.opts.CMake,
		LibraryName: g.opts.LibraryName,
	}
	g.logger.Info("Generating codecs", "language", g.opts.Lang, "version", version)
	if res.Files, err = gen(g.logger, u); err != nil {
		return nil, fmt.Errorf("generate %s: %w", g.opts.Lang, err)
	}

	if g.opts.Check {
		stale, err := common.Drift(g.opts.OutputDir, res.Files)
		if err != nil {
			return nil, err
		}
		if len(stale) > 0 {
			return res, fmt.Errorf("%w: %s", ErrDrift, strings.Join(stale, ", "))
		}
		g.logger.Info("Generated files are up to date", "output", g.opts.OutputDir)
		return res, nil
	}

	if err := common.WriteFiles(g.logger, g.opts.OutputDir, res.Files); err != nil {
		return nil, err
	}
	g.logger.Info("Codec generation complete", "language", g.opts.Lang, "output", g.opts.OutputDir)
	return res, nil
}

// includePath returns how a file in outputDir includes header.
func includePath(outputDir, header string) string {
	absOut, err1 := filepath.Abs(outputDir)
	absHeader, err2 := filepath.Abs(header)
	if err1 != nil || err2 != nil {
		return filepath.Base(header)
	}
	rel, err := filepath.Rel(absOut, absHeader)
	if err != nil {
		return filepath.Base(header)
	}
	return filepath.ToSlash(rel)
}
