package cmd

import (
	"context"
	"log/slog"

	"github.com/Alia5/cborgen/internal/codegen/generator"
)

// Source selects the header and the front-end options shared by every
// command that compiles one.
type Source struct {
	Header  string `arg:"" help:"C header declaring the structs" type:"existingfile"`
	Prelude bool   `help:"Predefine size_t and the <stdint.h> typedefs" default:"true" negatable:"" env:"CBORGEN_PRELUDE"`
	Strict  bool   `help:"Treat typedef/tag name collisions as errors" env:"CBORGEN_STRICT"`
	Jobs    int    `help:"Structs resolved in parallel (0 uses GOMAXPROCS)" default:"0" env:"CBORGEN_JOBS"`
}

func (s Source) options() generator.Options {
	return generator.Options{
		Prelude:     s.Prelude,
		Strict:      s.Strict,
		Concurrency: s.Jobs,
	}
}

func (s Source) compile(ctx context.Context, logger *slog.Logger) (*generator.Result, error) {
	return generator.New(s.options(), logger).Compile(ctx, s.Header)
}
