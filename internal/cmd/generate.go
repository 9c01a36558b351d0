package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Alia5/cborgen/internal/codegen/generator"
)

type Generate struct {
	Input       Source `embed:""`
	OutputDir   string `help:"Directory for the generated files" default:"./generated_cbor" type:"path" env:"CBORGEN_OUTPUT_DIR"`
	Lang        string `help:"Target language" default:"c" enum:"c" env:"CBORGEN_LANG"`
	CMake       bool   `name:"cmake" help:"Also write a CMakeLists.txt building a static library" env:"CBORGEN_CMAKE"`
	LibraryName string `help:"CMake library target name" default:"cbor_generated" env:"CBORGEN_LIBRARY_NAME"`
	Check       bool   `help:"Fail if the generated files are missing or stale instead of writing them" env:"CBORGEN_CHECK"`
}

// Run is called by Kong when the generate command is executed.
func (c *Generate) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting code generation", "header", c.Input.Header, "output", c.OutputDir, "lang", c.Lang)
	_, err := generator.New(c.options(), logger).Generate(ctx, c.Input.Header)
	return err
}

func (c *Generate) options() generator.Options {
	opts := c.Input.options()
	opts.Lang = c.Lang
	opts.OutputDir = c.OutputDir
	opts.CMake = c.CMake
	opts.LibraryName = c.LibraryName
	opts.Check = c.Check
	return opts
}
