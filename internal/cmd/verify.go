package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/go-cmp/cmp"

	"github.com/Alia5/cborgen/internal/codegen/interp"
	"github.com/Alia5/cborgen/internal/log"
)

type Verify struct {
	Input  Source   `embed:""`
	Struct []string `help:"Only verify these structs" short:"s"`
}

// Run is called by Kong when the verify command is executed.
func (c *Verify) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	res, err := c.Input.compile(context.Background(), logger)
	if err != nil {
		return err
	}
	m, err := interp.New(res.Programs)
	if err != nil {
		return err
	}

	var names []string
	for _, p := range res.Programs {
		if len(c.Struct) == 0 || slices.Contains(c.Struct, p.Struct) {
			names = append(names, p.Struct)
		}
	}
	for _, want := range c.Struct {
		if !slices.Contains(names, want) {
			return fmt.Errorf("struct %s: %w", want, interp.ErrUnknownStruct)
		}
	}

	failed := 0
	for _, name := range names {
		n, err := RoundTrip(m, name, rawLogger)
		if err != nil {
			failed++
			logger.Error("Round trip failed", "struct", name, "error", err)
			continue
		}
		logger.Info("Round trip ok", "struct", name, "bytes", n)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d struct(s) failed the round trip", failed, len(names))
	}
	return nil
}

// RoundTrip encodes a sample value of struct name, decodes it into a fresh
// destination and compares both. It returns the encoded size.
func RoundTrip(m *interp.Machine, name string, rawLogger log.RawLogger) (int, error) {
	in, err := m.Sample(name)
	if err != nil {
		return 0, err
	}
	data, err := m.Encode(name, in)
	if err != nil {
		return 0, fmt.Errorf("encode: %w", err)
	}
	rawLogger.Log("encode "+name, data)

	out, err := m.Zero(name)
	if err != nil {
		return 0, err
	}
	rest, err := m.Decode(name, data, out)
	if err != nil {
		return 0, fmt.Errorf("decode: %w", err)
	}
	if len(rest) != 0 {
		return 0, fmt.Errorf("decode left %d trailing bytes", len(rest))
	}
	if diff := cmp.Diff(in, out); diff != "" {
		return 0, fmt.Errorf("decoded value differs (-sent +decoded):\n%s", diff)
	}
	return len(data), nil
}
