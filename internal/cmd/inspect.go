package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/Alia5/cborgen/internal/codegen/codec"
	"github.com/Alia5/cborgen/internal/codegen/meta"
)

type Inspect struct {
	Input   Source `embed:""`
	Format  string `help:"Output format" enum:"yaml,json,toml" default:"yaml" env:"CBORGEN_INSPECT_FORMAT"`
	Ops     bool   `help:"Include the encode and decode operation lists"`
	Output  string `help:"Write the report to a file instead of stdout" type:"path"`
	NoColor bool   `help:"Disable colored summary output" env:"NO_COLOR"`
}

// report is the document written by inspect.
type report struct {
	Metadata *meta.Metadata   `json:"model" yaml:"model" toml:"model"`
	Programs []*codec.Program `json:"programs,omitempty" yaml:"programs,omitempty" toml:"programs,omitempty"`
}

// Run is called by Kong when the inspect command is executed.
func (c *Inspect) Run(logger *slog.Logger) error {
	res, err := c.Input.compile(context.Background(), logger)
	if err != nil {
		return err
	}

	doc := report{Metadata: res.Metadata}
	if c.Ops {
		doc.Programs = res.Programs
	}
	data, err := renderReport(c.Format, doc)
	if err != nil {
		return err
	}

	if c.Output != "" {
		if err := os.WriteFile(c.Output, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		logger.Info("Wrote model report", "file", c.Output, "format", c.Format)
	} else if _, err := os.Stdout.Write(data); err != nil {
		return err
	}

	if c.NoColor {
		color.NoColor = true
	}
	printSummary(os.Stderr, res.Metadata)
	return nil
}

func renderReport(format string, doc report) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch format {
	case "json":
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	case "toml":
		data, err = toml.Marshal(doc)
	case "yaml", "":
		data, err = yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", format, err)
	}
	return data, nil
}

func printSummary(w io.Writer, md *meta.Metadata) {
	ok := color.New(color.FgGreen, color.Bold)
	warn := color.New(color.FgYellow)
	info := color.New(color.FgCyan)

	members := 0
	for _, sd := range md.Structs {
		members += len(sd.Members)
	}
	_, _ = ok.Fprintf(w, "%d struct(s), %d member(s) encoded\n", len(md.Structs), members)
	for _, d := range md.Diagnostics {
		c := warn
		if d.Severity == meta.SeverityAmbiguity {
			c = info
		}
		_, _ = c.Fprintf(w, "  %s\n", d)
	}
}
