// Package config defines the command line and configuration file surface.
package config

import (
	"github.com/alecthomas/kong"

	"github.com/Alia5/cborgen/internal/cmd"
)

type Log struct {
	Level   string `help:"Log level" default:"info" enum:"trace,debug,info,warn,error" env:"CBORGEN_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" type:"path" env:"CBORGEN_LOG_FILE"`
	Format  string `help:"Log format; auto uses text on a terminal and JSON otherwise" default:"auto" enum:"auto,text,json" env:"CBORGEN_LOG_FORMAT"`
	RawFile string `help:"Write hex dumps of encoded values to this file" type:"path" env:"CBORGEN_LOG_RAW_FILE"`
}

type CLI struct {
	ConfigFile string           `name:"config" help:"Configuration file (JSON, YAML or TOML)" type:"path" env:"CBORGEN_CONFIG"`
	Version    kong.VersionFlag `help:"Print the version and exit"`
	Log        Log              `embed:"" prefix:"log."`

	Generate cmd.Generate      `cmd:"" help:"Generate tinycbor encode/decode functions for the structs of a C header"`
	Inspect  cmd.Inspect       `cmd:"" help:"Print the resolved struct model and skipped members"`
	Verify   cmd.Verify        `cmd:"" help:"Round-trip a sample value of every struct through the reference codec"`
	Config   cmd.ConfigCommand `cmd:"" help:"Configuration helpers"`
}
