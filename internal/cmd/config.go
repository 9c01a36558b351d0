package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/Alia5/cborgen/internal/codegen/common"
	"github.com/Alia5/cborgen/internal/configpaths"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"
)

// ConfigCommand groups config-related subcommands.
type ConfigCommand struct {
	Init ConfigInit `cmd:"" help:"Generate a configuration template"`
}

// ConfigInit scaffolds a configuration file for a specific command.
type ConfigInit struct {
	Command string `arg:"" name:"command" help:"Command to generate config for" enum:"generate,inspect,verify"`
	Format  string `help:"Output format" enum:"json,yaml,toml" default:"json"`
	Output  string `help:"Destination file path (defaults to current directory)"`
	Force   bool   `help:"Overwrite if the file already exists"`
}

var configurable = map[string]reflect.Type{
	"generate": reflect.TypeOf(Generate{}),
	"inspect":  reflect.TypeOf(Inspect{}),
	"verify":   reflect.TypeOf(Verify{}),
}

// Run writes the flag defaults of the selected command as a configuration file.
func (c *ConfigInit) Run() error {
	t, ok := configurable[c.Command]
	if !ok {
		return errors.New("unknown command; expected 'generate', 'inspect' or 'verify'")
	}

	dest := c.Output
	if dest == "" {
		dest = c.Command + "." + configpaths.Ext(c.Format)
	}
	if !c.Force {
		if _, err := os.Stat(dest); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(dest); err != nil {
		return err
	}

	data, err := marshalTemplate(c.Format, flagDefaults(t))
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0o644)
}

func marshalTemplate(format string, root map[string]any) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(root, "", "  ")
	case "yaml":
		return yaml.Marshal(root)
	case "toml":
		return toml.Marshal(root)
	}
	return nil, fmt.Errorf("unsupported format: %s", format)
}

// configKey is the key the configuration resolvers look up for a flag: the
// flag name with dashes replaced by underscores.
func configKey(f reflect.StructField) string {
	if n := f.Tag.Get("name"); n != "" {
		return strings.ReplaceAll(n, "-", "_")
	}
	return common.ToSnakeCase(f.Name)
}

// flagDefaults maps every scalar flag of a command struct, including flags of
// embedded structs, to its default. Positional arguments are left out.
func flagDefaults(t reflect.Type) map[string]any {
	out := map[string]any{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if _, ok := f.Tag.Lookup("arg"); ok {
			continue
		}
		if _, ok := f.Tag.Lookup("embed"); ok {
			for k, v := range flagDefaults(f.Type) {
				out[k] = v
			}
			continue
		}
		def := f.Tag.Get("default")
		switch f.Type.Kind() {
		case reflect.String:
			out[configKey(f)] = def
		case reflect.Bool:
			b, _ := strconv.ParseBool(def)
			out[configKey(f)] = b
		case reflect.Int:
			n, _ := strconv.Atoi(def)
			out[configKey(f)] = n
		}
	}
	return out
}
