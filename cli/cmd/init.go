package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/scribe/log"
	"github.com/ardnew/scribe/profile"
)

// configIndent is the indent width of the generated configuration file.
const configIndent = 2

// Init writes a configuration file holding the current value of every global
// flag.
type Init struct {
	Force  bool   `help:"Overwrite existing configuration file" short:"f"`
	Output string `default:"${config}" help:"Configuration file to write." short:"o" type:"path"`
}

// flagsIgnored are flag name prefixes never written to the configuration.
var flagsIgnored = []string{"help", "version", "config", profile.Tag}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	path := i.Output

	_, err = os.Stat(path)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", path)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	data, err := yaml.MarshalContext(ctx, i.config(ctx), yaml.Indent(configIndent))
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return ErrWriteConfig.With(slog.String("file", path)).Wrap(err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ErrWriteConfig.With(slog.String("file", path)).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", path),
		slog.Int("bytes", len(data)),
	)

	return nil
}

// config collects the values of the application's own flags, in declaration
// order, keyed by flag name.
func (i *Init) config(ctx context.Context) yaml.MapSlice {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return yaml.MapSlice{}
	}

	conf := yaml.MapSlice{}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(flagsIgnored, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if val, ok := flagValue(ktx, flag); ok {
			conf = append(conf, yaml.MapItem{Key: flag.Name, Value: val})
		}
	}

	return conf
}

// flagValue returns the YAML form of a flag's value. Empty strings and empty
// lists are omitted.
func flagValue(ktx *kong.Context, flag *kong.Flag) (any, bool) {
	val := ktx.FlagValue(flag)
	if val == nil {
		return nil, false
	}

	switch v := val.(type) {
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return v, true

	case string:
		return v, v != ""
	}

	rv := reflect.ValueOf(val)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return nil, false
		}

		list := make([]any, rv.Len())
		for n := range rv.Len() {
			list[n] = fmt.Sprint(rv.Index(n).Interface())
		}

		return list, true

	case reflect.String:
		return rv.String(), rv.Len() > 0

	default:
		return fmt.Sprint(val), true
	}
}
