package cli

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/expr-lang/expr"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/scribe/cli/cmd"
	"github.com/ardnew/scribe/lang"
	"github.com/ardnew/scribe/lang/stdlib"
	"github.com/ardnew/scribe/log"
)

// varsConfig names the sources of user variables layered over the standard
// library.
type varsConfig struct {
	Vars []string `help:"YAML file(s) of template variables; later files replace top-level keys." placeholder:"FILE"      sep:"none" short:"V" type:"existingfile"`
	Set  []string `help:"Set a variable to the result of an expression, e.g. --set 'port=8000+1'." placeholder:"NAME=EXPR" sep:"none" short:"D"`
}

// globals builds the template namespace: the standard library, then each
// --vars file, then each --set assignment in order.
func (v *varsConfig) globals(ctx context.Context) (*lang.Map, error) {
	user := lang.NewMap()

	for _, file := range v.Vars {
		m, err := loadVars(file)
		if err != nil {
			return nil, err
		}

		user.Merge(m)

		log.DebugContext(ctx, "loaded variables",
			slog.String("file", file),
			slog.Int("count", m.Len()),
		)
	}

	for _, set := range v.Set {
		if err := assign(user, set); err != nil {
			return nil, err
		}
	}

	return stdlib.New().Merge(user), nil
}

// loadVars decodes a YAML mapping, keeping document order for maps.
func loadVars(file string) (*lang.Map, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, cmd.ErrLoadVars.With(slog.String("file", file)).Wrap(err)
	}

	var doc any
	if err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap()); err != nil {
		return nil, cmd.ErrLoadVars.With(slog.String("file", file)).Wrap(err)
	}

	if doc == nil {
		return lang.NewMap(), nil
	}

	if _, ok := doc.(yaml.MapSlice); !ok {
		return nil, cmd.ErrLoadVars.
			With(slog.String("file", file)).
			Wrap(cmd.ErrNotMapping)
	}

	val, err := lang.FromNative(doc)
	if err != nil {
		return nil, cmd.ErrLoadVars.With(slog.String("file", file)).Wrap(err)
	}

	return val.AsMap(), nil
}

// assign evaluates the expression of a NAME=EXPR assignment with the
// variables bound so far in scope, then binds its result at the dotted NAME.
func assign(vars *lang.Map, set string) error {
	name, src, ok := strings.Cut(set, "=")
	if name = strings.TrimSpace(name); !ok || name == "" {
		return cmd.ErrSetVariable.
			With(slog.String("set", set)).
			Wrap(cmd.ErrAssignment)
	}

	env, _ := lang.ToNative(lang.MapValue(vars)).(map[string]any)

	prog, err := expr.Compile(src, expr.Env(env))
	if err != nil {
		return cmd.ErrSetVariable.With(slog.String("name", name)).Wrap(err)
	}

	out, err := expr.Run(prog, env)
	if err != nil {
		return cmd.ErrSetVariable.With(slog.String("name", name)).Wrap(err)
	}

	val, err := lang.FromNative(out)
	if err != nil {
		return cmd.ErrSetVariable.With(slog.String("name", name)).Wrap(err)
	}

	vars.SetPath(name, lang.Const(val))

	return nil
}

func (*varsConfig) group() kong.Group {
	return kong.Group{
		Key:         "vars",
		Title:       "Template variables",
		Description: "Bound over the standard library before any template is run.",
	}
}
