package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/scribe/cli/cmd"
	"github.com/ardnew/scribe/pkg"
)

// CLI is the top-level command-line interface for scribe.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`
	Vars  varsConfig  `embed:"" group:"vars"`

	Config  kong.ConfigFlag  `help:"Load flag defaults from a YAML file." placeholder:"FILE"`
	Version kong.VersionFlag `help:"Print version and exit."`

	Render   cmd.Render   `cmd:"" default:"withargs" help:"Render templates to their output sections"`
	Check    cmd.Check    `cmd:""                    help:"Report syntax errors in templates"`
	Ast      cmd.Ast      `cmd:""                    help:"Print the syntax tree of templates"`
	Disasm   cmd.Disasm   `cmd:""                    help:"Print the bytecode compiled from templates"`
	Complete cmd.Complete `cmd:""                    help:"List completions at a position in a template"`
	Repl     cmd.Repl     `cmd:""                    help:"Render expressions and templates interactively"`
	Init     cmd.Init     `cmd:""                    help:"Initialize configuration file"`
}

// Run executes the scribe CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFile := pkg.ConfigFile()

	vars := kong.Vars{
		"version":             pkg.Version(),
		cmd.ConfigIdentifier:  configFile,
		cmd.HistoryIdentifier: pkg.HistoryFile(),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but this early scan also catches boolean flags
	// like --log-pretty.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group(), cli.Vars.group()},
		),
		kong.DefaultEnvars(pkg.EnvPrefix()),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(kong.JSON, strings.TrimSuffix(configFile, ".yaml")+".json"),
		kong.Configuration(resolve(ctx), configFile),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	defer cli.Log.start(ctx)()

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	globals, err := cli.Vars.globals(ctx)
	if err != nil {
		return err
	}

	return ktx.Run(cmd.WithGlobals(ctx, globals), &cli)
}
