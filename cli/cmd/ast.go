package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/scribe/lang"
	"github.com/ardnew/scribe/log"
)

// Ast writes the syntax trees of templates. Statements that failed to parse
// are omitted; their diagnostics are logged.
type Ast struct {
	Format string   `arg:"" default:"tree" enum:"tree,json,yaml" help:"Output format (${enum})." optional:""`
	Indent int      `default:"2" help:"Indent width; 0 is compact JSON or flow YAML."`
	Source []string `arg:"" help:"Template file(s), or '-' for stdin." optional:"" type:"path"`
}

// Run executes the ast command.
func (a *Ast) Run(ctx context.Context) error {
	format, err := lang.ParseFormat(a.Format)
	if err != nil {
		return ErrFormat.Wrap(err)
	}

	opts := compileFlags{}.options()

	srcs, err := readSources(ctx, a.Source, opts...)
	if err != nil {
		return err
	}

	out := outputFrom(ctx)

	for i, src := range srcs {
		res := lang.Parse(ctx, src.text, opts...)
		for _, d := range res.Errors {
			logDiagnostic(ctx, src.name, d)
		}

		if len(srcs) > 1 {
			if err := header(out, i, src.name, format); err != nil {
				return err
			}
		}

		if err := lang.WriteExprs(ctx, out, res.Exprs, format, a.Indent); err != nil {
			return ErrWriteOutput.With(slog.String("file", src.name)).Wrap(err)
		}
	}

	return nil
}

func logDiagnostic(ctx context.Context, name string, d lang.Diagnostic) {
	log.WarnContext(ctx, "syntax error",
		slog.String("file", name),
		slog.Int("line", d.Line),
		slog.Int("column", d.Column),
		slog.String("message", d.Message),
	)
}
