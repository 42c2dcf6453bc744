package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ardnew/scribe/lang"
)

// Disasm compiles templates and writes their bytecode.
type Disasm struct {
	compileFlags `embed:""`

	Format string   `default:"text" enum:"text,json,yaml" help:"Output format (${enum}); text is a listing." short:"f"`
	Indent int      `default:"2"                          help:"Indent width of JSON and YAML output; 0 is compact."`
	Source []string `arg:"" help:"Template file(s), or '-' for stdin." optional:"" type:"path"`
}

// Run executes the disasm command.
func (d *Disasm) Run(ctx context.Context) error {
	format, err := lang.ParseFormat(d.Format)
	if err != nil {
		return ErrFormat.Wrap(err)
	}

	opts := d.options()

	srcs, err := readSources(ctx, d.Source, opts...)
	if err != nil {
		return err
	}

	out := outputFrom(ctx)

	for i, src := range srcs {
		prog, err := lang.CompileCached(ctx, src.text, opts...)
		if err != nil {
			return ErrTemplate.With(slog.String("file", src.name)).Wrap(err)
		}

		if len(srcs) > 1 {
			if err := header(out, i, src.name, format); err != nil {
				return err
			}
		}

		if err := lang.WriteProgram(ctx, out, prog, format, d.Indent); err != nil {
			return ErrWriteOutput.With(slog.String("file", src.name)).Wrap(err)
		}
	}

	return nil
}

// header separates the output of consecutive sources. JSON output is left
// as one document per line.
func header(w io.Writer, i int, name string, format lang.Format) error {
	var err error

	switch format {
	case lang.FormatText, lang.FormatTree:
		if i > 0 {
			_, err = fmt.Fprintln(w)
		}

		if err == nil {
			_, err = fmt.Fprintf(w, "== %s\n", name)
		}

	case lang.FormatYAML:
		_, err = fmt.Fprintf(w, "--- # %s\n", name)
	}

	if err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
