package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/ardnew/scribe/lang"
	"github.com/ardnew/scribe/log"
)

// Render compiles templates and writes their output sections.
type Render struct {
	compileFlags `embed:""`

	Format  string   `default:"text" enum:"text,json,yaml" help:"Output format (${enum})."                        short:"f"`
	Indent  int      `default:"2"                          help:"Indent width of JSON and YAML output; 0 is compact."`
	Section []int    `                                     help:"Only write sections with this index (repeatable)." placeholder:"N" short:"n"`
	Source  []string `arg:"" help:"Template file(s), or '-' for stdin." optional:"" type:"path"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) error {
	format, err := lang.ParseFormat(r.Format)
	if err != nil {
		return ErrFormat.Wrap(err)
	}

	keep, err := sectionIndexes(r.Section)
	if err != nil {
		return err
	}

	opts := r.options()

	srcs, err := readSources(ctx, r.Source, opts...)
	if err != nil {
		return err
	}

	rt := lang.NewRuntime(globalsFrom(ctx), opts...)
	out := outputFrom(ctx)

	for i, src := range srcs {
		sections, err := render(ctx, rt, src, opts...)
		if err != nil {
			return err
		}

		if i > 0 && format == lang.FormatYAML {
			if _, err := io.WriteString(out, "---\n"); err != nil {
				return ErrWriteOutput.Wrap(err)
			}
		}

		err = lang.WriteSections(ctx, out, sections.Filter(keep...), format, r.Indent)
		if err != nil {
			return ErrWriteOutput.With(slog.String("file", src.name)).Wrap(err)
		}
	}

	return nil
}

func render(ctx context.Context, rt *lang.Runtime, src source, opts ...lang.Option) (*lang.Section, error) {
	prog, err := lang.CompileCached(ctx, src.text, opts...)
	if err != nil {
		return nil, ErrTemplate.With(slog.String("file", src.name)).Wrap(err)
	}

	sections, err := rt.Run(ctx, prog)
	if err != nil {
		return nil, ErrTemplate.With(slog.String("file", src.name)).Wrap(err)
	}

	log.DebugContext(ctx, "rendered template",
		slog.String("file", src.name),
		slog.Int("sections", sections.Len()),
	)

	return sections, nil
}

func sectionIndexes(in []int) ([]uint8, error) {
	out := make([]uint8, len(in))

	for i, n := range in {
		if n < 0 || n > lang.MaxSectionIndex {
			return nil, ErrSection.With(slog.Int("section", n))
		}

		out[i] = uint8(n)
	}

	return out, nil
}
