package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ardnew/scribe/lang"
)

// Check parses templates and reports their syntax errors.
type Check struct {
	Quiet  bool     `help:"Only set the exit status." short:"q"`
	Source []string `arg:"" help:"Template file(s), or '-' for stdin." optional:"" type:"path"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) error {
	opts := compileFlags{}.options()

	srcs, err := readSources(ctx, c.Source, opts...)
	if err != nil {
		return err
	}

	out := outputFrom(ctx)
	failed := 0

	for _, src := range srcs {
		res := lang.Parse(ctx, src.text, opts...)
		if !res.HasErrors() {
			continue
		}

		failed++

		if c.Quiet {
			continue
		}

		var perr *lang.ParseError
		if errors.As(res.Err(), &perr) {
			if _, err := fmt.Fprintf(out, "%s: %s\n", src.name, perr.Error()); err != nil {
				return ErrWriteOutput.Wrap(err)
			}
		}
	}

	if failed > 0 {
		return ErrDiagnostics.With(
			slog.Int("templates", len(srcs)),
			slog.Int("failed", failed),
		)
	}

	return nil
}
