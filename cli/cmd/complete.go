package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/scribe/lang"
)

// Complete writes the names that can complete the expression at a byte
// offset of a template, one per line. Functions are suffixed with "()".
type Complete struct {
	Pos    int    `default:"-1" help:"Byte offset of the cursor; negative counts from the end, ignoring trailing line breaks."`
	Source string `arg:"" default:"-" help:"Template file, or '-' for stdin." optional:"" type:"path"`
}

// Run executes the complete command.
func (c *Complete) Run(ctx context.Context) error {
	opts := compileFlags{}.options()

	srcs, err := readSources(ctx, []string{c.Source}, opts...)
	if err != nil {
		return err
	}

	text := srcs[0].text

	pos := c.Pos
	if pos < 0 {
		pos += len(strings.TrimRight(text, "\r\n")) + 1
	}

	if pos < 0 || pos > len(text) {
		return ErrPosition.With(
			slog.Int("pos", c.Pos),
			slog.Int("length", len(text)),
		)
	}

	out := outputFrom(ctx)
	rt := lang.NewRuntime(globalsFrom(ctx), opts...)

	for _, cand := range rt.Complete(ctx, text, pos) {
		name := cand.Name
		if cand.Function {
			name += "()"
		}

		if _, err := fmt.Fprintln(out, name); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}
