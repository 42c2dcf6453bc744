package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/scribe/cli/cmd/repl"
	"github.com/ardnew/scribe/lang"
	"github.com/ardnew/scribe/log"
	"github.com/ardnew/scribe/pkg"
)

// Repl renders expressions and templates interactively.
type Repl struct {
	compileFlags `embed:""`

	History   string `default:"${history}" help:"History file (${default})." placeholder:"PATH" type:"path"`
	NoHistory bool   `                     help:"Do not read or write history."`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	path := r.History
	if r.NoHistory {
		path = ""
	}

	logger := log.Default()

	logger.DebugContext(ctx, "starting repl",
		slog.String("history", path),
		slog.String("version", pkg.Version()),
	)

	rt := lang.NewRuntime(globalsFrom(ctx), r.options()...)

	if err := repl.Run(ctx, rt, path, logger); err != nil {
		return ErrInteractive.Wrap(err)
	}

	return nil
}
