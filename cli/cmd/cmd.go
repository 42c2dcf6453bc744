package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/ardnew/scribe/lang"
	"github.com/ardnew/scribe/log"
)

type (
	kongContextKey struct{}
	globalsKey     struct{}
	outputKey      struct{}
	inputKey       struct{}
)

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, kongContextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(kongContextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// WithGlobals returns a new context.Context carrying the template namespace
// commands evaluate against.
func WithGlobals(ctx context.Context, globals *lang.Map) context.Context {
	return context.WithValue(ctx, globalsKey{}, globals)
}

func globalsFrom(ctx context.Context) *lang.Map {
	m, ok := ctx.Value(globalsKey{}).(*lang.Map)
	if !ok || m == nil {
		return lang.NewMap()
	}

	return m
}

// WithOutput returns a new context.Context directing command output to w
// instead of os.Stdout.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// WithInput returns a new context.Context reading the standard input source
// "-" from r instead of os.Stdin.
func WithInput(ctx context.Context, r io.Reader) context.Context {
	return context.WithValue(ctx, inputKey{}, r)
}

func inputFrom(ctx context.Context) io.Reader {
	if r, ok := ctx.Value(inputKey{}).(io.Reader); ok && r != nil {
		return r
	}

	return os.Stdin
}

// compileFlags are shared by the commands that compile templates.
type compileFlags struct {
	Specialize bool `default:"true" help:"Emit specialized append and fused member instructions." negatable:""`
}

func (c compileFlags) options() []lang.Option {
	return []lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithSpecialize(c.Specialize),
	}
}

// source is one template read from a file or stdin.
type source struct {
	name string
	text string
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// readSources reads the templates named by paths in order.
//
// Paths resolving to the same file are read once. Every "-" is replaced by a
// single read of stdin, placed last so it follows all regular files. No paths
// at all reads stdin.
func readSources(ctx context.Context, paths []string, opts ...lang.Option) ([]source, error) {
	if len(paths) == 0 {
		paths = []string{stdinSource}
	}

	var (
		srcs     = make([]source, 0, len(paths))
		seen     = make(map[fileKey]struct{})
		hasStdin bool
	)

	for _, path := range paths {
		if path == stdinSource {
			hasStdin = true

			continue
		}

		file, ok, err := openUniqueFile(path, seen)
		if err != nil {
			return nil, ErrReadSource.With(slog.String("file", path)).Wrap(err)
		}

		if !ok {
			log.DebugContext(ctx, "skipping duplicate source", slog.String("file", path))

			continue
		}

		text, err := lang.ReadSource(ctx, file, opts...)
		_ = file.Close()

		if err != nil {
			return nil, ErrReadSource.With(slog.String("file", path)).Wrap(err)
		}

		srcs = append(srcs, source{name: path, text: text})
	}

	if hasStdin {
		text, err := lang.ReadSource(ctx, inputFrom(ctx), opts...)
		if err != nil {
			return nil, ErrReadSource.With(slog.String("file", stdinSource)).Wrap(err)
		}

		srcs = append(srcs, source{name: stdinSource, text: text})
	}

	return srcs, nil
}

// openUniqueFile opens the file at path unless a path resolving to the same
// device and inode was opened before, in which case ok is false.
func openUniqueFile(path string, seen map[fileKey]struct{}) (f *os.File, ok bool, err error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, false, err
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return nil, false, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, false, err
	}

	if key, ok := makeFileKey(info); ok {
		if _, exists := seen[key]; exists {
			return nil, false, nil
		}

		seen[key] = struct{}{}
	}

	f, err = os.Open(resolved)
	if err != nil {
		return nil, false, err
	}

	return f, true, nil
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}
