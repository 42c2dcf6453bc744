package lang

import (
	"bytes"
	"context"
	"encoding/gob"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// programCache stores compiled programs keyed by source and option hash.
var programCache sync.Map

// cacheEntry compiles its source once; concurrent lookups of the same key
// wait on the first compilation.
type cacheEntry struct {
	once sync.Once
	prog *Program
	err  error
}

// hashOptions hashes the options that change the generated code.
func hashOptions(c config) uint64 {
	var buf bytes.Buffer

	enc := gob.NewEncoder(&buf)

	_ = enc.Encode(c.specialize)

	return xxh3.Hash(buf.Bytes())
}

// cacheKey combines the source and option hashes.
func cacheKey(src string, c config) (key string, srcHash, optsHash uint64) {
	srcHash = xxh3.HashString(src)
	optsHash = hashOptions(c)

	return strconv.FormatUint(srcHash^optsHash, 36), srcHash, optsHash
}

// CompileCached compiles src, reusing the program of an earlier call with
// the same source and code generation options. Failures are cached too.
func CompileCached(ctx context.Context, src string, opts ...Option) (*Program, error) {
	cfg := makeConfig(opts...)

	key, srcHash, optsHash := cacheKey(src, cfg)

	value, hit := programCache.LoadOrStore(key, new(cacheEntry))

	entry, ok := value.(*cacheEntry)
	if !ok {
		return nil, ErrCompile.With(slog.String("issue", "invalid entry type in cache"))
	}

	cfg.logger.TraceContext(ctx, "cache lookup",
		slog.String("source_hash", strconv.FormatUint(srcHash, 16)),
		slog.String("opts_hash", strconv.FormatUint(optsHash, 16)),
		slog.Bool("cache_hit", hit),
	)

	entry.once.Do(func() {
		entry.prog, entry.err = CompileString(ctx, src, opts...)
	})

	return entry.prog, entry.err
}

// CompileReader reads a whole template from r and compiles it through the
// cache.
func CompileReader(ctx context.Context, r io.Reader, opts ...Option) (*Program, error) {
	src, err := ReadSource(ctx, r, opts...)
	if err != nil {
		return nil, err
	}

	return CompileCached(ctx, src, opts...)
}

// ReadSource reads all of r with asynchronous read-ahead.
func ReadSource(ctx context.Context, r io.Reader, opts ...Option) (string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return "", ErrReadInput.Wrap(err).With(slog.String("source", "reader"))
	}

	makeConfig(opts...).logger.TraceContext(ctx, "read input",
		slog.Int("source_bytes", len(data)),
		slog.Bool("read_ahead", true),
	)

	return string(data), nil
}

// ClearCache removes every cached program.
func ClearCache() {
	programCache.Range(func(k, _ any) bool {
		programCache.Delete(k)

		return true
	})
}

// CacheLen returns the number of cached programs.
func CacheLen() int {
	n := 0

	programCache.Range(func(_, _ any) bool {
		n++

		return true
	})

	return n
}
