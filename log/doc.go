// Package log is a small leveled logging layer over [log/slog].
//
// A [Logger] is created with [Make] and configured with functional options:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatJSON),
//		log.WithTimeLayout("Kitchen"))
//
// Methods take [slog.Attr] values rather than alternating key/value pairs:
//
//	logger.InfoContext(ctx, "rendered", slog.Int("sections", n))
//
// [LevelTrace] sits below [LevelDebug]. The template engine logs every phase
// at trace level, so a logger at [LevelDebug] or above keeps it quiet.
//
// [WithPretty] selects a colorized handler for terminals. Package-level
// functions such as [Info] and [ErrorContext] write to a process-wide logger
// that [Config] and [SetDefault] replace.
package log
