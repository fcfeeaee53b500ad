// Package log wraps [log/slog] with a fixed set of levels (including
// [LevelTrace]), attribute-only logging methods and colorized handlers.
//
// A [Logger] is configured once with functional options and is immutable;
// [Logger.Wrap] and [Logger.With] return modified copies:
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("kitchen"))
//
//	logger.Debug("parsed", slog.Int("statement_count", 12))
//
// The zero Logger discards everything, so components can hold one without
// checking whether logging was configured.
//
// The package also keeps a default logger, adjusted with [Config] and used
// by the package-level functions such as [Info] and [DebugContext].
package log
