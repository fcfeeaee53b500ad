package log_test

import (
	"log/slog"
	"os"

	"github.com/ardnew/bthn/log"
)

func Example_basic() {
	logger := log.Make(os.Stderr)
	logger.Info("program loaded", slog.String("source", "fib.bthn"))
}

func Example_trace() {
	logger := log.Make(os.Stderr,
		log.WithLevel(log.LevelTrace),
		log.WithFormat(log.FormatText),
		log.WithPretty(false))

	logger.Trace("token", slog.String("kind", "IDENT"), slog.String("text", "x"))
}

func Example_withAttributes() {
	logger := log.Make(os.Stderr).With(slog.String("command", "gen"))

	logger.Warn("python execution abandoned", slog.Int("byte_count", 128))
}

// A zero Logger discards everything, so library code can log
// unconditionally.
func Example_zero() {
	var logger log.Logger

	logger.Error("never written")
}
