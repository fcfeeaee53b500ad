// Package cli contains the command line interface for bthn.
//
// # Usage
//
// Without a command, bthn runs the program named by its argument, or read
// from stdin:
//
//	bthn fib.bthn
//	bthn run --define limit=10 fib.bthn
//	bthn gen --indent 2 fib.bthn > fib.py
//	bthn gen --exec fib.bthn
//	bthn tokens --format yaml fib.bthn
//	bthn repl --load fib.bthn
//
// # Configuration
//
// Flag defaults are read from config.yaml in the user configuration
// directory (see [resolve]). The file can be created from the current flag
// values with:
//
//	bthn init
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (text, json)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize log output
//
// Log records are written to stderr so that they never mix with program
// output.
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory (default:
//     ~/.cache/bthn/pprof)
package cli
