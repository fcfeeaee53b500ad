// Package profile provides optional runtime profiling for bthn.
//
// Profiling is compiled in only with the "pprof" build tag, which links
// [github.com/pkg/profile] and registers the [net/http/pprof] handlers.
// Without the tag every [Profiler] is a no-op and [Modes] is empty.
//
// A profiler writes its data to a directory named by [Profiler.Path]:
//
//	p := profile.Profiler{Mode: "cpu", Path: "/tmp/profiles"}
//	defer p.Start().Stop()
//
// The bthn command exposes this through its --pprof-mode and --pprof-dir
// flags when built with the tag:
//
//	go build -tags pprof .
//	./bthn --pprof-mode cpu run fib.bthn
//	go tool pprof -http=: ~/.cache/bthn/pprof/cpu.pprof
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`

// Stopper stops a running profiler and flushes its output.
type Stopper interface{ Stop() }

// Profiler describes a profiling session.
type Profiler struct {
	// Mode is one of [Modes]. An empty or unknown mode disables profiling.
	Mode string
	// Path is the output directory. Empty selects the working directory.
	Path string
	// Quiet suppresses the profiler's own log messages.
	Quiet bool
}

// Start starts profiling and returns a [Stopper] that ends it. The
// returned Stopper is always safe to call, even when profiling is disabled.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

// Enabled reports whether profiling support was compiled in.
func Enabled() bool { return len(Modes()) > 0 }

type ignore struct{}

func (ignore) Stop() {}
