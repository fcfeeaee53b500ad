package host

import (
	"context"
	"io"
	"log/slog"
	"math/big"
	"os"

	"github.com/go-python/gpython/py"
	_ "github.com/go-python/gpython/stdlib" // register builtins and sys

	"github.com/ardnew/bthn/builtin"
	"github.com/ardnew/bthn/lang"
	"github.com/ardnew/bthn/log"
)

// ErrExecute is returned when the interpreter fails to compile or run the
// generated source.
var ErrExecute = lang.NewError("python execution failed")

// sourceDesc names generated source in interpreter tracebacks.
const sourceDesc = "<bthn>"

// Python is a [lang.Host] backed by gpython.
type Python struct {
	output io.Writer
	logger log.Logger
}

// Option configures a [Python] host.
type Option func(*Python)

// WithOutput sets the writer that print writes to. The default is
// [os.Stdout].
func WithOutput(w io.Writer) Option {
	return func(p *Python) {
		if w != nil {
			p.output = w
		}
	}
}

// WithLogger sets the logger used to trace execution.
func WithLogger(logger log.Logger) Option {
	return func(p *Python) {
		p.logger = logger
	}
}

// New returns a host configured by opts.
func New(opts ...Option) *Python {
	p := &Python{output: os.Stdout}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Execute runs source as the __main__ module of a new interpreter context.
//
// The interpreter cannot be preempted. When ctx is done first, Execute
// returns [lang.ErrInterrupted] and the interpreter is left to finish on its
// own goroutine.
func (p *Python) Execute(ctx context.Context, source string) (*lang.Environment, error) {
	type outcome struct {
		env *lang.Environment
		err error
	}

	if ctx.Err() != nil {
		return nil, lang.ErrInterrupted.Wrap(context.Cause(ctx))
	}

	done := make(chan outcome, 1)

	go func() {
		env, err := p.run(source)
		done <- outcome{env, err}
	}()

	select {
	case <-ctx.Done():
		p.logger.DebugContext(ctx, "python execution abandoned",
			slog.Any("cause", context.Cause(ctx)))

		return nil, lang.ErrInterrupted.Wrap(context.Cause(ctx))

	case out := <-done:
		if out.err != nil {
			p.logger.DebugContext(ctx, "python execution failed",
				slog.Any("error", out.err))

			return nil, out.err
		}

		p.logger.TraceContext(ctx, "python execution complete",
			slog.Int("binding_count", out.env.Len()))

		return out.env, nil
	}
}

func (p *Python) run(source string) (*lang.Environment, error) {
	pctx := py.NewContext(py.DefaultContextOpts())
	defer pctx.Close()

	module, err := pctx.ModuleInit(&py.ModuleImpl{
		Info: py.ModuleInfo{
			Name:     "__main__",
			FileDesc: sourceDesc,
		},
	})
	if err != nil {
		return nil, ErrExecute.Wrap(err)
	}

	module.Globals["print"] = py.MustNewMethod("print", p.print, 0,
		"print(*values)\n\nPrint the values separated by spaces.")

	code, err := py.Compile(source+"\n", sourceDesc, py.ExecMode, 0, true)
	if err != nil {
		return nil, ErrExecute.Wrap(err)
	}

	if _, err := py.RunCode(pctx, code, sourceDesc, module); err != nil {
		return nil, ErrExecute.Wrap(err)
	}

	env := lang.NewEnvironment()

	for name, obj := range module.Globals {
		if name == "print" {
			continue
		}

		src, ok := lang.SourceName(name)
		if !ok {
			continue
		}

		if v, ok := Value(obj); ok {
			env.Bind(src, v)
		}
	}

	return env, nil
}

func (p *Python) print(_ py.Object, args py.Tuple) (py.Object, error) {
	vals := make([]lang.Value, len(args))

	for i, arg := range args {
		v, ok := Value(arg)
		if !ok {
			v = lang.StringValue(Repr(arg))
		}

		vals[i] = v
	}

	if _, err := io.WriteString(p.output, builtin.Format(vals)+"\n"); err != nil {
		return nil, err
	}

	return py.None, nil
}

// Value converts a Python data object to a [lang.Value]. It reports false
// for objects with no bthn equivalent, such as functions and modules.
func Value(obj py.Object) (lang.Value, bool) {
	switch v := obj.(type) {
	case py.Bool:
		return lang.BoolValue(bool(v)), true
	case py.Int:
		return lang.NumberValue(float64(v)), true
	case py.Float:
		return lang.NumberValue(float64(v)), true
	case *py.BigInt:
		f, _ := (*big.Int)(v).Float64()

		return lang.NumberValue(f), true
	case py.String:
		return lang.StringValue(string(v)), true
	case py.NoneType:
		return lang.Unbound(), true
	default:
		return lang.Value{}, false
	}
}

// Repr returns a short description of a Python object with no bthn
// equivalent.
func Repr(obj py.Object) string {
	switch v := obj.(type) {
	case *py.Function:
		return "<def " + v.Name + ">"
	case *py.Method:
		return "<builtin " + v.Name + ">"
	default:
		return "<" + obj.Type().Name + ">"
	}
}
