package lang

import (
	"context"
	"log/slog"
)

// Host executes generated target source and returns the data bindings left
// at top level.
type Host interface {
	Execute(ctx context.Context, source string) (*Environment, error)
}

// Evaluate runs prog against env, which is modified in place. A nil env is
// replaced with an empty one. The result carries the value of the last
// statement run, or the value of a top-level return.
func Evaluate(ctx context.Context, prog *Program, env *Environment, opts ...Option) (Result, error) {
	if env == nil {
		env = NewEnvironment()
	}

	ev := NewEvaluator(ctx, opts...)

	res, err := prog.Evaluate(ev, env)
	if err != nil {
		ev.logger.DebugContext(ctx, "evaluate failed", slog.Any("error", err))

		return Result{}, err
	}

	ev.logger.TraceContext(ctx, "evaluate complete",
		slog.Int("binding_count", env.Len()),
		slog.Int("diagnostic_count", len(ev.diags)),
		slog.Any("value", res.Value))

	return res, nil
}

// Run evaluates prog in a fresh environment and returns it.
func Run(ctx context.Context, prog *Program, opts ...Option) (*Environment, error) {
	env := NewEnvironment()

	if _, err := Evaluate(ctx, prog, env, opts...); err != nil {
		return env, err
	}

	return env, nil
}

// Execute generates target source for prog and runs it on host.
func Execute(ctx context.Context, host Host, prog *Program, seed *Environment, opts ...Option) (*Environment, error) {
	src, err := Generate(ctx, prog, seed, opts...)
	if err != nil {
		return nil, err
	}

	return host.Execute(ctx, src)
}
