package cmd

import (
	"context"
	"log/slog"

	"github.com/ardnew/bthn/builtin"
	"github.com/ardnew/bthn/lang"
	"github.com/ardnew/bthn/log"
)

// Run evaluates a program with the tree-walking interpreter.
type Run struct {
	Define   []string `help:"Bind NAME to the value of expression EXPR before running" placeholder:"NAME=EXPR" short:"D"`
	MaxDepth int      `default:"${maxDepth}" help:"Maximum depth of nested function calls"`

	Source string `arg:"" default:"-" help:"Program file or '-' for stdin." name:"source"`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := parseSource(ctx, r.Source)
	if err != nil {
		return err
	}

	env := builtin.Seed(outputFrom(ctx))

	if err := bindDefines(env, r.Define); err != nil {
		return err
	}

	opts := []lang.Option{lang.WithLogger(log.Default())}
	if r.MaxDepth > 0 {
		opts = append(opts, lang.WithMaxDepth(r.MaxDepth))
	}

	res, err := lang.Evaluate(ctx, prog, env, opts...)
	if err != nil {
		return lang.WrapError(err).
			With(slog.String("command", "run"))
	}

	log.DebugContext(ctx, "run complete",
		slog.String("source", r.Source),
		slog.Any("result", res.Value),
		slog.Int("binding_count", env.Len()))

	return nil
}
