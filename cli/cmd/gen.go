package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ardnew/bthn/builtin"
	"github.com/ardnew/bthn/host"
	"github.com/ardnew/bthn/lang"
	"github.com/ardnew/bthn/log"
)

// Gen translates a program to Python 3 source.
type Gen struct {
	Indent int      `default:"4" help:"Spaces per indent level of generated source (0 for tabs)" short:"i"`
	Exec   bool     `help:"Run the generated source in the embedded Python interpreter and list its bindings" short:"x"`
	Define []string `help:"Bind NAME to the value of expression EXPR in the generated source" placeholder:"NAME=EXPR" short:"D"`

	Source string `arg:"" default:"-" help:"Program file or '-' for stdin." name:"source"`
}

// Run executes the gen command.
func (g *Gen) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	prog, err := parseSource(ctx, g.Source)
	if err != nil {
		return err
	}

	out := outputFrom(ctx)

	seed := builtin.Seed(out)
	if err := bindDefines(seed, g.Define); err != nil {
		return err
	}

	opts := []lang.Option{
		lang.WithLogger(log.Default()),
		lang.WithIndent(g.indentUnit()),
	}

	if g.Exec {
		py := host.New(host.WithOutput(out), host.WithLogger(log.Default()))

		env, err := lang.Execute(ctx, py, prog, seed, opts...)
		if err != nil {
			return lang.WrapError(err).
				With(slog.String("command", "gen"))
		}

		return writeBindings(out, env)
	}

	src, err := lang.Generate(ctx, prog, seed, opts...)
	if err != nil {
		return lang.WrapError(err).
			With(slog.String("command", "gen"))
	}

	if _, err := io.WriteString(out, src); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

func (g *Gen) indentUnit() string {
	if g.Indent <= 0 {
		return "\t"
	}

	return strings.Repeat(" ", g.Indent)
}

// writeBindings writes one NAME = VALUE line per binding of env.
func writeBindings(w io.Writer, env *lang.Environment) error {
	for name, v := range env.All() {
		text := v.String()
		if s, ok := v.AsString(); ok {
			text = fmt.Sprintf("%q", s)
		}

		if _, err := fmt.Fprintf(w, "%s = %s\n", name, text); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}
