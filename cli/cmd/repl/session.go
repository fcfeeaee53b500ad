package repl

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/ardnew/bthn/builtin"
	"github.com/ardnew/bthn/lang"
	"github.com/ardnew/bthn/log"
)

// session is the state a REPL accumulates across submissions: one
// environment that every submission runs against, the text printed by the
// print builtin, and the source of every submission that ran successfully.
type session struct {
	logger log.Logger
	env    *lang.Environment
	out    *bytes.Buffer
	source strings.Builder
}

func newSession(logger log.Logger) *session {
	s := &session{logger: logger, out: new(bytes.Buffer)}
	s.reset()

	return s
}

// reset discards every binding and the recorded source.
func (s *session) reset() {
	s.env = builtin.Seed(s.out)
	s.out.Reset()
	s.source.Reset()
}

// outcome is what running a submission produced.
type outcome struct {
	output string // text printed by the program
	echo   string // value of a trailing expression statement
	err    error
}

// eval parses and runs src in the session environment. The source is
// recorded only when it runs to completion.
func (s *session) eval(ctx context.Context, src string) outcome {
	prog, err := lang.ParseString(ctx, src, lang.WithLogger(s.logger))
	if err != nil {
		return outcome{err: err}
	}

	res, err := lang.Evaluate(ctx, prog, s.env, lang.WithLogger(s.logger))

	out := outcome{output: strings.TrimSuffix(s.out.String(), "\n"), err: err}
	s.out.Reset()

	if err != nil {
		return out
	}

	s.record(src)

	if echoes(prog) && !res.Value.IsUnbound() {
		out.echo = res.Value.String()
	}

	s.logger.TraceContext(ctx, "repl eval result",
		slog.String("type", res.Value.Type().String()),
		slog.Int("binding_count", s.env.Len()))

	return out
}

// replace runs src in a fresh environment and, if it succeeds, makes it the
// whole session. On failure the session is left as it was.
func (s *session) replace(ctx context.Context, src string) outcome {
	prev := s.env
	prevSource := s.source.String()

	s.env = builtin.Seed(s.out)
	s.source.Reset()

	out := s.eval(ctx, src)
	if out.err != nil {
		s.env = prev
		s.source.Reset()
		s.source.WriteString(prevSource)
	}

	return out
}

// generate returns the Python translation of the recorded source.
func (s *session) generate(ctx context.Context) (string, error) {
	prog, err := lang.ParseString(ctx, s.source.String(), lang.WithLogger(s.logger))
	if err != nil {
		return "", err
	}

	return lang.Generate(ctx, prog, builtin.Seed(io.Discard), lang.WithLogger(s.logger))
}

// Source returns the recorded source.
func (s *session) Source() string { return s.source.String() }

func (s *session) record(src string) {
	s.source.WriteString(src)

	if !strings.HasSuffix(src, "\n") {
		s.source.WriteByte('\n')
	}
}

// echoes reports whether the last statement of prog is an expression whose
// value should be shown.
func echoes(prog *lang.Program) bool {
	for i := len(prog.Statements) - 1; i >= 0; i-- {
		switch prog.Statements[i].(type) {
		case *lang.Blank:
			continue
		case *lang.ExpressionStatement:
			return true
		default:
			return false
		}
	}

	return false
}

// opensBlock reports whether line starts a statement that takes an indented
// block, so that more input must follow before it can run.
func opensBlock(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	switch lang.LookupIdent(fields[0]) {
	case lang.IFF, lang.ELS, lang.DEF, lang.LOP:
		return true
	default:
		return false
	}
}
