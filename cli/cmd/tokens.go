package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/bthn/lang"
	"github.com/ardnew/bthn/log"
)

// Tokens prints the token stream of a program.
type Tokens struct {
	Format string `default:"text" enum:"text,yaml" help:"Output format (${enum})" short:"o"`

	Source string `arg:"" default:"-" help:"Program file or '-' for stdin." name:"source"`
}

type tokenRecord struct {
	Kind   string `yaml:"kind"`
	Text   string `yaml:"text,omitempty"`
	Line   int    `yaml:"line"`
	Column int    `yaml:"column"`
}

type tokenDump struct {
	Tokens      []tokenRecord `yaml:"tokens"`
	Diagnostics []string      `yaml:"diagnostics,omitempty"`
}

// Run executes the tokens command.
func (t *Tokens) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	r, err := openSource(t.Source)
	if err != nil {
		return err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return lang.ErrReadInput.
			With(slog.String("source", t.Source)).
			Wrap(err)
	}

	lex := lang.NewLexer(string(data), lang.WithLogger(log.Default()))

	var dump tokenDump

	for tok, err := range lex.All() {
		if err != nil {
			return lang.WrapError(err).
				With(slog.String("command", "tokens"))
		}

		dump.Tokens = append(dump.Tokens, tokenRecord{
			Kind:   tok.Kind.String(),
			Text:   tok.Text,
			Line:   tok.Pos.Line,
			Column: tok.Pos.Column,
		})
	}

	for _, d := range lex.Diagnostics() {
		dump.Diagnostics = append(dump.Diagnostics, d.Error())
	}

	log.DebugContext(ctx, "tokenized source",
		slog.String("source", t.Source),
		slog.Int("token_count", len(dump.Tokens)),
		slog.Int("diagnostic_count", len(dump.Diagnostics)))

	out := outputFrom(ctx)

	if t.Format == "yaml" {
		b, err := yaml.Marshal(dump)
		if err != nil {
			return ErrYAMLMarshal.Wrap(err)
		}

		if _, err := out.Write(b); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	for _, tok := range dump.Tokens {
		line := fmt.Sprintf("%d:%d\t%s", tok.Line, tok.Column, tok.Kind)
		if tok.Text != "" {
			line += "\t" + tok.Text
		}

		if _, err := fmt.Fprintln(out, line); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	for _, d := range dump.Diagnostics {
		if _, err := fmt.Fprintln(out, "warning: "+d); err != nil {
			return ErrWriteOutput.Wrap(err)
		}
	}

	return nil
}
