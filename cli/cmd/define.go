package cmd

import (
	"log/slog"
	"math"
	"strings"

	"github.com/expr-lang/expr"

	"github.com/ardnew/bthn/lang"
)

// bindDefines evaluates each NAME=EXPR definition and binds the result in
// env. Expressions use the expr language and may refer to the names bound
// by earlier definitions.
func bindDefines(env *lang.Environment, defs []string) error {
	scope := make(map[string]any, len(defs))

	for _, def := range defs {
		name, src, ok := strings.Cut(def, "=")
		name = strings.TrimSpace(name)

		if !ok || !isIdentifier(name) {
			return ErrDefine.
				With(slog.String("definition", def)).
				With(slog.String("issue", "want NAME=EXPR"))
		}

		out, err := expr.Eval(src, scope)
		if err != nil {
			return ErrDefine.
				With(slog.String("name", name)).
				Wrap(err)
		}

		v, ok := toValue(out)
		if !ok {
			return ErrDefine.
				With(slog.String("name", name)).
				With(slog.String("issue", "unsupported result type"))
		}

		scope[name] = out
		env.Bind(name, v)
	}

	return nil
}

// isIdentifier reports whether name lexes as a single non-keyword
// identifier.
func isIdentifier(name string) bool {
	var toks []lang.Token

	for tok, err := range lang.Tokenize(name) {
		if err != nil {
			return false
		}

		toks = append(toks, tok)
	}

	return len(toks) == 2 &&
		toks[0].Kind == lang.IDENT &&
		toks[0].Text == name &&
		toks[1].Kind == lang.EOF
}

// toValue converts the result of an expr program to a [lang.Value].
func toValue(v any) (lang.Value, bool) {
	switch v := v.(type) {
	case nil:
		return lang.Unbound(), true
	case bool:
		return lang.BoolValue(v), true
	case string:
		return lang.StringValue(v), true
	case int:
		return lang.NumberValue(float64(v)), true
	case int64:
		return lang.NumberValue(float64(v)), true
	case uint64:
		return lang.NumberValue(float64(v)), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return lang.Value{}, false
		}

		return lang.NumberValue(v), true
	default:
		return lang.Value{}, false
	}
}
