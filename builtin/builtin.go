// Package builtin provides the seed environment that bthn programs run
// against. The only builtin is print.
package builtin

import (
	"context"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/ardnew/bthn/lang"
)

// table maps each builtin name to a constructor taking the output writer.
//
//nolint:gochecknoglobals
var table = map[string]func(io.Writer) lang.BuiltinFunc{
	"print": Print,
}

// Names returns the names of the builtins in sorted order.
func Names() []string {
	return slices.Sorted(maps.Keys(table))
}

// Seed returns a new environment binding every builtin, with output
// written to w.
func Seed(w io.Writer) *lang.Environment {
	env := lang.NewEnvironment()

	for name, mk := range table {
		env.Define(name, mk(w))
	}

	return env
}

// Print returns the print builtin: its arguments are formatted with
// [Format] and written to w followed by a newline. It returns the
// unbound value.
func Print(w io.Writer) lang.BuiltinFunc {
	return func(_ context.Context, args []lang.Value) (lang.Value, error) {
		if _, err := io.WriteString(w, Format(args)+"\n"); err != nil {
			return lang.Unbound(), err
		}

		return lang.Unbound(), nil
	}
}

// Format joins the printed form of args with single spaces.
func Format(args []lang.Value) string {
	var sb strings.Builder

	for i, a := range args {
		if i > 0 {
			sb.WriteByte(' ')
		}

		sb.WriteString(a.String())
	}

	return sb.String()
}
