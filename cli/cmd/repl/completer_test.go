package repl

import (
	"context"
	"slices"
	"testing"

	"github.com/ardnew/bthn/lang"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"call argument", "f 1 ba", 6, "ba", 4, 6},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_paren", "(fo", 3, "fo", 1, 3},
		{"after_equals", "a=fo", 4, "fo", 2, 4},
		{"empty_at_boundary", "set x ", 6, "", 6, 6},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"indented", "    ret", 7, "ret", 4, 7},
		{"underscore", "my_var", 6, "my_var", 0, 6},
		{"cursor past end", "ab", 10, "ab", 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestEvalCandidates(t *testing.T) {
	env := lang.NewEnvironment()
	env.Bind("total", lang.NumberValue(1))
	env.Bind("set", lang.NumberValue(2))
	env.Define("print", func(context.Context, []lang.Value) (lang.Value, error) {
		return lang.Unbound(), nil
	})

	got := evalCandidates(env)

	for _, want := range []string{"iff", "lop", "xnor", "print", "total"} {
		if !slices.Contains(got, want) {
			t.Errorf("missing candidate %q in %v", want, got)
		}
	}

	count := 0
	for _, name := range got {
		if name == "set" {
			count++
		}
	}

	if count != 1 {
		t.Errorf("expected set once, got %d times", count)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		in   lang.Value
		want string
	}{
		{lang.NumberValue(2.5), "2.5"},
		{lang.StringValue("hi"), `"hi"`},
		{lang.Unbound(), "none"},
		{lang.StringValue("0123456789012345678901234567890123456789"), `"012345678901234567890123456789012345...`},
	}

	for _, tt := range tests {
		if got := preview(tt.in); got != tt.want {
			t.Errorf("preview(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
