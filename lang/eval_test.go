package lang

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// printer returns an environment with a print builtin writing to out.
func printer(out *strings.Builder) *Environment {
	env := NewEnvironment()
	env.Define("print", func(_ context.Context, args []Value) (Value, error) {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}

		out.WriteString(strings.Join(parts, " ") + "\n")

		return Value{}, nil
	})

	return env
}

func evaluate(t *testing.T, src string, opts ...Option) (string, *Environment, error) {
	t.Helper()

	var out strings.Builder

	env := printer(&out)

	prog, err := ParseString(t.Context(), src, opts...)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	_, err = Evaluate(t.Context(), prog, env, opts...)

	return out.String(), env, err
}

func TestEvaluate_Output(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "precedence",
			input: "print (2 add 3 mul 4)",
			want:  "14\n",
		},
		{
			name:  "right associative power",
			input: "print (2 pow 3 pow 2)",
			want:  "512\n",
		},
		{
			name:  "fractions",
			input: "print (7 div 2) (0.5 add 0.25)",
			want:  "3.5 0.75\n",
		},
		{
			name:  "floored modulo",
			input: "print (7 mod 3) ((0 sub 7) mod 3) (7 mod (0 sub 3))",
			want:  "1 2 -2\n",
		},
		{
			name:  "string concatenation",
			input: `print ("a" add "b")`,
			want:  "ab\n",
		},
		{
			name:  "string escapes",
			input: `print "tab\there" "q\"q" "\x41é"`,
			want:  "tab\there q\"q Aé\n",
		},
		{
			name:  "bool arithmetic",
			input: "print (true add true)",
			want:  "2\n",
		},
		{
			name:  "logic",
			input: "print (true and false) (true or false) (true xor true) (true nand false) (false nor false) (true xnor true) (not 0)",
			want:  "false true false true true true true\n",
		},
		{
			name:  "equality",
			input: `print (1 = 1) ("a" = "a") ("1" = 1) (true = 1) (x = y)`,
			want:  "true true false true true\n",
		},
		{
			name:  "unbound prints none",
			input: "print x",
			want:  "none\n",
		},
		{
			name:  "loop counts up from zero",
			input: "lop i 1 5\n    print i",
			want:  "0\n1\n2\n3\n4\n",
		},
		{
			name:  "loop starts from current value",
			input: "set i 3\nlop i 1 5\n    print i",
			want:  "3\n4\n",
		},
		{
			name:  "loop counts down",
			input: "set i 3\nlop i (0 sub 1) 0\n    print i",
			want:  "3\n2\n1\n",
		},
		{
			name:  "loop with zero step",
			input: "lop i 0 5\n    print i\nprint \"done\"",
			want:  "done\n",
		},
		{
			name:  "loop with wrong direction",
			input: "lop i (0 sub 1) 5\n    print i\nprint i",
			want:  "none\n",
		},
		{
			name:  "loop variable survives",
			input: "lop i 2 5\n    set j i\nprint i j",
			want:  "4 4\n",
		},
		{
			name:  "iff els",
			input: "set x 0\niff x\n    print \"yes\"\nels\n    print \"no\"",
			want:  "no\n",
		},
		{
			name:  "forward reference",
			input: "print (f 2)\ndef f x\n    ret x mul 10",
			want:  "20\n",
		},
		{
			name:  "return short circuits",
			input: "def f\n    ret 1\n    print \"unreachable\"\nprint (f)",
			want:  "1\n",
		},
		{
			name:  "return from loop",
			input: "def first n\n    lop i 1 n\n        iff i = 3\n            ret i\n    ret 0 sub 1\nprint (first 10) (first 2)",
			want:  "3 -1\n",
		},
		{
			name:  "bare return yields none",
			input: "def f\n    ret\nprint (f)",
			want:  "none\n",
		},
		{
			name:  "function without return yields none",
			input: "def f\n    set y 1\nprint (f)",
			want:  "none\n",
		},
		{
			name:  "late binding",
			input: "def f\n    ret y\nset y 5\nprint (f)\nset y 6\nprint (f)",
			want:  "5\n6\n",
		},
		{
			name:  "closure isolation",
			input: "set y 1\ndef f\n    set y 2\n    ret y\nprint (f) y",
			want:  "2 1\n",
		},
		{
			name:  "recursion",
			input: "def fact n\n    iff n = 0\n        ret 1\n    ret n mul (fact (n sub 1))\nprint (fact 10)",
			want:  "3628800\n",
		},
		{
			name:  "nested def hoisting",
			input: "def outer\n    ret inner\n    def inner\n        ret 7\nprint (outer)",
			want:  "7\n",
		},
		{
			name:  "function passed as argument",
			input: "def f\n    ret 1\nprint f",
			want:  "<def f>\n",
		},
		{
			name:  "non-callable ignores arguments",
			input: "set x 5\nprint (x 1 2)",
			want:  "5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := evaluate(t, tt.input)
			if err != nil {
				t.Fatalf("evaluate error: %v", err)
			}

			if got != tt.want {
				t.Errorf("output:\n got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{name: "division by zero", input: "5 div 0", want: ErrArithmetic},
		{name: "modulo by zero", input: "5 mod 0", want: ErrArithmetic},
		{name: "zero to negative power", input: "0 pow (0 sub 1)", want: ErrArithmetic},
		{name: "complex power", input: "(0 sub 8) pow 0.5", want: ErrArithmetic},
		{name: "undefined function", input: "nope 1", want: ErrUndefinedFunction},
		{name: "unbound with arguments", input: "x\nx 1", want: ErrUndefinedFunction},
		{name: "too many arguments", input: "def f a\n    ret a\nf 1 2", want: ErrArgumentCount},
		{name: "too few arguments", input: "def f a b\n    ret a\nf 1", want: ErrArgumentCount},
		{name: "string minus number", input: `"a" sub 1`, want: ErrOperandType},
		{name: "string plus number", input: `"a" add 1`, want: ErrOperandType},
		{name: "unbound arithmetic", input: "x add 1", want: ErrOperandType},
		{name: "string loop step", input: `lop i "a" 3` + "\n    i", want: ErrOperandType},
		{name: "string loop start", input: "set i \"a\"\nlop i 1 3\n    i", want: ErrOperandType},
		{name: "infinite recursion", input: "def f\n    ret f\nf", want: ErrMaxDepthExceeded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := evaluate(t, tt.input, WithMaxDepth(50))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEvaluate_AmbiguousResolution(t *testing.T) {
	var out strings.Builder

	env := printer(&out)

	prog, err := ParseString(t.Context(), "x")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	ev := NewEvaluator(t.Context())

	res, err := prog.Evaluate(ev, env)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if !res.Value.IsUnbound() {
		t.Errorf("expected unbound, got %v", res.Value)
	}

	if _, ok := env.Lookup("x"); !ok {
		t.Error("expected x to be materialized")
	}

	if diags := ev.Diagnostics(); len(diags) != 1 || !errors.Is(diags[0], ErrUnboundReference) {
		t.Errorf("expected one unbound reference diagnostic, got %v", diags)
	}

	var got []Value

	env.Define("x", func(_ context.Context, args []Value) (Value, error) {
		got = args

		return NumberValue(float64(len(args))), nil
	})

	prog, err = ParseString(t.Context(), "x 1 2")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	res, err = Evaluate(t.Context(), prog, env)
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if n, _ := res.Value.AsNumber(); n != 2 {
		t.Errorf("expected 2, got %v", res.Value)
	}

	if len(got) != 2 || !got[0].Equal(NumberValue(1)) || !got[1].Equal(NumberValue(2)) {
		t.Errorf("expected args (1, 2), got %v", got)
	}
}

func TestEvaluate_EnvironmentMutated(t *testing.T) {
	_, env, err := evaluate(t, "set a 1\ndef f\n    ret 2\nlop i 1 3\n    set b i")
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	for name, want := range map[string]Value{
		"a": NumberValue(1),
		"b": NumberValue(2),
		"i": NumberValue(2),
	} {
		got, ok := env.Lookup(name)
		if !ok || !got.Equal(want) {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
	}

	f, _ := env.Lookup("f")
	if f.Type() != TypeCallable {
		t.Errorf("expected f to be callable, got %v", f.Type())
	}
}

func TestEvaluate_TopLevelReturn(t *testing.T) {
	prog, err := ParseString(t.Context(), "ret 3\nprint 4")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	var out strings.Builder

	res, err := Evaluate(t.Context(), prog, printer(&out))
	if err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	if res.Flow != FlowReturn {
		t.Errorf("expected return flow, got %v", res.Flow)
	}

	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestEvaluate_Cancelled(t *testing.T) {
	prog, err := ParseString(t.Context(), "set n 0\nlop i 0.5 1000000000\n    set n n add 1")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()

	_, err = Run(ctx, prog)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline cause, got %v", err)
	}
}

func TestEvaluate_SharedProgram(t *testing.T) {
	prog, err := ParseString(t.Context(), "set x x add 1")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	for range 3 {
		env := NewEnvironment()
		env.Bind("x", NumberValue(10))

		if _, err := Evaluate(t.Context(), prog, env); err != nil {
			t.Fatalf("evaluate error: %v", err)
		}

		if v, _ := env.Lookup("x"); !v.Equal(NumberValue(11)) {
			t.Errorf("expected 11, got %v", v)
		}
	}
}
