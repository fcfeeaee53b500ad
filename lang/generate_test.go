package lang

import (
	"context"
	"strings"
	"testing"
)

func seedPrint() *Environment {
	env := NewEnvironment()
	env.Define("print", func(context.Context, []Value) (Value, error) {
		return Value{}, nil
	})

	return env
}

func lines(s ...string) string { return strings.Join(s, "\n") + "\n" }

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  []Option
		want  string
	}{
		{
			name:  "empty program",
			input: "",
			want:  "",
		},
		{
			name:  "assignment declares ahead",
			input: "set x 1\nprint x",
			want:  lines("x = None", "x = 1", "print(x)"),
		},
		{
			name:  "function",
			input: "def f a b\n    ret a add b\nprint (f 1 2)",
			want: lines(
				"def f(a, b):",
				"    return a + b",
				"print((f(1, 2)))",
			),
		},
		{
			name:  "definitions are hoisted",
			input: "print (f)\ndef f\n    ret\n",
			want: lines(
				"def f():",
				"    return",
				"print((f()))",
			),
		},
		{
			name:  "loop",
			input: "lop i 1 3\n    print i",
			want: lines(
				"def _lop_range(start, stop, step):",
				"    out = []",
				"    while (step > 0 and start < stop) or (step < 0 and start > stop):",
				"        out.append(start)",
				"        start = start + step",
				"    return out",
				"i = None",
				"for i in _lop_range((0 if i is None else i), 3, 1):",
				"    print(i)",
			),
		},
		{
			name:  "connectives",
			input: "print (a and b) (a xor b) (not a) (a = b)",
			want: lines(
				"a = None",
				"b = None",
				"print((True if a and b else False), ((not a) != (not b)), (not a), (a == b))",
			),
		},
		{
			name:  "negated connectives",
			input: "print (a nand b) (a nor b) (a xnor b) (a or b)",
			want: lines(
				"a = None",
				"b = None",
				"print((not (a and b)), (not (a or b)), ((not a) == (not b)), (True if a or b else False))",
			),
		},
		{
			name:  "arithmetic",
			input: "print (1 add 2 mul 3 pow 2 sub 4 div 2 mod 3)",
			want:  lines("print((1 + 2 * 3 ** 2 - 4 / 2 % 3))"),
		},
		{
			name:  "literals",
			input: `print true false 2.5 "a\"b\n"`,
			want:  lines(`print(True, False, 2.5, "a\"b\n")`),
		},
		{
			name:  "iff els",
			input: "iff x\n    print 1\nels\n    print 2\n",
			want: lines(
				"x = None",
				"if x:",
				"    print(1)",
				"else:",
				"    print(2)",
			),
		},
		{
			name:  "function body assignments are local",
			input: "set y 1\ndef f\n    set y 2\n    ret y\nprint (f) y",
			want: lines(
				"y = None",
				"def f():",
				"    def _body(y):",
				"        y = 2",
				"        return y",
				"    return _body(y)",
				"y = 1",
				"print((f()), y)",
			),
		},
		{
			name:  "function body names unseen outside stay local",
			input: "def f\n    set y 2\n    ret y\nprint (f)",
			want: lines(
				"def f():",
				"    y = None",
				"    y = 2",
				"    return y",
				"print((f()))",
			),
		},
		{
			name:  "assigned parameter is not redeclared",
			input: "def f a\n    set a a add 1\n    ret a\n",
			want: lines(
				"def f(a):",
				"    a = a + 1",
				"    return a",
			),
		},
		{
			name:  "loop in function starts from the enclosing value",
			input: "set i 2\ndef f\n    lop i 1 4\n        print i\n",
			want: lines(
				"def _lop_range(start, stop, step):",
				"    out = []",
				"    while (step > 0 and start < stop) or (step < 0 and start > stop):",
				"        out.append(start)",
				"        start = start + step",
				"    return out",
				"i = None",
				"def f():",
				"    def _body(i):",
				"        for i in _lop_range((0 if i is None else i), 4, 1):",
				"            print(i)",
				"    return _body(i)",
				"i = 2",
			),
		},
		{
			name:  "function defined in a nested block",
			input: "iff true\n    def g\n        ret 7\nprint (g)",
			want: lines(
				"g = None",
				"if True:",
				"    def g():",
				"        return 7",
				"print((g()))",
			),
		},
		{
			name:  "reserved helper name is renamed",
			input: "set _body 1\nprint _body",
			want:  lines("_body_ = None", "_body_ = 1", "print(_body_)"),
		},
		{
			name:  "unknown callee with arguments",
			input: "g 1",
			want:  lines("g = None", "g(1)"),
		},
		{
			name:  "python keywords are renamed",
			input: "set class 1\nprint class",
			want:  lines("class_ = None", "class_ = 1", "print(class_)"),
		},
		{
			name:  "indent unit",
			input: "def f\n    ret 1\n",
			opts:  []Option{WithIndent("\t")},
			want:  lines("def f():", "\treturn 1"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, err := ParseString(t.Context(), tt.input)
			if err != nil {
				t.Fatalf("parse error: %v", err)
			}

			got, err := Generate(t.Context(), prog, seedPrint(), tt.opts...)
			if err != nil {
				t.Fatalf("generate error: %v", err)
			}

			if got != tt.want {
				t.Errorf("output:\n got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestGenerate_EmptyBody(t *testing.T) {
	prog := &Program{Statements: []Node{
		&If{
			Cond: &BoolLiteral{Value: true},
			Body: &Block{Statements: []Node{&Blank{}}},
		},
	}}

	got, err := Generate(t.Context(), prog, nil)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	if want := lines("if True:", "    pass"); got != want {
		t.Errorf("output:\n got %q\nwant %q", got, want)
	}
}

func TestGenerate_SeedValues(t *testing.T) {
	seed := seedPrint()
	seed.Bind("x", NumberValue(5))
	seed.Bind("s", StringValue("hi"))
	seed.Bind("on", BoolValue(true))

	prog, err := ParseString(t.Context(), "print x s on")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	got, err := Generate(t.Context(), prog, seed)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	want := lines(`on = True`, `s = "hi"`, `x = 5`, `print(x, s, on)`)
	if got != want {
		t.Errorf("output:\n got %q\nwant %q", got, want)
	}
}

func TestPyQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: `""`},
		{in: "plain", want: `"plain"`},
		{in: `back\slash`, want: `"back\\slash"`},
		{in: "tab\tnl\ncr\r", want: `"tab\tnl\ncr\r"`},
		{in: "bell\a", want: `"bell\x07"`},
		{in: "ünï", want: `"ünï"`},
	}

	for _, tt := range tests {
		if got := pyQuote(tt.in); got != tt.want {
			t.Errorf("pyQuote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSourceName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{in: "x", want: "x", ok: true},
		{in: "class_", want: "class", ok: true},
		{in: "bool_", want: "bool", ok: true},
		{in: "_lop_range_", want: "_lop_range", ok: true},
		{in: "name_", want: "name_", ok: true},
		{in: "_lop_range", ok: false},
		{in: "__name__", ok: false},
	}

	for _, tt := range tests {
		got, ok := SourceName(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("SourceName(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
