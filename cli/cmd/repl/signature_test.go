package repl

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/bthn/lang"
)

func TestDetectFunctionCall(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantName   string
		wantIndex  int
		wantInCall bool
	}{
		{name: "bare name", input: "greeting"},
		{name: "first argument pending", input: "area ", wantName: "area", wantIndex: 0, wantInCall: true},
		{name: "typing first argument", input: "area 1", wantName: "area", wantIndex: 0, wantInCall: true},
		{name: "second argument pending", input: "area 1 ", wantName: "area", wantIndex: 1, wantInCall: true},
		{name: "group argument", input: "print (g 2) ", wantName: "print", wantIndex: 1, wantInCall: true},
		{name: "inside group", input: "print (g 2 ", wantName: "g", wantIndex: 1, wantInCall: true},
		{name: "set target skipped", input: "set x f ", wantName: "f", wantIndex: 0, wantInCall: true},
		{name: "set value", input: "set x ", wantInCall: false},
		{name: "after operator", input: "1 add f 2", wantName: "f", wantIndex: 0, wantInCall: true},
		{name: "operator ends call", input: "f 1 add 2", wantInCall: false},
		{name: "return value", input: "ret f ", wantName: "f", wantIndex: 0, wantInCall: true},
		{name: "loop header", input: "lop i 1 ", wantInCall: false},
		{name: "def header", input: "def f a ", wantInCall: false},
		{name: "indented", input: "    print x ", wantName: "print", wantIndex: 1, wantInCall: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectFunctionCall(tt.input, len(tt.input))
			if got.inCall != tt.wantInCall {
				t.Fatalf("inCall = %v, want %v (%+v)", got.inCall, tt.wantInCall, got)
			}

			if got.inCall && (got.name != tt.wantName || got.argIndex != tt.wantIndex) {
				t.Errorf("got (%q, %d), want (%q, %d)", got.name, got.argIndex, tt.wantName, tt.wantIndex)
			}
		})
	}
}

func TestGetSignature(t *testing.T) {
	env := lang.NewEnvironment()
	env.Define("print", func(context.Context, []lang.Value) (lang.Value, error) {
		return lang.Unbound(), nil
	})
	env.Bind("x", lang.NumberValue(1))

	prog, err := lang.ParseString(t.Context(), "def area w h\n    ret w mul h\n")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if _, err := lang.Evaluate(t.Context(), prog, env); err != nil {
		t.Fatalf("evaluate error: %v", err)
	}

	tests := []struct {
		name   string
		params []string
		ok     bool
	}{
		{name: "area", params: []string{"w", "h"}, ok: true},
		{name: "print", params: []string{"args..."}, ok: true},
		{name: "x", ok: false},
		{name: "missing", ok: false},
	}

	for _, tt := range tests {
		params, ok := getSignature(env, tt.name)
		if ok != tt.ok || !slices.Equal(params, tt.params) {
			t.Errorf("getSignature(%q) = %v, %v; want %v, %v", tt.name, params, ok, tt.params, tt.ok)
		}
	}
}

func TestRenderSignatureHint(t *testing.T) {
	hint := renderSignatureHint("area", []string{"w", "h"}, 1)

	for _, part := range []string{"area", "w", "h"} {
		if !strings.Contains(hint, part) {
			t.Errorf("hint %q missing %q", hint, part)
		}
	}

	if hint := renderSignatureHint("f", nil, 0); !strings.Contains(hint, "no arguments") {
		t.Errorf("expected no-arguments hint, got %q", hint)
	}
}
