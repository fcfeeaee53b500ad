package repl

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestHistory_WriteLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)

	for _, e := range []HistoryEntry{
		{Line: "def f x", Mode: modeEval},
		{Line: "    ret x", Mode: modeEval},
		{Line: "    ret x", Mode: modeEval},
		{Line: "   ", Mode: modeEval},
		{Line: "env", Mode: modeCtrl},
		{Line: `print "a\tb"`, Mode: modeEval},
	} {
		if err := h.Write(e.Line, e.Mode); err != nil {
			t.Fatalf("write %q: %v", e.Line, err)
		}
	}

	want := []HistoryEntry{
		{Line: "def f x", Mode: modeEval},
		{Line: "    ret x", Mode: modeEval},
		{Line: "env", Mode: modeCtrl},
		{Line: `print "a\tb"`, Mode: modeEval},
	}

	if got := h.Entries(); !slices.Equal(got, want) {
		t.Fatalf("entries:\n got %v\nwant %v", got, want)
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := loaded.Entries(); !slices.Equal(got, want) {
		t.Errorf("loaded:\n got %v\nwant %v", got, want)
	}
}

func TestHistory_DuplicateMovesToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	for _, line := range []string{"a", "b", "a"} {
		if err := h.Write(line, modeEval); err != nil {
			t.Fatal(err)
		}
	}

	loaded := NewHistory(path)
	if err := loaded.Load(); err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, e := range loaded.Entries() {
		got = append(got, e.Line)
	}

	if want := []string{"b", "a"}; !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestHistory_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), baseHistory)

	h := NewHistory(path)
	if err := h.Load(); err != nil {
		t.Fatalf("missing file: %v", err)
	}

	content := "E:\"x\"\nbogus\nC:\"quit\"\nE:unquoted\nE:\"  \"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := h.Load(); err != nil {
		t.Fatal(err)
	}

	want := []HistoryEntry{{Line: "x", Mode: modeEval}, {Line: "quit", Mode: modeCtrl}}
	if got := h.Entries(); !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := h.Entry(2); err != ErrOutOfBounds {
		t.Errorf("expected ErrOutOfBounds, got %v", err)
	}
}
