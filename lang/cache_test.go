package lang

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"testing/iotest"
)

func TestParseReader_Cached(t *testing.T) {
	t.Cleanup(ClearCache)

	src := "set x 1\nprint x\n"

	first, err := ParseReader(t.Context(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	second, err := ParseReader(t.Context(), strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if first != second {
		t.Error("expected the cached program to be returned")
	}

	other, err := ParseReader(t.Context(), strings.NewReader(src+"print 2\n"))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	if other == first {
		t.Error("expected a distinct program for distinct source")
	}
}

func TestParseReader_CachedError(t *testing.T) {
	t.Cleanup(ClearCache)

	for range 2 {
		_, err := ParseReader(t.Context(), strings.NewReader("a = b = c"))
		if !errors.Is(err, ErrSyntax) {
			t.Fatalf("expected ErrSyntax, got %v", err)
		}
	}
}

func TestParseReader_ReadError(t *testing.T) {
	_, err := ParseReader(t.Context(), iotest.ErrReader(errors.New("boom")))
	if !errors.Is(err, ErrReadInput) {
		t.Fatalf("expected ErrReadInput, got %v", err)
	}
}

func TestParseReader_Concurrent(t *testing.T) {
	t.Cleanup(ClearCache)

	const workers = 8

	src := "def f n\n    ret n mul 2\nprint (f 21)\n"
	progs := make([]*Program, workers)

	var wg sync.WaitGroup

	for i := range workers {
		wg.Go(func() {
			prog, err := ParseReader(t.Context(), strings.NewReader(src))
			if err != nil {
				t.Errorf("parse error: %v", err)
			}

			progs[i] = prog
		})
	}

	wg.Wait()

	for _, p := range progs[1:] {
		if p != progs[0] {
			t.Fatal("expected all workers to share one program")
		}
	}
}
