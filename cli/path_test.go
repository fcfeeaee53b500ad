package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/ardnew/bthn/pkg"
)

func TestRuntimeDir(t *testing.T) {
	t.Run("environment override", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv(envPrefix+"TEST_DIR", dir)

		got := runtimeDir("TEST_DIR", func() (string, error) { return "/unused", nil }, ".test")
		if got != dir {
			t.Errorf("got %q, want %q", got, dir)
		}
	})

	t.Run("user directory", func(t *testing.T) {
		t.Setenv(envPrefix+"TEST_DIR", "")

		got := runtimeDir("TEST_DIR", func() (string, error) { return "/base", nil }, ".test")
		if want := filepath.Join("/base", pkg.Name); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)
		t.Setenv(envPrefix+"TEST_DIR", "")

		got := runtimeDir("TEST_DIR", func() (string, error) { return "", errors.New("unset") }, ".test")
		if want := filepath.Join(home, ".test", pkg.Name); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}
