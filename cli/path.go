package cli

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ardnew/bthn/pkg"
)

// baseConfig is the base name of the configuration file.
const baseConfig = "config.yaml"

// defaultDirMode is the permission mode for created directories.
var defaultDirMode os.FileMode = 0o700

// envPrefix is the prefix of environment variables that override the
// runtime directories, e.g. BTHN_CONFIG_DIR.
var envPrefix = strings.ToUpper(pkg.Name) + "_"

// runtimeDir returns the directory named by the environment variable
// envPrefix+key if set. Otherwise it returns the pkg.Name subdirectory of
// the directory returned by user, falling back to hidden below the home
// directory and then to the working directory.
func runtimeDir(key string, user func() (string, error), hidden string) string {
	if dir := os.Getenv(envPrefix + key); dir != "" {
		return dir
	}

	dir, err := user()
	if err != nil {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, hidden)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, pkg.Name)
}

// configDir returns the configuration directory path.
var configDir = sync.OnceValue(func() string {
	return runtimeDir("CONFIG_DIR", os.UserConfigDir, ".config")
})

// cacheDir returns the cache directory path used for transient files such
// as the REPL history and profiles.
var cacheDir = sync.OnceValue(func() string {
	return runtimeDir("CACHE_DIR", os.UserCacheDir, ".cache")
})

// configPath returns the absolute path to a file or directory formed by joining
// the global configuration directory path with the given path elements.
//
// If no elements are given, it is equivalent to calling [configDir].
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates all required runtime directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
