package cli

import (
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"

	"github.com/ardnew/bthn/lang"
	"github.com/ardnew/bthn/log"
)

// ErrConfig is returned for a configuration file that is not a YAML
// mapping.
var ErrConfig = lang.NewError("invalid configuration file")

// resolve is a [kong.ConfigurationLoader] that parses YAML config files.
//
// It can be used with [kong.Configuration] like this:
//
//	kong.Configuration(resolve, "/path/to/config.yaml")
//
// The document is converted as follows:
//   - Top-level keys name flags, with either hyphens ("log-level") or
//     underscores ("log_level")
//   - Nested mappings join their keys with hyphens, so that
//     "log: {level: debug}" sets --log-level
//   - Numbers are passed to Kong as strings
//   - Sequences set repeatable flags such as --define
//
// Example config file:
//
//	log:
//	  level: debug
//	  format: json
//	max-depth: 500
//	define:
//	  - limit=10
//
// Command-line flags override config file values.
func resolve(r io.Reader) (kong.Resolver, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, lang.ErrReadInput.Wrap(err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, ErrConfig.Wrap(err)
	}

	cfg := make(config)
	cfg.flatten("", doc)

	return cfg, nil
}

// config implements [kong.Resolver] for YAML configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	// No validation needed - the config was already parsed successfully
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	// Kong flags use hyphens (e.g., "log-level") but YAML keys
	// may use underscores. Try both forms.
	name := flag.Name
	underscoreName := strings.ReplaceAll(name, "-", "_")

	if value, ok := r[name]; ok {
		return value, nil
	}

	if value, ok := r[underscoreName]; ok {
		return value, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}

// flatten stores every leaf of m under its hyphen-joined key path.
func (r config) flatten(prefix string, m map[string]any) {
	for key, val := range m {
		if prefix != "" {
			key = prefix + "-" + key
		}

		switch v := val.(type) {
		case nil:
			continue

		case map[string]any:
			r.flatten(key, v)

		case []any:
			list := make([]any, 0, len(v))
			for _, e := range v {
				if e != nil {
					list = append(list, scalar(e))
				}
			}

			r[key] = list

		default:
			r[key] = scalar(v)
		}
	}
}

// scalar converts a decoded YAML scalar to the form Kong parses.
func scalar(v any) any {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case uint64:
		return strconv.FormatUint(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case bool, string:
		return n
	default:
		log.Debug("config value kept as is", slog.Any("value", v))

		return n
	}
}
