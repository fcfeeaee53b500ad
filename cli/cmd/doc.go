// Package cmd implements the bthn subcommands: run, gen, tokens, repl,
// init and version.
//
// Commands read the program from a file argument, or from stdin when the
// argument is "-" or omitted, and write their results to the writer set
// with [WithOutput].
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the configuration file.
	ConfigIdentifier = "config"

	// MaxDepthIdentifier is the kong variable identifier containing the
	// default call depth limit.
	MaxDepthIdentifier = "maxDepth"
)
