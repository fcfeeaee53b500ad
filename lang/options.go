package lang

import "github.com/ardnew/bthn/log"

// DefaultMaxDepth is the default limit on nested function calls.
const DefaultMaxDepth = 1000

// DefaultIndent is the default indent unit of generated text.
const DefaultIndent = "    "

// options holds the settings shared by the lexer, parser, evaluator and
// generator.
type options struct {
	logger   log.Logger
	maxDepth int
	indent   string
}

// Option is a functional option for configuring the lexer, parser, evaluator
// and generator.
type Option func(*options)

func makeOptions(opts ...Option) options {
	o := options{
		maxDepth: DefaultMaxDepth,
		indent:   DefaultIndent,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithLogger sets the logger used for tracing and diagnostics.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxDepth sets the maximum depth of nested function calls.
// Values less than 1 are ignored.
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithIndent sets the indent unit emitted per nesting level by [Generate].
// An empty unit is ignored.
func WithIndent(unit string) Option {
	return func(o *options) {
		if unit != "" {
			o.indent = unit
		}
	}
}
