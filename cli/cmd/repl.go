package cmd

import (
	"context"
	"io"

	"github.com/ardnew/bthn/cli/cmd/repl"
	"github.com/ardnew/bthn/log"
)

// Repl starts an interactive session.
type Repl struct {
	Load string `help:"Run program file before the first prompt ('-' for stdin)" placeholder:"FILE" short:"l"`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	cacheDir := ktx.Model.Vars()[CacheIdentifier]

	var preload io.Reader

	if r.Load != "" {
		src, err := openSource(r.Load)
		if err != nil {
			return err
		}
		defer src.Close()

		preload = src
	}

	return repl.Run(ctx, preload, cacheDir, log.Default())
}
