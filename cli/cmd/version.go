package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ardnew/bthn/pkg"
)

// Version prints the program name and version.
type Version struct{}

// Run executes the version command.
func (Version) Run(ctx context.Context) error {
	if _, err := fmt.Fprintf(outputFrom(ctx), "%s %s\n", pkg.Name, strings.TrimSpace(pkg.Version)); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
