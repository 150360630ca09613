// Command transfuse is the unified binary for extract/inject/clean; --mode
// (or the program name alias, see tf-extract/tf-inject/tf-clean) selects
// the operation.
package main

import (
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/transfuse/transfuse/internal/cli"
)

func main() {
	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("transfuse"),
		kong.Description("Bidirectional pipeline between document formats and MT/CG stream tooling"),
		kong.UsageOnError(),
	)

	err := c.Run(filepath.Base(os.Args[0]), os.Stdin, os.Stdout, os.Stderr)
	ctx.FatalIfErrorf(err)
}
