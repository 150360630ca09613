// Command tf-clean is the extract-then-inject alias of transfuse, selected
// by program-name mode derivation, useful for verifying a document
// round-trips through the pipeline unchanged.
package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/transfuse/transfuse/internal/cli"
)

func main() {
	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("tf-clean"),
		kong.Description("Round-trip a document through extract and inject unchanged"),
		kong.UsageOnError(),
	)

	c.Mode = "clean"
	err := c.Run("tf-clean", os.Stdin, os.Stdout, os.Stderr)
	ctx.FatalIfErrorf(err)
}
