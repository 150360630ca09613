// Command tf-extract is the extract-only alias of transfuse, selected by
// program-name mode derivation.
package main

import (
	"os"

	"github.com/alecthomas/kong"

	"github.com/transfuse/transfuse/internal/cli"
)

func main() {
	var c cli.CLI
	ctx := kong.Parse(&c,
		kong.Name("tf-extract"),
		kong.Description("Extract a document into a translatable stream"),
		kong.UsageOnError(),
	)

	c.Mode = "extract"
	err := c.Run("tf-extract", os.Stdin, os.Stdout, os.Stderr)
	ctx.FatalIfErrorf(err)
}
