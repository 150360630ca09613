// Command tf-inject is the inject-only alias of transfuse, selected by
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
		kong.Name("tf-inject"),
		kong.Description("Splice a translated stream back into its source document"),
		kong.UsageOnError(),
	)

	c.Mode = "inject"
	err := c.Run("tf-inject", os.Stdin, os.Stdout, os.Stderr)
	ctx.FatalIfErrorf(err)
}
