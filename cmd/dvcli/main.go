package main

import (
	"os"

	"github.com/datavault/dvcli/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
