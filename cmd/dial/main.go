package main

import (
	"os"

	"github.com/dialscript/dial/pkg/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
