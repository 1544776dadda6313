package main

import (
	"os"

	"archcheck/internal/ui/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
