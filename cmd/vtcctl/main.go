// Command vtcctl is the command-line client of the VTC booking API.
package main

import (
	"os"

	"frenchdriver/internal/cli"
)

func main() {
	os.Exit(cli.Main())
}
