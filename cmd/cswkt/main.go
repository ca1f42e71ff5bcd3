// Command cswkt translates coordinate-system WKT from the command line.
package main

import (
	"os"
)

var Version = "dev"

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
