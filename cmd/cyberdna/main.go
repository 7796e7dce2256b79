// Command cyberdna builds workflow legends and answers routing queries
// from the command line.
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
