// Command urkelctl is a read-only companion to the urkeldb library: point
// it at a data directory and it opens the store exactly the way a host
// application would, then either prints a summary or walks every node
// checking that every Hash pointer resolves in bounds.
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(2)
	}

	cmd, dir := os.Args[1], os.Args[2]
	var err error
	switch cmd {
	case "inspect":
		err = runInspect(dir)
	case "verify":
		err = runVerify(dir)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "urkelctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: urkelctl inspect <dir> | urkelctl verify <dir>")
}
