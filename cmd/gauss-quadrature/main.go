// Command gauss-quadrature answers one quadrature request on stdin with the
// built-in Gauss solver. It can be configured as an external provider:
//
//	quadrature:
//	  provider: command
//	  command: ["gauss-quadrature"]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/windaep/internal/quadrature"
)

func main() {
	subdivisions := flag.Int("subdivisions", quadrature.DefaultSubdivisions, "Sub-atoms per histogram bin")
	flag.Parse()

	p := quadrature.NewGaussProvider()
	if *subdivisions > 0 {
		p.Subdivisions = *subdivisions
	}

	if err := quadrature.Serve(os.Stdin, os.Stdout, p); err != nil {
		fmt.Fprintf(os.Stderr, "gauss-quadrature: %v\n", err)
		os.Exit(1)
	}
}
