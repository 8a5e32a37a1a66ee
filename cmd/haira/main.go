// Command haira is the Haira compiler's command-line entry point: a thin
// main that hands os.Args straight to cmd.Main and propagates its exit
// code, the same split the teacher draws between its cmd package (all the
// actual argument/compiler logic) and a minimal outer main.
package main

import (
	"os"

	"github.com/mrzdevcore/haira/cmd"
)

func main() {
	os.Exit(cmd.Main(os.Args[1:]))
}
