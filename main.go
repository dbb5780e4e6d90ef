// This is the main-driver for our compiler.
//
// It takes no arguments and no flags: the whole program is read from
// standard input, and the generated assembly is written whole to
// standard output. Debug-level trace logging is opt-in via the
// CISH_DEBUG environment variable rather than a flag - see
// internal/config - and always goes to standard error, never standard
// output.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/skx/cish-compiler/compiler"
	"github.com/skx/cish-compiler/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	input, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error! reading standard input: %s\n", err)
		return 1
	}

	source := strings.TrimSpace(string(input))

	cfg := config.Load()
	comp := compiler.New(source, cfg)

	out, err := comp.Compile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error! %s\n", err)
		return 1
	}

	fmt.Print(out)
	return 0
}
