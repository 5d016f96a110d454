// Command splat4d inspects, renders and exports 4Splat (.4spl) videos.
package main

import (
	"fmt"
	"os"

	"github.com/eunmann/splat4d/internal/cli"
)

func main() {
	if err := cli.Run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
