// ChromQuant - Chromatography peak assignment and quantification tool
package main

import (
	"fmt"
	"os"

	"github.com/ChrisMcGann/ChromQuant/cmd/chromquant/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
