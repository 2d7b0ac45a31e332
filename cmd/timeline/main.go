// Command timeline renders and checks project timelines declared in
// documents, or serves them over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		color.NoColor = true
	}
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
