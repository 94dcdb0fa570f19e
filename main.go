// The main package for the paintco executable.
package main

import (
	"github.com/JakeFAU/paintco-web/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
