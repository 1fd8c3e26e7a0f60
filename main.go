// The main package for the granthctl executable.
package main

import (
	"github.com/gurmukhi-data/granth-corpus/cmd"
)

// main is the entry point of the application.
// It defers all execution to the Cobra CLI library.
func main() {
	cmd.Execute()
}
