// Command bb5enum enumerates and classifies 5-state, 2-symbol Turing
// machines in tree-normal form.
package main

import "github.com/bb5enum/bb5enum/cmd/bb5enum/cmd"

func main() {
	cmd.Execute()
}
