// Package main is the entry point for the pulse CLI tool.
package main

import (
	"github.com/bernlabs/pulse/internal/cmd"
)

func main() {
	cmd.Execute()
}
