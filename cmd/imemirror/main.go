// Package main provides the imemirror batch job entry point.
package main

import (
	"os"
	_ "time/tzdata"

	"imemirror/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
