package main

import (
	"os"

	"github.com/psantana5/calltiming/cmd/calltiming/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
