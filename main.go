package main

import (
	"os"

	"github.com/archloom/archloom/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
