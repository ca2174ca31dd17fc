package main

import (
	"os"

	"github.com/keshy/CodeSense/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
