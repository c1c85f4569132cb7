package main

import (
	"os"

	"github.com/anaphor-dev/anaphor/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
