package main

import (
	"os"

	"github.com/DevBash1/trackpadal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
