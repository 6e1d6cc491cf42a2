package main

import (
	"os"

	"github.com/PolarWolf314/pagelock/cmd"
)

func main() {
	if err := cmd.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
