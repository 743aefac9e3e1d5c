package main

import (
	"os"

	"github.com/spigell/pm-coach/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
