package main

import (
	"os"

	"github.com/conorfennell/revisit/internal/cmd"
)

func main() {
	if err := cmd.NewRootCmd(cmd.Options{}).Execute(); err != nil {
		os.Exit(1)
	}
}
