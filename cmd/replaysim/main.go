package main

import (
	"os"

	"github.com/tradekit/replaysim/cmd/replaysim/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
