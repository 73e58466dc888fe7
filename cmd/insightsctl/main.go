package main

import (
	"os"

	"github.com/ignite/campaign-intelligence/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
