package main

import (
	"os"

	"prombank/internal/cli"
)

const version = "1.0.0"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
