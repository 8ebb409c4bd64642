package main

import (
	"os"

	"github.com/rustyeddy/paperbroker/cmd/paperbroker/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
