package main

import (
	"os"

	"github.com/mpresser/tailorbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
