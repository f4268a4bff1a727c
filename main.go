package main

import (
	"os"

	"github.com/goldshtn/etrace/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
