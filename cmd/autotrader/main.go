package main

import (
	"os"

	"github.com/assist-by/kstock/cmd/autotrader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
