package main

import (
	"os"

	"github.com/moorebrett0/hogotchi/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
