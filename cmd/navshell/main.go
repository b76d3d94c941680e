package main

import (
	"fmt"
	"os"

	"github.com/telekom/infoasst-navshell/pkg/cli"
)

func main() {
	root := cli.NewRootCommand(cli.DefaultOptions())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "navshell:", err)
		os.Exit(1)
	}
}
