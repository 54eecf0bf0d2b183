package main

import (
	"fmt"
	"os"

	"go-chi-calculator/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "calc:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
